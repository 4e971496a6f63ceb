package apitest

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/information-sharing-networks/apitest/auth"
	"github.com/information-sharing-networks/apitest/hydra"
	"github.com/information-sharing-networks/apitest/internal/crypto"
	"github.com/information-sharing-networks/apitest/internal/logger"
)

// stopped is the panic value used by recordingT.FailNow
type stopped struct{}

// recordingT records failures; FailNow panics so the assertion stops like testing.T would
type recordingT struct {
	messages []string
	failed   bool
}

func (r *recordingT) Helper() {}

func (r *recordingT) Errorf(format string, args ...any) {
	r.messages = append(r.messages, fmt.Sprintf(format, args...))
}

func (r *recordingT) FailNow() {
	r.failed = true
	panic(stopped{})
}

func (r *recordingT) output() string { return strings.Join(r.messages, "\n") }

// check runs an assertion against a recordingT
func check(f func(t TestingT)) (rt *recordingT) {
	rt = &recordingT{}
	defer func() {
		if p := recover(); p != nil {
			if _, ok := p.(stopped); !ok {
				panic(p)
			}
		}
	}()
	f(rt)
	return rt
}

func mustPass(t *testing.T, f func(t TestingT)) {
	t.Helper()
	if rt := check(f); rt.failed {
		t.Fatalf("expected assertion to pass, got:\n%s", rt.output())
	}
}

func mustFail(t *testing.T, want string, f func(t TestingT)) {
	t.Helper()
	rt := check(f)
	if !rt.failed {
		t.Fatalf("expected assertion to fail with %q", want)
	}
	if !strings.Contains(rt.output(), want) {
		t.Fatalf("failure message does not contain %q:\n%s", want, rt.output())
	}
}

type testBook struct{ id string }

func (b testBook) ResourceClass() string { return "Book" }
func (b testBook) ResourceID() string    { return b.id }

const testBookID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

// newTestApp returns a small Hydra application and the signer trusted by it
func newTestApp(t *testing.T) (*hydra.Router, *auth.Signer) {
	t.Helper()

	key, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("could not generate key: %v", err)
	}
	signer, err := auth.NewSigner(key, "", "apitest", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	router := hydra.NewRouter()
	router.Use(auth.Middleware(auth.NewVerifier(signer.KeySet())))

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("route registration failed: %v", err)
		}
	}

	must(router.Handle("Author", hydra.Get("/authors/{id}"), func(w http.ResponseWriter, r *http.Request) {
		hydra.RespondWithJSONLD(w, http.StatusOK, map[string]any{"@id": r.URL.Path, "@type": "Author"})
	}))
	must(router.Handle("Book", hydra.GetCollection("/books"), func(w http.ResponseWriter, r *http.Request) {
		members := []any{map[string]any{"@id": "/books/" + testBookID, "@type": "Book", "author": "/authors/1"}}
		hydra.RespondWithJSONLD(w, http.StatusOK, hydra.NewCollection("Book", "/books", members))
	}))
	must(router.Handle("Book", hydra.Get("/books/{id}"), func(w http.ResponseWriter, r *http.Request) {
		route, _ := hydra.RouteFromContext(r.Context())
		hydra.RespondWithJSONLD(w, http.StatusOK, map[string]any{
			"@context": "/contexts/Book",
			"@id":      r.URL.Path,
			"@type":    "Book",
			"id":       route.Params["id"],
			"author":   map[string]any{"@id": "/authors/1", "@type": "Author"},
			"editor":   nil,
			"title":    "Dune",
		})
	}))
	must(router.Handle("Book", hydra.Post("/books"), func(w http.ResponseWriter, r *http.Request) {
		hydra.RespondWithErrorResponse(w, r, hydra.NewValidationError(
			hydra.Violation{PropertyPath: "title", Message: "This value should not be blank."},
		))
	}))

	// echoes the request so tests can inspect what the client sent
	router.Mux().HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		cookies := map[string]string{}
		for _, c := range r.Cookies() {
			cookies[c.Name] = c.Value
		}
		body, _ := io.ReadAll(r.Body)
		user := ""
		if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
			user = claims.Username
		}
		hydra.RespondWithJSONLD(w, http.StatusOK, map[string]any{
			"method":      r.Method,
			"requestUri":  r.RequestURI,
			"query":       r.URL.RawQuery,
			"accept":      r.Header.Get("Accept"),
			"contentType": r.Header.Get("Content-Type"),
			"custom":      r.Header.Get("X-Custom"),
			"body":        string(body),
			"cookies":     cookies,
			"user":        user,
		})
	})
	router.Mux().Get("/set-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "theme", Value: "dark", Path: "/"})
		hydra.RespondWithStatusCodeOnly(w, http.StatusNoContent)
	})

	return router, signer
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	router, signer := newTestApp(t)
	client, err := New(router, WithTokenManager(signer), WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}
