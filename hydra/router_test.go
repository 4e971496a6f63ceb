package hydra

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

type book struct{ id string }

func (b book) ResourceClass() string { return "Book" }
func (b book) ResourceID() string    { return b.id }

type chapter struct {
	bookID string
	number string
}

func (c chapter) ResourceClass() string { return "Chapter" }
func (c chapter) ResourceID() string    { return c.number }
func (c chapter) IRIParameters() map[string]string {
	return map[string]string{"bookId": c.bookID}
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	rt := NewRouter()
	if err := rt.Register("Book",
		GetCollection("/books"),
		Post("/books"),
		Get("/books/{id}"),
		Patch("/books/{id}"),
		Delete("/books/{id}"),
	); err != nil {
		t.Fatalf("Register(Book): %v", err)
	}
	if err := rt.Register("Author", GetCollection("/authors"), Get("/authors/{id:[0-9A-Z]+}")); err != nil {
		t.Fatalf("Register(Author): %v", err)
	}
	if err := rt.Register("Chapter", Get("/books/{bookId}/chapters/{id}")); err != nil {
		t.Fatalf("Register(Chapter): %v", err)
	}
	rt.Mux().Get("/health", func(w http.ResponseWriter, r *http.Request) {})
	return rt
}

func TestRouterMatch(t *testing.T) {
	rt := newTestRouter(t)

	tests := []struct {
		name        string
		iri         string
		wantClass   string
		wantPattern string
		wantParams  map[string]string
		wantErr     bool
	}{
		{"collection", "/books", "Book", "/books", map[string]string{}, false},
		{"item", "/books/01ARZ3NDEKTSV4RRFFQ69G5FAV", "Book", "/books/{id}", map[string]string{"id": "01ARZ3NDEKTSV4RRFFQ69G5FAV"}, false},
		{"absolute url", "http://localhost/books/1?x=y#frag", "Book", "/books/{id}", map[string]string{"id": "1"}, false},
		{"regexp pattern", "/authors/01ARZ", "Author", "/authors/{id:[0-9A-Z]+}", map[string]string{"id": "01ARZ"}, false},
		{"nested", "/books/1/chapters/2", "Chapter", "/books/{bookId}/chapters/{id}", map[string]string{"bookId": "1", "id": "2"}, false},
		{"regexp mismatch", "/authors/lower", "", "", nil, true},
		{"unknown path", "/unknown/1", "", "", nil, true},
		{"non resource route", "/health", "", "", nil, true},
		{"empty", "", "", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := rt.Match(tt.iri)
			if tt.wantErr {
				if !errors.Is(err, ErrResourceNotFound) {
					t.Fatalf("expected ErrResourceNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if route.ResourceClass != tt.wantClass {
				t.Errorf("class: got %q, want %q", route.ResourceClass, tt.wantClass)
			}
			if route.Pattern != tt.wantPattern {
				t.Errorf("pattern: got %q, want %q", route.Pattern, tt.wantPattern)
			}
			if route.Operation.Method != http.MethodGet {
				t.Errorf("operation method: got %q, want GET", route.Operation.Method)
			}
			if len(route.Params) != len(tt.wantParams) {
				t.Fatalf("params: got %v, want %v", route.Params, tt.wantParams)
			}
			for k, v := range tt.wantParams {
				if route.Params[k] != v {
					t.Errorf("param %s: got %q, want %q", k, route.Params[k], v)
				}
			}
		})
	}
}

func TestRouterIRI(t *testing.T) {
	rt := newTestRouter(t)

	tests := []struct {
		name    string
		class   string
		opts    []IRIOption
		want    string
		wantErr bool
	}{
		{"collection", "Book", nil, "/books", false},
		{"with id", "Book", []IRIOption{WithID("42")}, "/books/42", false},
		{"escaped id", "Book", []IRIOption{WithID("a b")}, "/books/a%20b", false},
		{"named operation", "Book", []IRIOption{WithOperation("get"), WithParams(map[string]string{"id": "7"})}, "/books/7", false},
		{"missing param", "Book", []IRIOption{WithOperation("get")}, "", true},
		{"unknown operation", "Book", []IRIOption{WithOperation("archive")}, "", true},
		{"no collection", "Chapter", nil, "", true},
		{"unknown class", "Shelf", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rt.IRI(tt.class, tt.opts...)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouterIRIFromResource(t *testing.T) {
	rt := newTestRouter(t)

	got, err := rt.IRIFromResource(book{id: "01ARZ3NDEKTSV4RRFFQ69G5FAV"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/books/01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Errorf("got %q", got)
	}

	got, err = rt.IRIFromResource(chapter{bookID: "1", number: "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/books/1/chapters/3" {
		t.Errorf("got %q", got)
	}

	// the generated IRI must resolve back to the resource class
	route, err := rt.Match(got)
	if err != nil {
		t.Fatalf("Match(%q): %v", got, err)
	}
	if route.ResourceClass != "Chapter" {
		t.Errorf("round trip class: got %q", route.ResourceClass)
	}

	if _, err := rt.IRIFromResource(nil); err == nil {
		t.Error("expected error for nil resource")
	}
}

func TestRouterRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		class string
		op    Operation
	}{
		{"empty class", "", Get("/things/{id}")},
		{"no method", "Thing", Operation{Name: "get", URITemplate: "/things"}},
		{"relative template", "Thing", Get("things/{id}")},
		{"trailing slash", "Thing", Get("/things/")},
		{"duplicate route", "Book", Get("/books/{id}")},
		{"template owned by another class", "Thing", Put("/books/{id}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newTestRouter(t)
			if err := rt.Register(tt.class, tt.op); err == nil {
				t.Errorf("expected error registering %s %s", tt.op.Method, tt.op.URITemplate)
			}
		})
	}
}

func TestRouterResources(t *testing.T) {
	rt := newTestRouter(t)
	want := []string{"Author", "Book", "Chapter"}
	if got := rt.Resources(); !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := len(rt.Operations("Book")); got != 5 {
		t.Errorf("Book operations: got %d, want 5", got)
	}
}

func TestRouterHandleSetsRoute(t *testing.T) {
	rt := NewRouter()

	var got *Route
	err := rt.Handle("Book", Get("/books/{id}"), func(w http.ResponseWriter, r *http.Request) {
		got, _ = RouteFromContext(r.Context())
		RespondWithJSONLD(w, http.StatusOK, map[string]string{"@id": r.URL.Path})
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/9", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/ld+json; charset=utf-8" {
		t.Errorf("content type: got %q", ct)
	}
	if got == nil {
		t.Fatal("route not set on request context")
	}
	if got.ResourceClass != "Book" || got.Operation.Name != "get" || got.Params["id"] != "9" {
		t.Errorf("unexpected route: %+v", got)
	}

	// metadata-only routes answer 501
	if err := rt.Register("Author", Get("/authors/{id}")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	rec = httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/authors/1", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", rec.Code)
	}
}

func TestIRIFromJSON(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   string
		wantOK bool
	}{
		{"string", "/books/1", "/books/1", true},
		{"embedded", map[string]any{"@id": "/authors/2", "name": "x"}, "/authors/2", true},
		{"embedded without id", map[string]any{"name": "x"}, "", false},
		{"nil", nil, "", false},
		{"number", 1.0, "", false},
	}
	for _, tt := range tests {
		got, ok := IRIFromJSON(tt.value)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("%s: got (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}
