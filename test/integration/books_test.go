//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/information-sharing-networks/apitest/apitest"
)

func mustJSON(t *testing.T, resp *apitest.Response, err error) map[string]any {
	t.Helper()
	require.NoError(t, err)
	doc, err := resp.JSON()
	require.NoError(t, err, resp.Content())
	return doc
}

func createAuthor(t *testing.T, client *apitest.Client, name string) string {
	t.Helper()
	resp, err := client.Post("/authors", map[string]any{"name": name})
	require.NoError(t, err)
	client.Expect(t, resp).ToHaveStatusCode(http.StatusCreated)

	iri, err := resp.Get("@id")
	require.NoError(t, err)
	return iri.(string)
}

func TestBookLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.as(t, "alice")

	authorIRI := createAuthor(t, alice, "Frank Herbert")

	// create
	resp, err := alice.Post("/books", map[string]any{
		"title":  "Dune",
		"isbn":   "978-0-441-01359-3",
		"author": authorIRI,
	})
	require.NoError(t, err)
	alice.Expect(t, resp).ToHaveStatusCode(http.StatusCreated).ToHaveHydraType("Book")
	assert.Equal(t, "application/ld+json", resp.ContentType())

	book := mustJSON(t, resp, err)
	alice.Expect(t, book["id"]).ToBeULIDString()
	alice.Expect(t, book["@id"]).ToHaveRelation("Book")
	alice.Expect(t, book["author"]).ToHaveRelation("Author").ToHaveRelation(authorIRI)
	assert.Equal(t, "alice", book["createdBy"])
	assert.Equal(t, book["@id"], resp.Header("Location"))

	iri := book["@id"].(string)

	// read (anonymous)
	resp, err = env.client.Get(iri)
	require.NoError(t, err)
	env.client.Expect(t, resp).ToHaveStatusCode(http.StatusOK)
	env.client.Expect(t, resp.Content()).ToMatchJSON(map[string]any{
		"@context":  "/contexts/Book",
		"@id":       iri,
		"@type":     "Book",
		"id":        book["id"],
		"title":     "Dune",
		"isbn":      "978-0-441-01359-3",
		"author":    authorIRI,
		"createdBy": "alice",
		"createdAt": book["createdAt"],
		"updatedAt": book["updatedAt"],
	})

	// merge patch
	resp, err = alice.Patch(iri, map[string]any{"author": nil})
	require.NoError(t, err)
	alice.Expect(t, resp).ToHaveStatusCode(http.StatusOK)
	patched := mustJSON(t, resp, err)
	alice.Expect(t, patched["author"]).ToHaveNullableRelation("Author")
	assert.Equal(t, "Dune", patched["title"])

	// replace
	resp, err = alice.Put(iri, map[string]any{"title": "Dune (1965)"})
	require.NoError(t, err)
	alice.Expect(t, resp).ToHaveStatusCode(http.StatusOK)
	replaced := mustJSON(t, resp, err)
	assert.Nil(t, replaced["isbn"])

	// collection
	resp, err = env.client.Get("/books")
	require.NoError(t, err)
	env.client.Expect(t, resp).ToHaveStatusCode(http.StatusOK).ToHaveHydraType("hydra:Collection").ToHaveTotalItems(1)
	items, err := resp.Items()
	require.NoError(t, err)
	env.client.Expect(t, items[0].(map[string]any)["@id"]).ToHaveRelation(iri)

	// delete
	resp, err = alice.Delete(iri)
	require.NoError(t, err)
	alice.Expect(t, resp).ToHaveStatusCode(http.StatusNoContent)

	resp, err = env.client.Get(iri)
	require.NoError(t, err)
	env.client.Expect(t, resp).ToHaveStatusCode(http.StatusNotFound).ToHaveHydraType("hydra:Error")
}

func TestBookValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.as(t, "alice")

	tests := []struct {
		name    string
		body    map[string]any
		path    string
		message string
	}{
		{"missing title", map[string]any{}, "title", "This value should not be blank."},
		{"blank title", map[string]any{"title": "   "}, "title", "This value should not be blank."},
		{"invalid isbn", map[string]any{"title": "Dune", "isbn": "978-0-441-01359-4"}, "isbn", "This value is neither a valid ISBN-10 nor a valid ISBN-13."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := alice.Post("/books", tt.body)
			require.NoError(t, err)
			alice.Expect(t, resp).
				ToHaveHydraType("ConstraintViolationList").
				ToHaveViolation(tt.path).
				ToHaveViolationMessage(tt.path, tt.message)
		})
	}
}

func TestBookAuthorRelationErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.as(t, "alice")

	for _, author := range []string{"/books/01ARZ3NDEKTSV4RRFFQ69G5FAV", "/authors/01ARZ3NDEKTSV4RRFFQ69G5FAV", "/health"} {
		resp, err := alice.Post("/books", map[string]any{"title": "Dune", "author": author})
		require.NoError(t, err)
		alice.Expect(t, resp).ToHaveStatusCode(http.StatusBadRequest).ToHaveHydraType("hydra:Error")
	}
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name       string
		client     *apitest.Client
		send       func(c *apitest.Client) (*apitest.Response, error)
		wantStatus int
	}{
		{
			name:       "anonymous read",
			client:     env.client,
			send:       func(c *apitest.Client) (*apitest.Response, error) { return c.Get("/books") },
			wantStatus: http.StatusOK,
		},
		{
			name:       "anonymous write",
			client:     env.client,
			send:       func(c *apitest.Client) (*apitest.Response, error) { return c.Post("/books", map[string]any{"title": "Dune"}) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "anonymous me",
			client:     env.client,
			send:       func(c *apitest.Client) (*apitest.Response, error) { return c.Get("/me") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "forged bearer token",
			client:     env.client,
			send:       func(c *apitest.Client) (*apitest.Response, error) { return c.Get("/books", apitest.AuthBearer("e30.e30.c2ln")) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "user me",
			client:     env.as(t, "alice"),
			send:       func(c *apitest.Client) (*apitest.Response, error) { return c.Get("/me") },
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.send(tt.client)
			require.NoError(t, err)
			tt.client.Expect(t, resp).ToHaveStatusCode(tt.wantStatus)
		})
	}
}

func TestAuthorDeletionRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.as(t, "alice")
	admin := env.as(t, "root", "ROLE_ADMIN")

	herbert := createAuthor(t, alice, "Frank Herbert")
	asimov := createAuthor(t, alice, "Isaac Asimov")

	resp, err := alice.Post("/books", map[string]any{"title": "Dune", "author": herbert})
	require.NoError(t, err)
	alice.Expect(t, resp).ToHaveStatusCode(http.StatusCreated)

	resp, err = alice.Delete(asimov)
	require.NoError(t, err)
	alice.Expect(t, resp).ToHaveStatusCode(http.StatusForbidden)

	resp, err = admin.Delete(herbert)
	require.NoError(t, err)
	admin.Expect(t, resp).ToHaveStatusCode(http.StatusConflict)

	resp, err = admin.Delete(asimov)
	require.NoError(t, err)
	admin.Expect(t, resp).ToHaveStatusCode(http.StatusNoContent)

	resp, err = env.client.Get("/authors")
	require.NoError(t, err)
	env.client.Expect(t, resp).ToHaveTotalItems(1)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.as(t, "alice", "ROLE_EDITOR")

	resp, err := alice.Get("/me")
	require.NoError(t, err)
	alice.Expect(t, resp).ToHaveStatusCode(http.StatusOK).ToHaveHydraType("User")
	alice.Expect(t, resp.Content()).ToMatchJSON(`{
		"@context": "/contexts/User",
		"@id": "/me",
		"@type": "User",
		"username": "alice",
		"roles": ["ROLE_EDITOR"]
	}`)
}

// mocked responses replace the application for the next request only
func TestMockedResponses(t *testing.T) {
	env := newTestEnv(t, nil)

	client, err := env.client.MockJSON(http.StatusServiceUnavailable, map[string]any{
		"@type":             "hydra:Error",
		"hydra:description": "Maintenance",
	})
	require.NoError(t, err)

	resp, err := client.Get("/books")
	require.NoError(t, err)
	client.Expect(t, resp).ToHaveStatusCode(http.StatusServiceUnavailable).ToHaveHydraType("hydra:Error")
	assert.Zero(t, client.PendingMocks())

	resp, err = client.Get("/books")
	require.NoError(t, err)
	client.Expect(t, resp).ToHaveStatusCode(http.StatusOK)
}
