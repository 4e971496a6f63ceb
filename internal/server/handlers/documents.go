package handlers

// documents.go - JSON-LD representations of the bookstore resources and request body decoding

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/information-sharing-networks/apitest/hydra"
	"github.com/information-sharing-networks/apitest/internal/bookstore"
)

type BookDocument struct {
	Context   string    `json:"@context,omitempty"`
	IRI       string    `json:"@id"`
	Type      string    `json:"@type"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ISBN      *string   `json:"isbn"`
	Author    *string   `json:"author"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AuthorDocument struct {
	Context   string    `json:"@context,omitempty"`
	IRI       string    `json:"@id"`
	Type      string    `json:"@type"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserDocument is the representation of the authenticated user (GET /me)
type UserDocument struct {
	Context  string   `json:"@context"`
	IRI      string   `json:"@id"`
	Type     string   `json:"@type"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// newBookDocument returns the representation of b. Collection members are sent without @context.
func newBookDocument(rt *hydra.Router, b *bookstore.Book, withContext bool) (*BookDocument, error) {
	iri, err := rt.IRIFromResource(b)
	if err != nil {
		return nil, err
	}

	doc := &BookDocument{
		IRI:       iri,
		Type:      bookstore.ClassBook,
		ID:        b.ID.String(),
		Title:     b.Title,
		CreatedBy: b.CreatedBy,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if withContext {
		doc.Context = "/contexts/" + bookstore.ClassBook
	}
	if b.ISBN != "" {
		isbn := b.ISBN
		doc.ISBN = &isbn
	}
	if b.Author != nil {
		authorIRI, err := rt.IRIFromResource(&bookstore.Author{ID: *b.Author})
		if err != nil {
			return nil, err
		}
		doc.Author = &authorIRI
	}
	return doc, nil
}

func newAuthorDocument(rt *hydra.Router, a *bookstore.Author, withContext bool) (*AuthorDocument, error) {
	iri, err := rt.IRIFromResource(a)
	if err != nil {
		return nil, err
	}

	doc := &AuthorDocument{
		IRI:       iri,
		Type:      bookstore.ClassAuthor,
		ID:        a.ID.String(),
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
	}
	if withContext {
		doc.Context = "/contexts/" + bookstore.ClassAuthor
	}
	return doc, nil
}

// requireContentType checks the media type of the request body against the accepted ones.
func requireContentType(r *http.Request, accepted ...string) error {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && slices.Contains(accepted, mediaType) {
		return nil
	}

	quoted := make([]string, len(accepted))
	for i, a := range accepted {
		quoted[i] = strconv.Quote(a)
	}
	return hydra.NewUnsupportedMediaTypeError(
		fmt.Sprintf("The content-type %q is not supported. Supported MIME types are %s.", contentType, strings.Join(quoted, ", ")),
	)
}

// decodeObject reads a JSON object body, keeping the raw value of each attribute
// so absent and null attributes can be told apart.
func decodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage

	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, hydra.NewRequestTooLargeError(
				fmt.Sprintf("Request body exceeds maximum allowed size (%d bytes)", maxBytesErr.Limit),
			)
		}
		return nil, hydra.WrapMalformedRequestError(err, "Syntax error")
	}
	if fields == nil {
		return nil, hydra.NewMalformedRequestError("The request body must be a JSON object.")
	}
	return fields, nil
}

// stringAttribute decodes an optional string attribute. null is decoded as the empty string.
func stringAttribute(fields map[string]json.RawMessage, name string) (*string, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, nil
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, hydra.NewMalformedRequestError(fmt.Sprintf("The type of the %q attribute must be \"string\".", name))
	}
	if v == nil {
		empty := ""
		return &empty, nil
	}
	return v, nil
}

// decodeBookInput reads the writable attributes of a book.
// The author is given as an IRI and resolved through the router.
func decodeBookInput(r *http.Request, rt *hydra.Router, store *bookstore.Store) (bookstore.BookInput, error) {
	var in bookstore.BookInput

	fields, err := decodeObject(r)
	if err != nil {
		return in, err
	}

	if in.Title, err = stringAttribute(fields, "title"); err != nil {
		return in, err
	}
	if in.ISBN, err = stringAttribute(fields, "isbn"); err != nil {
		return in, err
	}

	raw, ok := fields["author"]
	if !ok {
		return in, nil
	}
	var iri *string
	if err := json.Unmarshal(raw, &iri); err != nil {
		return in, hydra.NewMalformedRequestError(`The type of the "author" attribute must be "string" or "null".`)
	}
	if iri == nil {
		in.ClearAuthor = true
		return in, nil
	}

	id, err := resolveAuthor(rt, store, *iri)
	if err != nil {
		return in, err
	}
	in.Author = &id
	return in, nil
}

// resolveAuthor returns the id of the author identified by iri.
func resolveAuthor(rt *hydra.Router, store *bookstore.Store, iri string) (ulid.ULID, error) {
	route, err := rt.Match(iri)
	if err != nil || route.ResourceClass != bookstore.ClassAuthor {
		return ulid.ULID{}, hydra.NewMalformedRequestError(fmt.Sprintf("Invalid IRI %q.", iri))
	}

	id, err := ulid.ParseStrict(route.Params["id"])
	if err != nil {
		return ulid.ULID{}, hydra.NewMalformedRequestError(fmt.Sprintf("Item not found for %q.", iri))
	}
	if _, err := store.Author(id); err != nil {
		return ulid.ULID{}, hydra.NewMalformedRequestError(fmt.Sprintf("Item not found for %q.", iri))
	}
	return id, nil
}

// itemID parses the {id} of an item route. Ids that are not ULIDs cannot exist.
func itemID(r *http.Request) (ulid.ULID, error) {
	route, ok := hydra.RouteFromContext(r.Context())
	if !ok {
		return ulid.ULID{}, hydra.NewNotFoundError("Not Found")
	}
	id, err := ulid.ParseStrict(route.Params["id"])
	if err != nil {
		return ulid.ULID{}, hydra.NewNotFoundError("Not Found")
	}
	return id, nil
}
