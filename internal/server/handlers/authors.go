package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/information-sharing-networks/apitest/hydra"
	"github.com/information-sharing-networks/apitest/internal/bookstore"
	"github.com/information-sharing-networks/apitest/internal/logger"
)

// AuthorHandler handles the operations of the Author resource
type AuthorHandler struct {
	store  *bookstore.Store
	router *hydra.Router
}

func NewAuthorHandler(store *bookstore.Store, router *hydra.Router) *AuthorHandler {
	return &AuthorHandler{store: store, router: router}
}

// HandleList returns all authors ordered by name (GET /authors)
func (h *AuthorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	authors := h.store.Authors()

	members := make([]any, 0, len(authors))
	for _, a := range authors {
		doc, err := newAuthorDocument(h.router, a, false)
		if err != nil {
			hydra.RespondWithErrorResponse(w, r, hydra.WrapInternalError(err, "failed to generate author IRI"))
			return
		}
		members = append(members, doc)
	}

	hydra.RespondWithJSONLD(w, http.StatusOK, hydra.NewCollection(bookstore.ClassAuthor, r.URL.Path, members))
}

// HandleGet returns an author (GET /authors/{id})
func (h *AuthorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	author, err := h.store.Author(id)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, authorStoreError(err))
		return
	}
	h.respond(w, r, http.StatusOK, author)
}

// HandleCreate creates an author (POST /authors)
func (h *AuthorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := requireContentType(r, hydra.ContentTypeJSONLD, "application/json"); err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	fields, err := decodeObject(r)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	name, err := stringAttribute(fields, "name")
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}

	author := &bookstore.Author{}
	if name != nil {
		author.Name = *name
	}
	if violations := bookstore.ValidateAuthor(author); len(violations) > 0 {
		hydra.RespondWithErrorResponse(w, r, hydra.NewValidationError(violations...))
		return
	}

	created, err := h.store.CreateAuthor(author)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, authorStoreError(err))
		return
	}

	logger.ContextRequestLogger(r.Context()).Info("author created", slog.String("id", created.ID.String()))
	h.respond(w, r, http.StatusCreated, created)
}

// HandleDelete removes an author (DELETE /authors/{id}).
// Authors with books cannot be deleted.
func (h *AuthorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	if err := h.store.DeleteAuthor(id); err != nil {
		hydra.RespondWithErrorResponse(w, r, authorStoreError(err))
		return
	}
	hydra.RespondWithStatusCodeOnly(w, http.StatusNoContent)
}

func (h *AuthorHandler) respond(w http.ResponseWriter, r *http.Request, status int, author *bookstore.Author) {
	doc, err := newAuthorDocument(h.router, author, true)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, hydra.WrapInternalError(err, "failed to generate author IRI"))
		return
	}
	if status == http.StatusCreated {
		w.Header().Set("Location", doc.IRI)
	}
	w.Header().Set("Content-Location", doc.IRI)
	hydra.RespondWithJSONLD(w, status, doc)
}

func authorStoreError(err error) error {
	switch {
	case errors.Is(err, bookstore.ErrNotFound):
		return hydra.NewNotFoundError("Not Found")
	case errors.Is(err, bookstore.ErrAuthorInUse):
		return hydra.NewConflictError("The author cannot be deleted while books reference it.")
	default:
		return hydra.WrapInternalError(err, "author store error")
	}
}
