package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/information-sharing-networks/apitest/auth"
	"github.com/information-sharing-networks/apitest/hydra"
	"github.com/information-sharing-networks/apitest/internal/bookstore"
	"github.com/information-sharing-networks/apitest/internal/logger"
)

// BookHandler handles the operations of the Book resource
type BookHandler struct {
	store *bookstore.Store

	// router generates the IRIs of books and resolves author IRIs
	router *hydra.Router
}

func NewBookHandler(store *bookstore.Store, router *hydra.Router) *BookHandler {
	return &BookHandler{store: store, router: router}
}

// HandleList returns all books as a hydra:Collection (GET /books)
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	books := h.store.Books()

	members := make([]any, 0, len(books))
	for _, b := range books {
		doc, err := newBookDocument(h.router, b, false)
		if err != nil {
			hydra.RespondWithErrorResponse(w, r, hydra.WrapInternalError(err, "failed to generate book IRI"))
			return
		}
		members = append(members, doc)
	}

	hydra.RespondWithJSONLD(w, http.StatusOK, hydra.NewCollection(bookstore.ClassBook, r.URL.Path, members))
}

// HandleGet returns a book (GET /books/{id})
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	book, err := h.load(r)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, book)
}

// HandleCreate creates a book (POST /books).
// The authenticated user is recorded as the creator.
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	if err := requireContentType(r, hydra.ContentTypeJSONLD, "application/json"); err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	in, err := decodeBookInput(r, h.router, h.store)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}

	book := &bookstore.Book{}
	in.Apply(book)
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		book.CreatedBy = claims.Username
	}

	if violations := bookstore.ValidateBook(book); len(violations) > 0 {
		hydra.RespondWithErrorResponse(w, r, hydra.NewValidationError(violations...))
		return
	}

	created, err := h.store.CreateBook(book)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, h.storeError(err))
		return
	}

	reqLogger.Info("book created",
		slog.String("id", created.ID.String()),
		slog.String("created_by", created.CreatedBy),
	)
	h.respond(w, r, http.StatusCreated, created)
}

// HandleReplace replaces a book (PUT /books/{id}). Absent attributes are reset.
func (h *BookHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	if err := requireContentType(r, hydra.ContentTypeJSONLD, "application/json"); err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	existing, err := h.load(r)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	in, err := decodeBookInput(r, h.router, h.store)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}

	book := &bookstore.Book{ID: existing.ID}
	in.Apply(book)
	h.update(w, r, book)
}

// HandlePatch applies a JSON merge patch to a book (PATCH /books/{id})
func (h *BookHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	if err := requireContentType(r, hydra.ContentTypeMergePatch); err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	book, err := h.load(r)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	in, err := decodeBookInput(r, h.router, h.store)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}

	in.Apply(book)
	h.update(w, r, book)
}

// HandleDelete removes a book (DELETE /books/{id})
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, err)
		return
	}
	if err := h.store.DeleteBook(id); err != nil {
		hydra.RespondWithErrorResponse(w, r, h.storeError(err))
		return
	}

	logger.ContextRequestLogger(r.Context()).Info("book deleted", slog.String("id", id.String()))
	hydra.RespondWithStatusCodeOnly(w, http.StatusNoContent)
}

func (h *BookHandler) update(w http.ResponseWriter, r *http.Request, book *bookstore.Book) {
	if violations := bookstore.ValidateBook(book); len(violations) > 0 {
		hydra.RespondWithErrorResponse(w, r, hydra.NewValidationError(violations...))
		return
	}

	updated, err := h.store.UpdateBook(book)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, h.storeError(err))
		return
	}
	h.respond(w, r, http.StatusOK, updated)
}

func (h *BookHandler) load(r *http.Request) (*bookstore.Book, error) {
	id, err := itemID(r)
	if err != nil {
		return nil, err
	}
	book, err := h.store.Book(id)
	if err != nil {
		return nil, h.storeError(err)
	}
	return book, nil
}

func (h *BookHandler) respond(w http.ResponseWriter, r *http.Request, status int, book *bookstore.Book) {
	doc, err := newBookDocument(h.router, book, true)
	if err != nil {
		hydra.RespondWithErrorResponse(w, r, hydra.WrapInternalError(err, "failed to generate book IRI"))
		return
	}
	if status == http.StatusCreated {
		w.Header().Set("Location", doc.IRI)
	}
	w.Header().Set("Content-Location", doc.IRI)
	hydra.RespondWithJSONLD(w, status, doc)
}

// storeError maps store errors to Hydra errors.
// ErrNotFound on create or update means the author was deleted after it was resolved.
func (h *BookHandler) storeError(err error) error {
	if errors.Is(err, bookstore.ErrNotFound) {
		return hydra.NewNotFoundError("Not Found")
	}
	return hydra.WrapInternalError(err, "book store error")
}
