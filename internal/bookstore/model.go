package bookstore

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Resource classes
const (
	ClassBook   = "Book"
	ClassAuthor = "Author"
)

// Author writes books.
type Author struct {
	ID        ulid.ULID
	Name      string
	CreatedAt time.Time
}

func (a *Author) ResourceClass() string { return ClassAuthor }
func (a *Author) ResourceID() string    { return a.ID.String() }

// Book is a book in the catalogue.
type Book struct {
	ID     ulid.ULID
	Title  string
	ISBN   string
	Author *ulid.ULID

	// CreatedBy is the username of the user who created the book
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Book) ResourceClass() string { return ClassBook }
func (b *Book) ResourceID() string    { return b.ID.String() }

// BookInput holds the writable fields of a book.
// nil pointers are absent fields (merge-patch semantics).
type BookInput struct {
	Title  *string
	ISBN   *string
	Author *ulid.ULID

	// ClearAuthor removes the author (an explicit null)
	ClearAuthor bool
}

// Apply copies the present fields of in to b.
func (in BookInput) Apply(b *Book) {
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.ISBN != nil {
		b.ISBN = *in.ISBN
	}
	switch {
	case in.ClearAuthor:
		b.Author = nil
	case in.Author != nil:
		id := *in.Author
		b.Author = &id
	}
}
