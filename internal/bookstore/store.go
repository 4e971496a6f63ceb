package bookstore

import (
	"cmp"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNotFound    = errors.New("resource not found")
	ErrAuthorInUse = errors.New("author has books")
)

// Store keeps books and authors in memory. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	books   map[ulid.ULID]*Book
	authors map[ulid.ULID]*Author
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		books:   make(map[ulid.ULID]*Book),
		authors: make(map[ulid.ULID]*Author),
		now:     time.Now,
	}
}

// Books returns all books ordered by id (creation order).
func (s *Store) Books() []*Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]*Book, 0, len(s.books))
	for _, b := range s.books {
		c := *b
		books = append(books, &c)
	}
	slices.SortFunc(books, func(a, b *Book) int { return a.ID.Compare(b.ID) })
	return books
}

// Book returns a copy of the book with the id.
func (s *Store) Book(id ulid.ULID) (*Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *b
	return &c, nil
}

// CreateBook assigns an id and stores the book.
// The author, when set, must exist.
func (s *Store) CreateBook(b *Book) (*Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Author != nil {
		if _, ok := s.authors[*b.Author]; !ok {
			return nil, ErrNotFound
		}
	}

	now := s.now().UTC()
	c := *b
	c.ID = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	c.CreatedAt = now
	c.UpdatedAt = now
	s.books[c.ID] = &c

	out := c
	return &out, nil
}

// UpdateBook replaces the stored book with the same id.
func (s *Store) UpdateBook(b *Book) (*Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.books[b.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Author != nil {
		if _, ok := s.authors[*b.Author]; !ok {
			return nil, ErrNotFound
		}
	}

	c := *b
	c.CreatedAt = existing.CreatedAt
	c.CreatedBy = existing.CreatedBy
	c.UpdatedAt = s.now().UTC()
	s.books[c.ID] = &c

	out := c
	return &out, nil
}

func (s *Store) DeleteBook(id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return ErrNotFound
	}
	delete(s.books, id)
	return nil
}

// Authors returns all authors ordered by name, then id.
func (s *Store) Authors() []*Author {
	s.mu.RLock()
	defer s.mu.RUnlock()

	authors := make([]*Author, 0, len(s.authors))
	for _, a := range s.authors {
		c := *a
		authors = append(authors, &c)
	}
	slices.SortFunc(authors, func(a, b *Author) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), a.ID.Compare(b.ID))
	})
	return authors
}

func (s *Store) Author(id ulid.ULID) (*Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.authors[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *a
	return &c, nil
}

func (s *Store) CreateAuthor(a *Author) (*Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	c := *a
	c.ID = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	c.CreatedAt = now
	s.authors[c.ID] = &c

	out := c
	return &out, nil
}

// DeleteAuthor removes an author. Authors referenced by a book cannot be deleted.
func (s *Store) DeleteAuthor(id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.authors[id]; !ok {
		return ErrNotFound
	}
	for _, b := range s.books {
		if b.Author != nil && *b.Author == id {
			return ErrAuthorInUse
		}
	}
	delete(s.authors, id)
	return nil
}
