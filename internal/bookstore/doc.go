// Package bookstore is the domain of the demo API: books and their authors.
//
// Resources are identified by ULIDs and kept in an in-memory Store.
// Validate* functions return the violations reported to clients in 422 responses.
package bookstore
