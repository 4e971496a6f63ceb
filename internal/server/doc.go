// Package server provides the HTTP server of the bookstore demo API.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// Resource routes (books, authors) are registered on a hydra.Router so the
// same route table serves requests and resolves IRIs. The server also
// serves the infrastructure endpoints (health, version, jwks) and /me.
//
// middleware is in internal/server/middleware
package server
