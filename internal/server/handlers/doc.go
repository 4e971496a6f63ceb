// Package handlers provides the HTTP handlers of the bookstore API:
// the Book and Author resource operations, the current user (/me) and the
// infrastructure endpoints (health, version, jwks).
//
// Resource handlers are registered on a hydra.Router by the server package
// and respond with JSON-LD documents; errors are sent as Hydra error documents.
package handlers
