// Package integration contains end-to-end tests for the bookstore API, written with apitest.
//
// Most tests call the API in-process through an apitest.Client bound to the server handler;
// the JWKS tests start the server on a free port so a second server can fetch its keys.
// Each test gets a new server with an empty store.
//
// These tests assume the hydra, auth and crypto packages are working correctly (tested separately).
// If bugs are introduced in lower-level packages, there will be cascading failures here -
// fix the low-level problems first.
//
//	go test -tags=integration ./test/integration
package integration
