// auth package issues and verifies the session tokens used by the bookstore API and by apitest.Client.As.
//
// A session token is a compact JWS (EdDSA or RS256) whose payload is the canonical JSON of Claims.
// Browsers receive it split in two cookies:
//   - jwt_hp: the header and payload ("<header>.<payload>"), readable by scripts
//   - jwt_s: the signature, sent HttpOnly
//
// Middleware joins the cookies (or reads an "Authorization: Bearer" header), verifies the token
// with a KeySet and stores the Claims in the request context.
//
// Key sets:
//   - StaticKeySet: keys known in advance (the server's own signing key, tests)
//   - RemoteKeySet: keys fetched from a JWKS endpoint and refreshed in the background (jwk.Cache)
package auth
