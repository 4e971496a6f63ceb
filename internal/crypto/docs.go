// crypto package provides the key handling and signing functions behind session tokens.
//
// these are low level functions - tests normally use auth.Signer (token forging)
// and auth.Verifier (token verification) rather than calling them directly.
package crypto
