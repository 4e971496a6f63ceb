// JWK (JSON Web Key) helpers
//
// these functions convert raw RSA/Ed25519 keys to JWK format (and back).
// Reference: https://datatracker.ietf.org/doc/html/rfc7517 (JSON Web Key standard)
//
// they are used by the keygen CLI to write signing keys, by auth to publish
// the verification keys at /.well-known/jwks.json and by the remote key set
// to turn fetched JWKs back into native keys for signature verification.

package crypto

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// signatureAlgorithm returns the JWA algorithm used with the key type.
// Ed25519 keys sign with EdDSA, RSA keys with RS256.
func signatureAlgorithm(key any) (jwa.SignatureAlgorithm, error) {
	var none jwa.SignatureAlgorithm

	switch k := key.(type) {
	case ed25519.PublicKey, ed25519.PrivateKey:
		return jwa.EdDSA(), nil
	case *rsa.PublicKey:
		if k == nil {
			return none, fmt.Errorf("public key is nil")
		}
		return jwa.RS256(), nil
	case *rsa.PrivateKey:
		if k == nil {
			return none, fmt.Errorf("private key is nil")
		}
		return jwa.RS256(), nil
	default:
		return none, fmt.Errorf("unsupported key type %T (expected Ed25519 or RSA)", key)
	}
}

// PublicKeyToJWK converts an Ed25519 or RSA public key to JWK format.
// The kid, alg and use (sig) parameters are set on the returned key.
func PublicKeyToJWK(publicKey crypto.PublicKey, keyID string) (jwk.Key, error) {
	if publicKey == nil {
		return nil, NewValidationError("public key is nil")
	}
	if pk, ok := publicKey.(ed25519.PublicKey); ok && len(pk) != ed25519.PublicKeySize {
		return nil, NewValidationError("invalid Ed25519 public key length")
	}
	return toJWK(publicKey, keyID)
}

// PrivateKeyToJWK converts an Ed25519 or RSA private key to JWK format.
func PrivateKeyToJWK(privateKey crypto.Signer, keyID string) (jwk.Key, error) {
	if privateKey == nil {
		return nil, NewValidationError("private key is nil")
	}
	if pk, ok := privateKey.(ed25519.PrivateKey); ok && len(pk) != ed25519.PrivateKeySize {
		return nil, NewValidationError("invalid Ed25519 private key length")
	}
	return toJWK(privateKey, keyID)
}

func toJWK(raw any, keyID string) (jwk.Key, error) {
	if keyID == "" {
		return nil, NewValidationError("keyID is required")
	}

	alg, err := signatureAlgorithm(raw)
	if err != nil {
		return nil, WrapValidationError(err, "cannot convert key")
	}

	key, err := jwk.Import(raw)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to create JWK")
	}

	// Set key ID
	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, WrapInternalError(err, "failed to set key ID")
	}

	// Set algorithm
	if err := key.Set(jwk.AlgorithmKey, alg); err != nil {
		return nil, WrapInternalError(err, "failed to set algorithm")
	}

	// Set key usage
	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, WrapInternalError(err, "failed to set key usage")
	}

	return key, nil
}

// JWKToPublicKey converts a JWK to a native Ed25519 or RSA public key.
// Private JWKs are accepted; only the public half is returned.
func JWKToPublicKey(key jwk.Key) (crypto.PublicKey, error) {
	if key == nil {
		return nil, NewValidationError("jwk is nil")
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, WrapKeyManagementError(err, "failed to export JWK")
	}

	switch k := raw.(type) {
	case ed25519.PublicKey:
		return k, nil
	case ed25519.PrivateKey:
		return k.Public(), nil
	case *rsa.PublicKey:
		return k, nil
	case *rsa.PrivateKey:
		return &k.PublicKey, nil
	default:
		alg, _ := key.Algorithm()
		return nil, NewKeyManagementError(fmt.Sprintf("unsupported key with algorithm %v and type %T", alg, raw))
	}
}

// GenerateKeyID generates a key ID from a public key using its SHA-256 thumbprint (RFC 7638).
// Returns the first 16 characters of the hex-encoded thumbprint.
func GenerateKeyID(publicKey crypto.PublicKey) (string, error) {
	if publicKey == nil {
		return "", NewValidationError("public key is nil")
	}
	if _, err := signatureAlgorithm(publicKey); err != nil {
		return "", WrapValidationError(err, "cannot generate key ID")
	}

	// Import to JWK to calculate thumbprint
	jwkKey, err := jwk.Import(publicKey)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to import key")
	}

	thumbprint, err := jwkKey.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", WrapInternalError(err, "failed to generate thumbprint")
	}

	return fmt.Sprintf("%x", thumbprint)[:16], nil
}

// NewJWKSet returns a JWK set containing the supplied keys.
func NewJWKSet(keys ...jwk.Key) (jwk.Set, error) {
	set := jwk.NewSet()
	for _, k := range keys {
		if err := set.AddKey(k); err != nil {
			return nil, WrapInternalError(err, "failed to add key to set")
		}
	}
	return set, nil
}
