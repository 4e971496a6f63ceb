// jws.go - Functions for signing and verifying JWS (JSON Web Signature) in compact serialization.
// Session tokens are compact JWS strings signed with EdDSA (Ed25519 keys) or RS256 (RSA keys)
// using github.com/go-jose/go-jose/v4.
package crypto

import (
	"bytes"
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v4"
)

// JWSHeader represents the protected header of a JWS token
type JWSHeader struct {
	Algorithm string `json:"alg"`           // "EdDSA/RS256"
	KeyID     string `json:"kid"`           // Key ID
	Type      string `json:"typ,omitempty"` // "JWT" for session tokens
}

var supportedAlgorithms = []jose.SignatureAlgorithm{jose.EdDSA, jose.RS256}

func joseAlgorithm(key any) (jose.SignatureAlgorithm, error) {
	switch key.(type) {
	case ed25519.PrivateKey, ed25519.PublicKey:
		return jose.EdDSA, nil
	case *rsa.PrivateKey, *rsa.PublicKey:
		return jose.RS256, nil
	default:
		return "", NewValidationError(fmt.Sprintf("unsupported key type %T (expected Ed25519 or RSA)", key))
	}
}

// Sign returns a JWS Compact Serialization (Base64URL) string.
// The algorithm is chosen from the key type and the kid and typ=JWT headers are set.
func Sign(payload []byte, privateKey crypto.Signer, keyID string) (string, error) {
	if keyID == "" {
		return "", NewValidationError("keyID is required")
	}
	if privateKey == nil {
		return "", NewValidationError("private key is nil")
	}

	alg, err := joseAlgorithm(privateKey)
	if err != nil {
		return "", err
	}

	signingKey := jose.SigningKey{Algorithm: alg, Key: privateKey}

	opts := (&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", keyID)

	signer, err := jose.NewSigner(signingKey, opts)
	if err != nil {
		return "", WrapInternalError(err, "failed to create signer")
	}

	jws, err := signer.Sign(payload)
	if err != nil {
		return "", WrapSignatureError(err, "failed to sign payload")
	}

	jwsCompactSerialize, err := jws.CompactSerialize()
	if err != nil {
		return "", WrapInternalError(err, "failed to serialize JWS")
	}

	return jwsCompactSerialize, nil
}

// Verify verifies a compact JWS signature with an Ed25519 or RSA public key and returns the payload
func Verify(jwsString string, publicKey crypto.PublicKey) ([]byte, error) {
	alg, err := joseAlgorithm(publicKey)
	if err != nil {
		return nil, err
	}

	jws, err := jose.ParseSigned(jwsString, []jose.SignatureAlgorithm{alg})
	if err != nil {
		return nil, WrapSignatureError(err, "failed to parse JWS")
	}

	payload, err := jws.Verify(publicKey)
	if err != nil {
		return nil, WrapSignatureError(err, "failed to verify JWS")
	}

	return payload, nil
}

// ParseHeader extracts the protected header from a JWS without verifying it.
// Unknown header fields are rejected.
func ParseHeader(jwsString string) (JWSHeader, error) {

	// the structure of the jws is Base64URL(Header).Base64URL(Payload).Base64URL(Signature)
	parts := strings.Split(jwsString, ".")
	if len(parts) != 3 {
		return JWSHeader{}, NewValidationError("invalid JWS format")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return JWSHeader{}, WrapValidationError(err, "error decoding the header")
	}

	var header JWSHeader

	decoder := json.NewDecoder(bytes.NewReader(headerBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&header); err != nil {
		return JWSHeader{}, WrapValidationError(err, "could not unmarshal header")
	}

	// Validate required fields are present
	if header.Algorithm == "" {
		return JWSHeader{}, NewValidationError("missing required field: alg")
	}
	if header.KeyID == "" {
		return JWSHeader{}, NewValidationError("missing required field: kid")
	}

	supported := false
	for _, a := range supportedAlgorithms {
		if string(a) == header.Algorithm {
			supported = true
		}
	}
	if !supported {
		return JWSHeader{}, NewValidationError(fmt.Sprintf("unsupported algorithm: %s", header.Algorithm))
	}

	return header, nil
}
