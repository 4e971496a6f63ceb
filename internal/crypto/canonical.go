// canonical.go - RFC 8785 JSON canonicalization.
// Session token claims are canonicalized before signing, and apitest compares
// JSON documents in canonical form so key order and whitespace do not matter.
package crypto

import (
	"github.com/gowebpki/jcs"
)

// CanonicalizeJSON converts JSON to canonical form per RFC 8785
//
// If the input is not valid JSON, an error is returned (handled by jcs library).
func CanonicalizeJSON(jsonData []byte) ([]byte, error) {
	out, err := jcs.Transform(jsonData)
	if err != nil {
		return nil, WrapValidationError(err, "failed to canonicalize JSON")
	}
	return out, nil
}
