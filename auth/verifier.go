package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apicrypto "github.com/information-sharing-networks/apitest/internal/crypto"
)

var (
	// ErrInvalidToken is returned for tokens that fail parsing or signature verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for tokens past their exp claim.
	ErrTokenExpired = errors.New("token expired")
)

// Verifier checks session tokens.
type Verifier struct {
	keys   KeySet
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithIssuer rejects tokens whose iss claim differs.
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) { v.issuer = issuer }
}

// WithLeeway tolerates clock skew when checking iat and exp.
func WithLeeway(d time.Duration) VerifierOption {
	return func(v *Verifier) { v.leeway = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier returns a Verifier using keys to resolve the kid of each token.
func NewVerifier(keys KeySet, opts ...VerifierOption) *Verifier {
	v := &Verifier{keys: keys, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses and verifies a compact token and returns its claims.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	header, err := apicrypto.ParseHeader(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	key, err := v.keys.Key(ctx, header.KeyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	payload, err := apicrypto.Verify(token, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: could not decode claims: %v", ErrInvalidToken, err)
	}

	if claims.Username == "" {
		return nil, fmt.Errorf("%w: missing username claim", ErrInvalidToken)
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}

	now := v.now()
	if claims.IssuedAt > now.Add(v.leeway).Unix() {
		return nil, fmt.Errorf("%w: token issued in the future", ErrInvalidToken)
	}
	if claims.ExpiresAt <= now.Add(-v.leeway).Unix() {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}
