package auth

import (
	"crypto"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	apicrypto "github.com/information-sharing-networks/apitest/internal/crypto"
)

const (
	// CookieHeaderPayload holds "<header>.<payload>" of the session token
	CookieHeaderPayload = "jwt_hp"

	// CookieSignature holds the signature of the session token
	CookieSignature = "jwt_s"
)

// ErrMalformedToken is returned when a token is not a three part compact JWS.
var ErrMalformedToken = errors.New("malformed token")

// User is an identity a session token can be issued for.
type User interface {
	UserIdentifier() string
	Roles() []string
}

type basicUser struct {
	identifier string
	roles      []string
}

func (u basicUser) UserIdentifier() string { return u.identifier }
func (u basicUser) Roles() []string        { return u.roles }

// NewUser returns a User with the given identifier and roles.
func NewUser(identifier string, roles ...string) User {
	return basicUser{identifier: identifier, roles: roles}
}

// Claims is the payload of a session token.
type Claims struct {
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	IssuedAt  int64    `json:"iat"`
	ExpiresAt int64    `json:"exp"`
	ID        string   `json:"jti"`
	Issuer    string   `json:"iss,omitempty"`
}

// HasRole reports whether the claims grant the role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// TokenManager creates session tokens for users.
type TokenManager interface {
	Create(user User) (string, error)
}

// Signer is a TokenManager signing tokens with a private key.
type Signer struct {
	key    crypto.Signer
	keyID  string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer for an Ed25519 or RSA private key.
// When keyID is empty it is derived from the public key thumbprint.
func NewSigner(key crypto.Signer, keyID, issuer string, ttl time.Duration) (*Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("signing key is nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	if keyID == "" {
		kid, err := apicrypto.GenerateKeyID(key.Public())
		if err != nil {
			return nil, fmt.Errorf("could not derive key ID: %w", err)
		}
		keyID = kid
	}

	return &Signer{
		key:    key,
		keyID:  keyID,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// KeyID returns the kid header of the tokens issued by the signer.
func (s *Signer) KeyID() string { return s.keyID }

// PublicKey returns the key verifying the tokens issued by the signer.
func (s *Signer) PublicKey() crypto.PublicKey { return s.key.Public() }

// KeySet returns a StaticKeySet holding the signer's public key.
func (s *Signer) KeySet() StaticKeySet {
	return StaticKeySet{s.keyID: s.key.Public()}
}

// Create issues a token for the user.
func (s *Signer) Create(user User) (string, error) {
	if user == nil {
		return "", fmt.Errorf("user is nil")
	}
	if user.UserIdentifier() == "" {
		return "", fmt.Errorf("user identifier is empty")
	}

	roles := user.Roles()
	if roles == nil {
		roles = []string{}
	}

	now := s.now()
	claims := Claims{
		Username:  user.UserIdentifier(),
		Roles:     roles,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("could not encode claims: %w", err)
	}
	payload, err = apicrypto.CanonicalizeJSON(payload)
	if err != nil {
		return "", err
	}

	return apicrypto.Sign(payload, s.key, s.keyID)
}

// SplitToken splits a compact JWS into the header.payload part and the signature.
func SplitToken(token string) (headerPayload, signature string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", ErrMalformedToken
	}
	return parts[0] + "." + parts[1], parts[2], nil
}

// JoinToken is the inverse of SplitToken.
func JoinToken(headerPayload, signature string) (string, error) {
	if strings.Count(headerPayload, ".") != 1 || signature == "" || strings.Contains(signature, ".") {
		return "", ErrMalformedToken
	}
	return headerPayload + "." + signature, nil
}
