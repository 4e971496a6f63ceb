package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestVerifier(t *testing.T) {
	signer := newTestSigner(t, "bookstore", time.Hour)
	other := newTestSigner(t, "bookstore", time.Hour)

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }
	other.now = func() time.Time { return issued }

	token, err := signer.Create(NewUser("alice", "ROLE_USER"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	foreign, err := other.Create(NewUser("mallory"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// same kid as signer, different key
	forged := StaticKeySet{signer.KeyID(): other.PublicKey()}

	tests := []struct {
		name    string
		keys    KeySet
		token   string
		opts    []VerifierOption
		wantErr error
	}{
		{"valid", signer.KeySet(), token, []VerifierOption{WithClock(func() time.Time { return issued.Add(time.Minute) })}, nil},
		{"expired", signer.KeySet(), token, []VerifierOption{WithClock(func() time.Time { return issued.Add(2 * time.Hour) })}, ErrTokenExpired},
		{"expired within leeway", signer.KeySet(), token, []VerifierOption{WithLeeway(time.Minute), WithClock(func() time.Time { return issued.Add(time.Hour + 30*time.Second) })}, nil},
		{"issued in the future", signer.KeySet(), token, []VerifierOption{WithClock(func() time.Time { return issued.Add(-time.Hour) })}, ErrInvalidToken},
		{"wrong issuer", signer.KeySet(), token, []VerifierOption{WithIssuer("elsewhere"), WithClock(func() time.Time { return issued })}, ErrInvalidToken},
		{"unknown kid", signer.KeySet(), foreign, []VerifierOption{WithClock(func() time.Time { return issued })}, ErrUnknownKey},
		{"bad signature", forged, token, []VerifierOption{WithClock(func() time.Time { return issued })}, ErrInvalidToken},
		{"garbage", signer.KeySet(), "not-a-token", nil, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := NewVerifier(tt.keys, tt.opts...).Verify(context.Background(), tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if claims.Username != "alice" {
				t.Errorf("username: got %q", claims.Username)
			}
		})
	}
}
