package auth

import (
	"context"
	"crypto"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/information-sharing-networks/apitest/internal/logger"
)

// jwksServer serves the current key set and lets tests rotate it
type jwksServer struct {
	mu   sync.Mutex
	keys StaticKeySet
}

func (s *jwksServer) set(keys StaticKeySet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
}

func (s *jwksServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	set, err := s.keys.JWKSet()
	s.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(set)
}

type failingKeySet struct{ err error }

func (f failingKeySet) Key(context.Context, string) (crypto.PublicKey, error) { return nil, f.err }

func TestKeySets(t *testing.T) {
	first := newTestSigner(t, "", time.Hour)
	second := newTestSigner(t, "", time.Hour)
	keys := KeySets{first.KeySet(), second.KeySet()}

	for _, kid := range []string{first.KeyID(), second.KeyID()} {
		if _, err := keys.Key(context.Background(), kid); err != nil {
			t.Errorf("Key(%s): unexpected error: %v", kid, err)
		}
	}
	if _, err := keys.Key(context.Background(), "missing"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}

	fetchErr := errors.New("connection refused")
	keys = KeySets{failingKeySet{err: fetchErr}, second.KeySet()}
	if _, err := keys.Key(context.Background(), second.KeyID()); !errors.Is(err, fetchErr) {
		t.Errorf("expected the fetch error, got %v", err)
	}
}

func TestStaticKeySet(t *testing.T) {
	signer := newTestSigner(t, "", time.Hour)
	keys := signer.KeySet()

	if _, err := keys.Key(context.Background(), signer.KeyID()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := keys.Key(context.Background(), "missing"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}

	set, err := keys.JWKSet()
	if err != nil {
		t.Fatalf("JWKSet: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", set.Len())
	}
	if _, ok := set.LookupKeyID(signer.KeyID()); !ok {
		t.Errorf("kid %s not in JWK set", signer.KeyID())
	}
}

func TestRemoteKeySet(t *testing.T) {
	current := newTestSigner(t, "bookstore", time.Hour)
	rotated := newTestSigner(t, "bookstore", time.Hour)

	jwks := &jwksServer{keys: current.KeySet()}
	server := httptest.NewServer(jwks)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	remote, err := NewRemoteKeySet(ctx, RemoteKeySetConfig{
		URL:                server.URL,
		MinRefreshInterval: time.Hour,
		MaxRefreshInterval: time.Hour,
		WaitReady:          true,
		FetchTimeout:       5 * time.Second,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("NewRemoteKeySet: %v", err)
	}

	token, err := current.Create(NewUser("alice"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := NewVerifier(remote).Verify(ctx, token); err != nil {
		t.Fatalf("Verify with remote key set: %v", err)
	}

	// a kid that is not cached yet triggers a refresh
	jwks.set(StaticKeySet{
		current.KeyID(): current.PublicKey(),
		rotated.KeyID(): rotated.PublicKey(),
	})
	token, err = rotated.Create(NewUser("bob"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	claims, err := NewVerifier(remote).Verify(ctx, token)
	if err != nil {
		t.Fatalf("Verify after rotation: %v", err)
	}
	if claims.Username != "bob" {
		t.Errorf("username: got %q, want bob", claims.Username)
	}

	if _, err := remote.Key(ctx, "missing"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
}

func TestNewRemoteKeySetValidation(t *testing.T) {
	if _, err := NewRemoteKeySet(context.Background(), RemoteKeySetConfig{}, logger.Discard()); err == nil {
		t.Error("expected error for missing URL")
	}
	if _, err := NewRemoteKeySet(context.Background(), RemoteKeySetConfig{URL: "http://localhost/jwks.json"}, nil); err == nil {
		t.Error("expected error for nil logger")
	}
}
