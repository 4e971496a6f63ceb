package auth

// keyset.go - public keys used to verify session tokens, looked up by kid

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"

	apicrypto "github.com/information-sharing-networks/apitest/internal/crypto"
)

// ErrUnknownKey is returned when no key matches the kid of a token.
var ErrUnknownKey = errors.New("unknown key")

// KeySet returns the public key for a kid.
type KeySet interface {
	Key(ctx context.Context, kid string) (crypto.PublicKey, error)
}

// StaticKeySet maps kids to public keys known in advance.
type StaticKeySet map[string]crypto.PublicKey

func (s StaticKeySet) Key(_ context.Context, kid string) (crypto.PublicKey, error) {
	key, ok := s[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
	}
	return key, nil
}

// JWKSet returns the keys as a JWK set, as served at /.well-known/jwks.json.
func (s StaticKeySet) JWKSet() (jwk.Set, error) {
	keys := make([]jwk.Key, 0, len(s))
	for kid, pub := range s {
		key, err := apicrypto.PublicKeyToJWK(pub, kid)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return apicrypto.NewJWKSet(keys...)
}

// KeySets tries each key set in order and returns the first key found.
// Errors other than ErrUnknownKey stop the search.
type KeySets []KeySet

func (s KeySets) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	for _, ks := range s {
		key, err := ks.Key(ctx, kid)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrUnknownKey) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
}

// RemoteKeySetConfig configures a RemoteKeySet.
type RemoteKeySetConfig struct {
	// URL is the JWKS endpoint, e.g. "https://books.example.com/.well-known/jwks.json"
	URL string

	// MinRefreshInterval and MaxRefreshInterval bound the background refresh schedule.
	MinRefreshInterval time.Duration
	MaxRefreshInterval time.Duration

	// WaitReady blocks NewRemoteKeySet until the first fetch completes (or ctx is done).
	WaitReady bool

	// FetchTimeout bounds the wait for the first fetch when WaitReady is set.
	FetchTimeout time.Duration
}

// RemoteKeySet fetches keys from a JWKS endpoint.
// The JWK set is cached and refreshed in the background by a jwk.Cache.
type RemoteKeySet struct {
	url    string
	cache  *jwk.Cache
	logger *slog.Logger
}

// NewRemoteKeySet registers the JWKS endpoint with a new JWK cache.
// The cache stops refreshing when ctx is cancelled, so ctx should live as long as the key set.
func NewRemoteKeySet(ctx context.Context, cfg RemoteKeySetConfig, logger *slog.Logger) (*RemoteKeySet, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("JWKS URL is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	client := httprc.NewClient()

	cache, err := jwk.NewCache(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK cache: %w", err)
	}

	opts := []jwk.RegisterOption{jwk.WithWaitReady(cfg.WaitReady)}
	if cfg.MinRefreshInterval > 0 {
		opts = append(opts, jwk.WithMinInterval(cfg.MinRefreshInterval))
	}
	if cfg.MaxRefreshInterval > 0 {
		opts = append(opts, jwk.WithMaxInterval(cfg.MaxRefreshInterval))
	}

	registerCtx := ctx
	if cfg.WaitReady && cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		registerCtx, cancel = context.WithTimeout(ctx, cfg.FetchTimeout)
		defer cancel()
	}

	if err := cache.Register(registerCtx, cfg.URL, opts...); err != nil {
		return nil, fmt.Errorf("failed to register JWKS endpoint %s: %w", cfg.URL, err)
	}

	logger.Info("registered JWKS endpoint",
		slog.String("jwks_url", cfg.URL),
		slog.Bool("wait_ready", cfg.WaitReady))

	return &RemoteKeySet{url: cfg.URL, cache: cache, logger: logger}, nil
}

// Key looks the kid up in the cached set.
// An unknown kid (or a set that is not fetched yet) triggers one refresh,
// so rotated keys are picked up before the next scheduled fetch.
func (r *RemoteKeySet) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	if set, err := r.cache.Lookup(ctx, r.url); err == nil {
		if key, found := set.LookupKeyID(kid); found {
			return apicrypto.JWKToPublicKey(key)
		}
	}

	r.logger.Debug("kid not in cached JWK set - refreshing",
		slog.String("kid", kid),
		slog.String("jwks_url", r.url))

	set, err := r.cache.Refresh(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh JWK set %s: %w", r.url, err)
	}
	key, found := set.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
	}

	return apicrypto.JWKToPublicKey(key)
}
