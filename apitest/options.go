package apitest

import (
	"context"
	"crypto"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/information-sharing-networks/apitest/auth"
	"github.com/information-sharing-networks/apitest/hydra"
)

// RequestOptions are the per-request settings, built from the client defaults and the call options.
type RequestOptions struct {
	Headers    http.Header
	Query      url.Values
	JSON       any
	Body       []byte
	AuthBearer string
	Context    context.Context
}

// RequestOption mutates RequestOptions.
type RequestOption func(*RequestOptions)

// Headers sets request headers, replacing earlier values of the same names.
func Headers(h http.Header) RequestOption {
	return func(o *RequestOptions) {
		for k, vs := range h {
			o.Headers[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
		}
	}
}

// Header sets a single request header.
func Header(name, value string) RequestOption {
	return func(o *RequestOptions) { o.Headers.Set(name, value) }
}

// Query adds query parameters to the request URL.
func Query(q url.Values) RequestOption {
	return func(o *RequestOptions) {
		for k, vs := range q {
			o.Query[k] = append(o.Query[k], vs...)
		}
	}
}

// JSON sets a body encoded as JSON.
func JSON(v any) RequestOption {
	return func(o *RequestOptions) {
		o.JSON = v
		o.Body = nil
	}
}

// Body sets a raw body.
func Body(b []byte) RequestOption {
	return func(o *RequestOptions) {
		o.Body = b
		o.JSON = nil
	}
}

// AuthBearer sends an "Authorization: Bearer" header.
func AuthBearer(token string) RequestOption {
	return func(o *RequestOptions) { o.AuthBearer = token }
}

// Context sets the request context.
func Context(ctx context.Context) RequestOption {
	return func(o *RequestOptions) { o.Context = ctx }
}

func buildRequestOptions(defaults, opts []RequestOption) *RequestOptions {
	o := &RequestOptions{
		Headers: http.Header{},
		Query:   url.Values{},
	}
	for _, opt := range defaults {
		opt(o)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURI    string
	tokens     auth.TokenManager
	signingKey crypto.Signer
	keyID      string
	router     *hydra.Router
	logger     *slog.Logger
	defaults   []RequestOption
}

// WithBaseURI overrides APITEST_BASE_URI.
func WithBaseURI(uri string) Option {
	return func(o *clientOptions) { o.baseURI = uri }
}

// WithTokenManager sets the TokenManager used by As to forge session tokens.
func WithTokenManager(tm auth.TokenManager) Option {
	return func(o *clientOptions) { o.tokens = tm }
}

// WithSigningKey makes As sign session tokens with the key.
// The issuer and lifetime come from APITEST_TOKEN_ISSUER and APITEST_TOKEN_TTL.
// An empty keyID is derived from the public key.
func WithSigningKey(key crypto.Signer, keyID string) Option {
	return func(o *clientOptions) {
		o.signingKey = key
		o.keyID = keyID
	}
}

// WithRouter binds the routing table used by relation assertions.
// It defaults to the application handler when that is a *hydra.Router.
func WithRouter(r *hydra.Router) Option {
	return func(o *clientOptions) { o.router = r }
}

// WithLogger replaces the logger configured by APITEST_LOG_LEVEL.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithDefaultOptions sets request options applied before the per-call options of every request.
func WithDefaultOptions(opts ...RequestOption) Option {
	return func(o *clientOptions) { o.defaults = append(o.defaults, opts...) }
}
