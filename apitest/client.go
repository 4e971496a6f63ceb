package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/information-sharing-networks/apitest/auth"
	"github.com/information-sharing-networks/apitest/hydra"
	"github.com/information-sharing-networks/apitest/internal/config"
	"github.com/information-sharing-networks/apitest/internal/logger"
)

// Client sends requests to an in-process application and wraps the responses.
//
// The client behaves like a browser: cookies set by the application are stored and sent back.
// It is not safe for concurrent use.
type Client struct {
	handler  http.Handler
	baseURI  *url.URL
	jar      http.CookieJar
	defaults []RequestOption
	tokens   auth.TokenManager
	router   *hydra.Router
	logger   *slog.Logger

	// token is the forged session token of the impersonated user
	token string

	// mocks serve the next requests instead of the application, first in first out
	mocks []http.Handler
}

// New returns a client for the application handler.
// The base URI and the logger come from the APITEST_* environment unless overridden.
func New(handler http.Handler, opts ...Option) (*Client, error) {
	if handler == nil {
		return nil, fmt.Errorf("application handler is nil")
	}

	cfg, err := config.NewClientConfig()
	if err != nil {
		return nil, fmt.Errorf("could not load client configuration: %w", err)
	}

	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	rawBase := cfg.BaseURI
	if o.baseURI != "" {
		rawBase = o.baseURI
	}
	baseURI, err := url.Parse(rawBase)
	if err != nil {
		return nil, fmt.Errorf("invalid base URI %q: %w", rawBase, err)
	}
	if !baseURI.IsAbs() || baseURI.Host == "" {
		return nil, fmt.Errorf("base URI must be absolute, got %q", rawBase)
	}

	log := o.logger
	if log == nil {
		log = logger.NewLogger(os.Stderr, logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
	}

	tokens := o.tokens
	if tokens == nil && o.signingKey != nil {
		tokens, err = auth.NewSigner(o.signingKey, o.keyID, cfg.TokenIssuer, cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("could not create token signer: %w", err)
		}
	}

	router := o.router
	if router == nil {
		if r, ok := handler.(*hydra.Router); ok {
			router = r
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("could not create cookie jar: %w", err)
	}

	return &Client{
		handler:  handler,
		baseURI:  baseURI,
		jar:      jar,
		defaults: o.defaults,
		tokens:   tokens,
		router:   router,
		logger:   log,
	}, nil
}

// As returns a new client authenticated as user.
//
// The new client shares the application, router and defaults but starts with an empty
// cookie jar and no mocks. A nil user returns an anonymous client.
func (c *Client) As(user auth.User) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("could not create cookie jar: %w", err)
	}

	clone := &Client{
		handler:  c.handler,
		baseURI:  c.baseURI,
		jar:      jar,
		defaults: slices.Clone(c.defaults),
		tokens:   c.tokens,
		router:   c.router,
		logger:   c.logger,
	}
	if user == nil {
		return clone, nil
	}

	if c.tokens == nil {
		return nil, fmt.Errorf("cannot impersonate %q: no token manager configured", user.UserIdentifier())
	}
	token, err := c.tokens.Create(user)
	if err != nil {
		return nil, fmt.Errorf("could not create session token for %q: %w", user.UserIdentifier(), err)
	}
	if _, _, err := auth.SplitToken(token); err != nil {
		return nil, fmt.Errorf("token manager returned an invalid token: %w", err)
	}

	clone.token = token
	clone.logger.Debug("impersonating user", slog.String("user", user.UserIdentifier()))
	return clone, nil
}

// Router returns the routing table bound to the client (nil when none).
func (c *Client) Router() *hydra.Router { return c.router }

// Expect starts assertions on value, with the client's router bound for relation assertions.
func (c *Client) Expect(t TestingT, value any) *Expectation {
	t.Helper()
	return Expect(t, value).WithRouter(c.router)
}

// Get sends a GET request.
func (c *Client) Get(target string, opts ...RequestOption) (*Response, error) {
	return c.do(http.MethodGet, target, opts)
}

// Delete sends a DELETE request.
func (c *Client) Delete(target string, opts ...RequestOption) (*Response, error) {
	return c.do(http.MethodDelete, target, opts)
}

// Post sends a POST request. string and []byte data is sent as is, anything else is encoded as JSON.
func (c *Client) Post(target string, data any, opts ...RequestOption) (*Response, error) {
	return c.do(http.MethodPost, target, append([]RequestOption{bodyOption(data)}, opts...))
}

// Put sends a PUT request with a JSON body.
func (c *Client) Put(target string, data any, opts ...RequestOption) (*Response, error) {
	return c.do(http.MethodPut, target, append([]RequestOption{JSON(data)}, opts...))
}

// Patch sends a PATCH request with a JSON merge-patch body.
// The Content-Type is application/merge-patch+json unless the options set one.
func (c *Client) Patch(target string, data any, opts ...RequestOption) (*Response, error) {
	return c.do(http.MethodPatch, target, append([]RequestOption{
		JSON(data),
		Header("Content-Type", hydra.ContentTypeMergePatch),
	}, opts...))
}

func bodyOption(data any) RequestOption {
	switch v := data.(type) {
	case string:
		return Body([]byte(v))
	case []byte:
		return Body(v)
	default:
		return JSON(data)
	}
}

func (c *Client) do(method, target string, opts []RequestOption) (*Response, error) {
	o := buildRequestOptions(c.defaults, opts)

	u, err := c.resolve(target, o.Query)
	if err != nil {
		return nil, err
	}

	var body []byte
	switch {
	case o.Body != nil:
		body = o.Body
	case o.JSON != nil:
		body, err = json.Marshal(o.JSON)
		if err != nil {
			return nil, fmt.Errorf("could not encode request body: %w", err)
		}
		if o.Headers.Get("Content-Type") == "" {
			o.Headers.Set("Content-Type", hydra.ContentTypeJSONLD)
		}
	}

	ctx := o.Context
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	// server-side fields, as set for incoming requests
	req.RequestURI = u.RequestURI()
	req.RemoteAddr = "192.0.2.1:1234"

	req.Header.Set("Accept", hydra.ContentTypeJSONLD)
	for k, vs := range o.Headers {
		req.Header[k] = vs
	}
	if o.AuthBearer != "" {
		req.Header.Set("Authorization", "Bearer "+o.AuthBearer)
	}

	if err := c.setSessionCookies(); err != nil {
		return nil, err
	}
	for _, cookie := range c.jar.Cookies(u) {
		req.AddCookie(cookie)
	}

	handler, mocked := c.nextHandler()

	start := time.Now()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	raw := rec.Result()
	raw.Request = req
	respBody, err := io.ReadAll(raw.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	raw.Body = io.NopCloser(bytes.NewReader(respBody))

	if cookies := raw.Cookies(); len(cookies) > 0 {
		c.jar.SetCookies(u, cookies)
	}

	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("url", u.String()),
		slog.Int("status", raw.StatusCode),
		slog.Bool("mocked", mocked),
		slog.Duration("duration", time.Since(start)),
	)

	return newResponse(raw, respBody), nil
}

// resolve makes target absolute against the base URI and merges the query options
func (c *Client) resolve(target string, query url.Values) (*url.URL, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", target, err)
	}
	u := c.baseURI.ResolveReference(ref)

	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// setSessionCookies stores the impersonation cookies unless the jar already has a session
func (c *Client) setSessionCookies() error {
	if c.token == "" {
		return nil
	}
	for _, cookie := range c.jar.Cookies(c.baseURI) {
		if cookie.Name == auth.CookieHeaderPayload {
			return nil
		}
	}

	cookies, err := auth.SessionCookies(c.token, c.baseURI.Scheme == "https")
	if err != nil {
		return fmt.Errorf("could not create session cookies: %w", err)
	}
	c.jar.SetCookies(c.baseURI, cookies)
	return nil
}
