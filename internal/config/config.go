package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults for the bookstore demo server
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT,default=60s"`
	AllowedOrigins        []string      `env:"ALLOWED_ORIGINS,separator=|"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestSize        int64         `env:"MAX_REQUEST_SIZE,default=1048576"`

	// session token settings
	// when SIGNING_KEY_PATH is empty an ephemeral Ed25519 key is generated at startup
	SigningKeyPath string        `env:"SIGNING_KEY_PATH"`
	TokenIssuer    string        `env:"TOKEN_ISSUER,default=bookstore"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,default=1h"`

	// remote JWKS settings - when JWKS_URL is set, tokens signed by keys
	// published there are accepted as well as tokens signed with the local key
	JWKSURL            string        `env:"JWKS_URL"`
	JWKCacheMinRefresh time.Duration `env:"JWK_CACHE_MIN_REFRESH,default=10m"`
	JWKCacheMaxRefresh time.Duration `env:"JWK_CACHE_MAX_REFRESH,default=12h"`
	JWKSFetchTimeout   time.Duration `env:"JWKS_FETCH_TIMEOUT,default=10s"`
}

// Environment variables read by apitest.New
type ClientEnvironment struct {
	BaseURI     string        `env:"APITEST_BASE_URI,default=http://localhost"`
	Environment string        `env:"APITEST_ENVIRONMENT,default=test"`
	LogLevel    string        `env:"APITEST_LOG_LEVEL,default=none"`
	TokenIssuer string        `env:"APITEST_TOKEN_ISSUER,default=apitest"`
	TokenTTL    time.Duration `env:"APITEST_TOKEN_TTL,default=1h"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return NewServerConfigFrom(es)
}

// NewServerConfigFrom is NewServerConfig reading from es instead of the process environment
func NewServerConfigFrom(es env.EnvSet) (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateServerConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewClientConfig loads the APITEST_* environment variables
func NewClientConfig() (*ClientEnvironment, error) {
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return NewClientConfigFrom(es)
}

// NewClientConfigFrom is NewClientConfig reading from es instead of the process environment
func NewClientConfigFrom(es env.EnvSet) (*ClientEnvironment, error) {
	var cfg ClientEnvironment

	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	u, err := url.Parse(cfg.BaseURI)
	if err != nil {
		return nil, fmt.Errorf("invalid APITEST_BASE_URI: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("APITEST_BASE_URI must be an absolute URI, got %q", cfg.BaseURI)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("APITEST_TOKEN_TTL must be positive")
	}
	if !validEnvs[cfg.Environment] {
		return nil, fmt.Errorf("invalid APITEST_ENVIRONMENT: %s", cfg.Environment)
	}

	return &cfg, nil
}

// validateServerConfig checks the values loaded from the environment
func validateServerConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if cfg.MaxRequestSize < 1 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be at least 1")
	}
	if cfg.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if cfg.JWKSURL != "" {
		u, err := url.Parse(cfg.JWKSURL)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("JWKS_URL must be an absolute URL, got %q", cfg.JWKSURL)
		}
		if cfg.JWKCacheMinRefresh > cfg.JWKCacheMaxRefresh {
			return fmt.Errorf("JWK_CACHE_MIN_REFRESH (%s) cannot be greater than JWK_CACHE_MAX_REFRESH (%s)",
				cfg.JWKCacheMinRefresh, cfg.JWKCacheMaxRefresh)
		}
	}

	return nil
}
