package server

import (
	"context"
	"crypto"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/information-sharing-networks/apitest/auth"
	"github.com/information-sharing-networks/apitest/hydra"
	"github.com/information-sharing-networks/apitest/internal/bookstore"
	"github.com/information-sharing-networks/apitest/internal/config"
	apicrypto "github.com/information-sharing-networks/apitest/internal/crypto"
	"github.com/information-sharing-networks/apitest/internal/logger"
	"github.com/information-sharing-networks/apitest/internal/server/handlers"
	appmiddleware "github.com/information-sharing-networks/apitest/internal/server/middleware"
	"github.com/information-sharing-networks/apitest/internal/version"
)

type Server struct {
	config *config.ServerEnvironment
	logger *slog.Logger
	router *hydra.Router
	store  *bookstore.Store

	// signer issues session tokens, verifier checks them
	signer   *auth.Signer
	verifier *auth.Verifier

	// keys are the local verification keys published at /.well-known/jwks.json
	keys auth.StaticKeySet
}

// NewServer creates the server, loading the signing key and registering the routes.
// ctx bounds the lifetime of the remote JWKS cache (when JWKS_URL is set).
func NewServer(ctx context.Context, cfg *config.ServerEnvironment, logger *slog.Logger) (*Server, error) {
	server := &Server{
		config: cfg,
		logger: logger,
		router: hydra.NewRouter(),
		store:  bookstore.NewStore(),
	}

	if err := server.initAuth(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize authentication: %w", err)
	}

	server.setupMiddleware()
	if err := server.registerRoutes(); err != nil {
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	return server, nil
}

// initAuth loads the signing key and creates the token signer and verifier.
func (s *Server) initAuth(ctx context.Context) error {
	var (
		key   crypto.Signer
		keyID string
		err   error
	)

	if s.config.SigningKeyPath != "" {
		key, keyID, err = apicrypto.ReadPrivateKeyFromJWKPath(s.config.SigningKeyPath)
		if err != nil {
			return fmt.Errorf("failed to read signing key: %w", err)
		}
		s.logger.Info("loaded signing key",
			slog.String("path", s.config.SigningKeyPath),
			slog.String("kid", keyID))
	} else {
		key, err = apicrypto.GenerateEd25519KeyPair()
		if err != nil {
			return err
		}
		s.logger.Warn("SIGNING_KEY_PATH not set - using an ephemeral Ed25519 signing key")
	}

	s.signer, err = auth.NewSigner(key, keyID, s.config.TokenIssuer, s.config.TokenTTL)
	if err != nil {
		return err
	}
	s.keys = s.signer.KeySet()

	keys := auth.KeySets{s.keys}
	if s.config.JWKSURL != "" {
		remote, err := auth.NewRemoteKeySet(ctx, auth.RemoteKeySetConfig{
			URL:                s.config.JWKSURL,
			MinRefreshInterval: s.config.JWKCacheMinRefresh,
			MaxRefreshInterval: s.config.JWKCacheMaxRefresh,
			WaitReady:          true,
			FetchTimeout:       s.config.JWKSFetchTimeout,
		}, s.logger)
		if err != nil {
			return err
		}
		keys = append(keys, remote)
	}

	s.verifier = auth.NewVerifier(keys)
	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.config.RequestTimeout))
	s.router.Use(appmiddleware.SecurityHeaders(s.config.Environment))
	s.router.Use(appmiddleware.CORS(s.config.AllowedOrigins))
	s.router.Use(appmiddleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	s.router.Use(appmiddleware.RequestSizeLimit(s.config.MaxRequestSize))
	s.router.Use(auth.Middleware(s.verifier))
}

func (s *Server) registerRoutes() error {
	books := handlers.NewBookHandler(s.store, s.router)
	authors := handlers.NewAuthorHandler(s.store, s.router)

	resources := []struct {
		class   string
		op      hydra.Operation
		handler http.HandlerFunc
	}{
		{bookstore.ClassBook, hydra.GetCollection("/books"), books.HandleList},
		{bookstore.ClassBook, hydra.Post("/books"), requireUser(books.HandleCreate)},
		{bookstore.ClassBook, hydra.Get("/books/{id}"), books.HandleGet},
		{bookstore.ClassBook, hydra.Put("/books/{id}"), requireUser(books.HandleReplace)},
		{bookstore.ClassBook, hydra.Patch("/books/{id}"), requireUser(books.HandlePatch)},
		{bookstore.ClassBook, hydra.Delete("/books/{id}"), requireUser(books.HandleDelete)},

		{bookstore.ClassAuthor, hydra.GetCollection("/authors"), authors.HandleList},
		{bookstore.ClassAuthor, hydra.Post("/authors"), requireUser(authors.HandleCreate)},
		{bookstore.ClassAuthor, hydra.Get("/authors/{id}"), authors.HandleGet},
		{bookstore.ClassAuthor, hydra.Delete("/authors/{id}"), requireRole("ROLE_ADMIN", authors.HandleDelete)},
	}
	for _, res := range resources {
		if err := s.router.Handle(res.class, res.op, res.handler); err != nil {
			return err
		}
	}

	jwkSet, err := s.keys.JWKSet()
	if err != nil {
		return fmt.Errorf("failed to create JWK set: %w", err)
	}

	mux := s.router.Mux()
	mux.Get("/me", handlers.HandleMe)
	mux.Get("/health", handlers.HandleHealth)
	mux.Get("/version", handlers.HandleVersion(version.Get()))
	mux.Get("/.well-known/jwks.json", handlers.HandleJWKS(jwkSet))

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		hydra.RespondWithErrorResponse(w, r, hydra.NewNotFoundError("Not Found"))
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		hydra.RespondWithStatusCodeOnly(w, http.StatusMethodNotAllowed)
	})

	return nil
}

func requireUser(h http.HandlerFunc) http.HandlerFunc {
	return auth.RequireUser(h).ServeHTTP
}

func requireRole(role string, h http.HandlerFunc) http.HandlerFunc {
	return auth.RequireRole(role)(h).ServeHTTP
}

// Handler returns the HTTP handler of the API, used to serve it in-process (apitest, integration tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the resource route table.
func (s *Server) Router() *hydra.Router {
	return s.router
}

// Signer returns the session token signer.
func (s *Server) Signer() *auth.Signer {
	return s.signer
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}
