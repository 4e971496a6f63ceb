// bookstore-server runs the bookstore demo API.
//
// The API serves Book and Author resources as JSON-LD/Hydra documents. Reads are public;
// writes need a session token, sent as the jwt_hp/jwt_s cookies or as a bearer token.
// Tokens can be created with `keygen token` using the server's signing key.
//
// Configuration is read from the environment (see internal/config).
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/apitest/internal/config"
	"github.com/information-sharing-networks/apitest/internal/logger"
	"github.com/information-sharing-networks/apitest/internal/server"
	"github.com/information-sharing-networks/apitest/internal/version"
)

func main() {
	cmd := &cobra.Command{
		Use:   "bookstore-server",
		Short: "Bookstore JSON-LD/Hydra demo API",
		Long:  `bookstore-server serves the Book and Author resources used to demonstrate the apitest helpers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("SIGNING_KEY_PATH", cfg.SigningKeyPath),
		slog.String("TOKEN_ISSUER", cfg.TokenIssuer),
		slog.Duration("TOKEN_TTL", cfg.TokenTTL),
		slog.String("JWKS_URL", cfg.JWKSURL),
		slog.String("ALLOWED_ORIGINS", strings.Join(cfg.AllowedOrigins, "|")),
		slog.Int("RATE_LIMIT_RPS", int(cfg.RateLimitRPS)),
		slog.Int64("MAX_REQUEST_SIZE", cfg.MaxRequestSize),
	)

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// configure the server
	server, err := server.NewServer(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// start the server
	if err := server.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
