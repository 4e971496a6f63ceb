//go:build integration

package integration

// Test environment setup and server lifecycle management.
//
// By default the server logs are not included in the test output, you can enable them with:
//
//	ENABLE_SERVER_LOGS=true go test -tags=integration -v ./test/integration

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"

	"github.com/information-sharing-networks/apitest/apitest"
	"github.com/information-sharing-networks/apitest/auth"
	"github.com/information-sharing-networks/apitest/internal/config"
	"github.com/information-sharing-networks/apitest/internal/logger"
	"github.com/information-sharing-networks/apitest/internal/server"
)

// testEnv gives tests access to the server and an anonymous client
type testEnv struct {
	server *server.Server
	client *apitest.Client
	cfg    *config.ServerEnvironment

	// baseURL is set when the server listens on a port (startListeningServer)
	baseURL string
}

// newTestEnv creates a server with an empty store. envs override the default test configuration.
func newTestEnv(t *testing.T, envs env.EnvSet) *testEnv {
	t.Helper()

	vars := env.EnvSet{
		"ENVIRONMENT":    "test",
		"HOST":           "localhost",
		"RATE_LIMIT_RPS": "0",
		"TOKEN_ISSUER":   "bookstore",
	}
	for k, v := range envs {
		vars[k] = v
	}

	cfg, err := config.NewServerConfigFrom(vars)
	require.NoError(t, err, "failed to load configuration")

	appLogger := logger.Discard()
	if os.Getenv("ENABLE_SERVER_LOGS") == "true" {
		appLogger = logger.InitLogger(logger.ParseLogLevel("debug"), cfg.Environment)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := server.NewServer(ctx, cfg, appLogger)
	require.NoError(t, err, "failed to create server")

	client, err := apitest.New(srv.Handler(),
		apitest.WithRouter(srv.Router()),
		apitest.WithTokenManager(srv.Signer()),
		apitest.WithLogger(appLogger),
	)
	require.NoError(t, err)

	return &testEnv{server: srv, client: client, cfg: cfg}
}

// as returns a client authenticated as username
func (e *testEnv) as(t *testing.T, username string, roles ...string) *apitest.Client {
	t.Helper()
	client, err := e.client.As(auth.NewUser(username, roles...))
	require.NoError(t, err)
	return client
}

// startListeningServer starts the server on a free port, returning when /health answers.
// The server is stopped when the test completes.
func startListeningServer(t *testing.T, envs env.EnvSet) *testEnv {
	t.Helper()

	port := findFreePort(t)
	if envs == nil {
		envs = env.EnvSet{}
	}
	envs["PORT"] = fmt.Sprintf("%d", port)

	testEnv := newTestEnv(t, envs)

	// Create a cancellable context for server shutdown
	serverCtx, serverCancel := context.WithCancel(context.Background())

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := testEnv.server.Start(serverCtx); err != nil {
			serverDone <- err
		}
	}()

	t.Cleanup(func() {
		serverCancel()

		// Wait for server to shut down gracefully with timeout
		select {
		case err := <-serverDone:
			if err != nil {
				t.Logf("server shutdown with error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Log("server shutdown timeout")
		}
	})

	testEnv.baseURL = fmt.Sprintf("http://localhost:%d", port)
	if !waitForServer(t, testEnv.baseURL+"/health", 10*time.Second) {
		t.Fatal("Server failed to start within timeout")
	}
	return testEnv
}

func findFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	return addr.Port
}

func waitForServer(t *testing.T, url string, timeout time.Duration) bool {
	t.Helper()

	client := &http.Client{Timeout: 1 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
