// Package cli provides the process bootstrap shared by cmd/budget and
// cmd/budgetctl: environment, logging, configuration, the session runtime
// and shutdown handling.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgettracker/internal/api"
	"budgettracker/internal/backend"
	"budgettracker/internal/config"
	applog "budgettracker/internal/log"
	"budgettracker/internal/nav"
	"budgettracker/internal/session"
)

// SetupLogger initializes structured logging at level and sets it as the
// default logger.
func SetupLogger(w io.Writer, level string) *applog.Logger {
	lvl := applog.ParseLevel(level)
	logger := applog.New(applog.Config{
		Level:     lvl,
		Component: applog.ComponentApp,
		Handler:   slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}),
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Runtime is the session store and everything built on it.
type Runtime struct {
	Backend  *backend.BackendResult
	Sessions *session.Store
	API      *api.Client
	Guard    *nav.Guard
	Shell    *nav.Shell
}

// OpenRuntime creates the configured backends, loads the persisted session
// and builds the API client and navigation on top of it.
func OpenRuntime(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Runtime, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(res.Persister)
	sess, err := store.Initialize(ctx)
	if err != nil {
		_ = res.Cleanup()
		return nil, fmt.Errorf("load session: %w", err)
	}
	logger.Info("Session loaded",
		applog.FieldComponent, applog.ComponentSession,
		"logged_in", !sess.Empty())

	client, err := api.NewClient(cfg.APIBaseURL, store, api.WithTimeout(cfg.APITimeout))
	if err != nil {
		_ = res.Cleanup()
		return nil, fmt.Errorf("create API client: %w", err)
	}

	if res.Events != nil {
		res.Events.Seed(sess)
		store.Subscribe(res.Events.OnSessionChange)
	}

	return &Runtime{
		Backend:  res,
		Sessions: store,
		API:      client,
		Guard:    nav.NewGuard(store),
		Shell:    nav.NewShell(store),
	}, nil
}

// Close stops the navigation subscription and releases the backends.
func (r *Runtime) Close() error {
	r.Shell.Close()
	return r.Backend.Cleanup()
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished or timed out.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received",
			applog.FieldOperation, applog.OpShutdown,
			"signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
