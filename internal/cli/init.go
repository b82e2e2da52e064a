// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/rumclub, cmd/rumclub-worker and cmd/rumclub-admin.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rumclub/internal/auth"
	"rumclub/internal/backend"
	"rumclub/internal/config"
	"rumclub/internal/log"
	"rumclub/internal/sheets"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// makes it the slog default. Invalid values fall back to info/text; Validate
// reports them.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	lc := log.DefaultConfig()
	if err == nil {
		lc.Level = level
	}
	switch cfg.LogFormat {
	case log.FormatJSON, log.FormatTint:
		lc.Format = cfg.LogFormat
	}
	lc.Component = component
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// Bootstrap loads the environment and configuration, sets up logging and
// validates. It exits the process on validation failure.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenBackend creates the configured ledger store and optional broker.
// Returns the backend or exits the process on failure.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, backend.Config) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, bcfg.Type.String())
		os.Exit(1)
	}
	return res, bcfg
}

// NewMirror returns the spreadsheet writer for the mirror worker.
func NewMirror(ctx context.Context, logger *log.Logger, bcfg backend.Config) (sheets.SummaryWriter, error) {
	return backend.NewFactory(logger).CreateMirror(ctx, bcfg)
}

// NewTokenManager returns the session token manager. Without SESSION_SECRET a
// random secret is used and sessions end with the process.
func NewTokenManager(cfg *config.Config, logger *log.Logger) (*auth.JWTManager, error) {
	secret := cfg.SessionSecret
	if secret == "" {
		var err error
		if secret, err = auth.RandomSecret(); err != nil {
			return nil, err
		}
		logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	return auth.NewJWTManager(secret, cfg.SessionTTL), nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has returned.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

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

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
