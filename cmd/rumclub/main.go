package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"rumclub/internal/auth"
	"rumclub/internal/cli"
	apphttp "rumclub/internal/http"
	"rumclub/internal/log"
	"rumclub/internal/metrics"
	"rumclub/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	// The ledger is unreachable until a club password has been set.
	gate, err := auth.LoadPasswordGate(cfg.PasswordHashFile)
	if err != nil {
		logger.Error("No club password configured, run 'rumclub-admin hash-password' first",
			log.FieldError, err, "path", cfg.PasswordHashFile)
		os.Exit(1)
	}
	tokens, err := cli.NewTokenManager(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize session tokens", log.FieldError, err)
		os.Exit(1)
	}

	ctx := context.Background()
	res, _ := cli.OpenBackend(ctx, logger, cfg)

	m := metrics.New()
	opts := []services.Option{services.WithMetrics(m), services.WithLogger(logger)}
	if res.AMQP != nil {
		opts = append(opts, services.WithPublisher(res.AMQP))
	}
	ledger := services.NewLedgerService(ctx, res.Store, cfg.Policy(), opts...)
	if report := ledger.LoadReport(); report.Fallback {
		logger.Warn("Serving an empty ledger", log.FieldError, report.Cause, "quarantined", report.Quarantined)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:             ledger,
		Gate:               gate,
		Tokens:             tokens,
		Metrics:            m,
		Logger:             logger,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting rumclub server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"change_events", res.AMQP != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
