package main

import (
	"os"
	"time"

	"rumclub/internal/cli"
	"rumclub/internal/config"
	"rumclub/internal/log"
	"rumclub/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting rumclub-worker")

	if cfg.DataBackend == config.BackendMemory {
		logger.Error("The mirror worker needs a shared ledger, memory backend is process-local")
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	res, bcfg := cli.OpenBackend(shutdownCtx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	mirror, err := cli.NewMirror(shutdownCtx, logger, bcfg)
	if err != nil {
		logger.Error("Failed to initialize sheet mirror", log.FieldError, err)
		os.Exit(1)
	}
	w := worker.NewMirrorWorker(res.Store, cfg.Policy(), mirror, nil, logger)

	// Without a broker the worker still mirrors on a timer.
	var consumer worker.Consumer
	if res.AMQP != nil {
		consumer = res.AMQP
	} else {
		logger.Info("No AMQP broker, mirroring on the periodic timer only", "interval", cfg.MirrorInterval.String())
	}

	if err := w.Run(shutdownCtx, consumer, cfg.MirrorInterval); err != nil {
		logger.Error("Mirror worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker shutdown complete")
}
