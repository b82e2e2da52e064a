package cli

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"rumclub/internal/config"
	"rumclub/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: log.FormatJSON}, log.ComponentWorker)
	if logger.Component() != log.ComponentWorker {
		t.Fatalf("component = %q", logger.Component())
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug level not applied")
	}

	logger = SetupLogger(&config.Config{LogLevel: "loud", LogFormat: "xml"}, log.ComponentApp)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("invalid level should fall back to info")
	}
}

func TestNewTokenManager(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "error"}, log.ComponentAuth)

	fixed := &config.Config{SessionSecret: "0123456789abcdef0123456789abcdef", SessionTTL: time.Hour}
	a, err := NewTokenManager(fixed, logger)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewTokenManager(fixed, logger)
	token, err := a.Generate()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Validate(token); err != nil {
		t.Fatalf("same secret must validate across managers: %v", err)
	}

	random, err := NewTokenManager(&config.Config{SessionTTL: time.Hour}, logger)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := random.Validate(token); err == nil {
		t.Fatalf("random secret must not accept tokens signed elsewhere")
	}
	if random.TTL() != time.Hour {
		t.Fatalf("TTL = %v", random.TTL())
	}
}
