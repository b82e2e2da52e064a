package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestJSONLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: FormatJSON, Component: ComponentLedger, Output: &buf})

	logger.InfoContext(context.Background(), "Ledger saved", FieldRevision, 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry[FieldComponent] != ComponentLedger || entry[FieldRevision] != float64(3) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	for _, format := range []string{FormatText, FormatJSON, FormatTint} {
		var buf bytes.Buffer
		logger := New(Config{Level: slog.LevelInfo, Format: format, Component: ComponentApp, Output: &buf})
		logger.Debug("hidden")
		logger.Warn("shown")
		if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
			t.Errorf("%s: unexpected output %q", format, buf.String())
		}
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("expected default logger, got %+v", l)
	}
	want := New(DefaultConfig()).WithComponent(ComponentHTTP)
	if got := FromContext(NewContext(context.Background(), want)); got != want {
		t.Fatalf("logger not carried by context")
	}
}

func TestStructuredLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Format: FormatJSON, Component: ComponentLedger, Output: &buf}))
	ctx := context.Background()

	sl.LogMutation(ctx, "set_order", 7, 12345)
	sl.LogError(ctx, "Failed to save ledger", errors.New("disk full"), ComponentStorage, "set_order", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two entries, got %q", buf.String())
	}
	var saved, failed map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &saved); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &failed); err != nil {
		t.Fatal(err)
	}
	if saved[FieldOperation] != "set_order" || saved[FieldRevision] != float64(7) || saved[FieldTreasury] != float64(12345) {
		t.Errorf("unexpected mutation entry: %v", saved)
	}
	if failed[FieldError] != "disk full" || failed[FieldComponent] != ComponentStorage || failed["level"] != "ERROR" {
		t.Errorf("unexpected error entry: %v", failed)
	}
}
