package memory

import (
	"context"
	"errors"
	"testing"

	"rumclub/internal/core"
)

func TestMemoryStoreWriteAndLast(t *testing.T) {
	s := New()
	if _, ok := s.Last(2026); ok {
		t.Fatalf("expected no summary before the first write")
	}

	sum := core.AnnualSummary{Treasury: core.Euros(42)}
	if err := s.WriteSummary(context.Background(), 2026, sum); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	got, ok := s.Last(2026)
	if !ok || got.Treasury != core.Euros(42) {
		t.Fatalf("unexpected last summary: %+v ok=%v", got, ok)
	}
	if s.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", s.Writes())
	}
}

func TestMemoryStoreFailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)
	if err := s.WriteSummary(context.Background(), 2026, core.AnnualSummary{}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	s.FailWith(nil)
	if err := s.WriteSummary(context.Background(), 2026, core.AnnualSummary{}); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if s.Writes() != 1 {
		t.Fatalf("failed writes must not count, got %d", s.Writes())
	}
}
