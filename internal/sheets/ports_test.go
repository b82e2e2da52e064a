package sheets

import (
	"testing"
	"time"

	"rumclub/internal/core"
)

func TestRowsLayout(t *testing.T) {
	l := core.NewLedger(core.Policy{})
	l.ReplaceMembers([]string{"SMITH John"})
	l.SetOpeningBalance(core.Euros(100))
	_ = l.SetDuesPaid("SMITH John", true)

	s := l.Summary()
	rows := Rows(s, time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC))

	if got := rows[0][1]; got != "01/03/2026 18:30" {
		t.Fatalf("timestamp cell = %v", got)
	}
	if got := rows[6][2]; got != 135.0 {
		t.Fatalf("treasury cell = %v, want 135", got)
	}
	if got := rows[3][1]; got != "1/1" {
		t.Fatalf("dues cell = %v", got)
	}
	want := 12 + len(s.Samples) + 2 + len(s.Tastings)
	if len(rows) != want {
		t.Fatalf("expected %d rows, got %d", want, len(rows))
	}
	if rows[12][0] != core.SampleMonths[0] {
		t.Fatalf("first sample row = %v", rows[12])
	}
}
