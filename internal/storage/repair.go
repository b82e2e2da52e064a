package storage

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"rumclub/internal/core"
)

// repairLedger brings out-of-range records written by earlier versions back
// within the ledger invariants. Each change is returned as a short note.
func repairLedger(l *core.Ledger) []string {
	var notes []string
	note := func(format string, args ...any) {
		notes = append(notes, fmt.Sprintf(format, args...))
	}

	for _, m := range core.SampleMonths {
		s := l.Samples[m]
		if s.Cost.IsNegative() {
			note("%s: negative purchase cost %s set to zero", m, s.Cost)
			s.Cost = core.Money{}
		}
		if s.Price.IsNegative() {
			note("%s: negative sale price %s set to zero", m, s.Price)
			s.Price = core.Money{}
		}
		for n, o := range s.Orders {
			switch {
			case o.Quantity < 0:
				note("%s: order of %s quantity %d set to 0", m, n, o.Quantity)
				o.Quantity = 0
			case o.Quantity > core.MaxSampleQuantity:
				note("%s: order of %s quantity %d capped to %d", m, n, o.Quantity, core.MaxSampleQuantity)
				o.Quantity = core.MaxSampleQuantity
			default:
				continue
			}
			s.Orders[n] = o
		}
	}

	for _, m := range core.TastingMonths {
		t := l.Tastings[m]
		if t.BottleCost.IsNegative() {
			note("%s: negative bottle cost %s set to zero", m, t.BottleCost)
			t.BottleCost = core.Money{}
		}
		kept := t.Guests[:0]
		for i, g := range t.Guests {
			g.Name = strings.TrimSpace(g.Name)
			if g.Name == "" {
				note("%s: unnamed guest at position %d dropped", m, i)
				continue
			}
			kept = append(kept, g)
		}
		t.Guests = kept
	}

	months := make([]string, 0, len(l.Archive))
	for m := range l.Archive {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		a := l.Archive[m]
		if a == nil || strings.TrimSpace(a.Bottle) == "" {
			note("library %s: entry without a bottle dropped", m)
			delete(l.Archive, m)
		}
	}
	return notes
}

func logRepairs(notes []string) {
	for _, n := range notes {
		slog.Warn("Repaired ledger record on load", "repair", n)
	}
}
