package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSQLiteStoreSaveLoadAndSnapshots(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rumclub.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Load(ctx, testPolicy); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty database, got %v", err)
	}

	l := populatedLedger(t)
	first := l.Clone()
	if err := s.Save(ctx, l); err != nil {
		t.Fatalf("save: %v", err)
	}
	l.SetOpeningBalance(l.OpeningBalance.Add(l.OpeningBalance))
	if err := s.Save(ctx, l); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.Load(ctx, testPolicy)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, l) {
		t.Fatalf("loaded ledger differs from last save")
	}

	snaps, err := s.Snapshots(ctx, 10)
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snaps) != 2 || snaps[0].ID <= snaps[1].ID {
		t.Fatalf("expected two snapshots newest first, got %+v", snaps)
	}
	if snaps[1].Treasury != first.Treasury() {
		t.Fatalf("snapshot treasury %v, want %v", snaps[1].Treasury, first.Treasury())
	}

	old, err := s.Snapshot(ctx, snaps[1].ID, testPolicy)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !reflect.DeepEqual(old, first) {
		t.Fatalf("snapshot differs from first save")
	}
	if cur, _ := s.Load(ctx, testPolicy); !reflect.DeepEqual(cur, l) {
		t.Fatalf("reading a snapshot must not change the current document")
	}
	if _, err := s.Snapshot(ctx, 999, testPolicy); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing snapshot, got %v", err)
	}
}
