// Package storage persists the club ledger as one versioned JSON document.
package storage

import (
	"context"

	"rumclub/internal/core"
)

// Store loads and saves the whole ledger document. Implementations assume a
// single writer; the file store also takes an OS lock around each call.
type Store interface {
	// Load returns ErrNotFound when nothing has been saved, or an error
	// wrapping ErrCorrupt when the stored document cannot be used.
	Load(ctx context.Context, policy core.Policy) (*core.Ledger, error)
	Save(ctx context.Context, l *core.Ledger) error
	Close() error
}

// Quarantiner is implemented by stores that can set a corrupt document aside.
type Quarantiner interface {
	Quarantine(ctx context.Context) (string, error)
}
