package backend

import (
	"context"

	"rumclub/internal/amqp"
	"rumclub/internal/sheets"
	"rumclub/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the ledger store, the optional change publisher and
// a cleanup function releasing both.
type BackendResult struct {
	Store storage.Store
	// AMQP is nil when no broker is configured or it was unreachable.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the ledger store and, when configured, the broker.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateMirror returns the spreadsheet writer used by the mirror worker.
	CreateMirror(ctx context.Context, config Config) (sheets.SummaryWriter, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// File specific
	LedgerPath string

	// SQLite specific
	SQLiteDBPath string

	// AMQP (optional for every backend)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (optional)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
