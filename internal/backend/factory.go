package backend

import (
	"context"
	"errors"
	"fmt"

	"rumclub/internal/amqp"
	"rumclub/internal/log"
	"rumclub/internal/sheets"
	gsheet "rumclub/internal/sheets/google"
	"rumclub/internal/sheets/memory"
	"rumclub/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.Store
		err   error
	)
	switch config.Type {
	case FileBackend:
		store, err = storage.NewFileStore(config.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ledger file: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized file backend", "path", config.LedgerPath)
	case SQLiteBackend:
		store, err = storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store = storage.NewMemoryStore()
		f.logger.WarnContext(ctx, "Initialized memory backend, changes are lost on restart")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	// Initialize AMQP client (optional)
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
			amqpClient = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	return &BackendResult{
		Store: store,
		AMQP:  amqpClient,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}

// CreateMirror implements Factory.CreateMirror. Without a spreadsheet ID the
// summary is kept in memory only.
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (sheets.SummaryWriter, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.WarnContext(ctx, "No spreadsheet configured, mirroring to memory")
		return memory.New(), nil
	}
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets mirror", "sheet", config.GoogleSheetName)
	return cli, nil
}
