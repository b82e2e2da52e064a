package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"rumclub/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the current document in a single row and appends every
// saved version to a snapshot table, giving the club a history of the year.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// Snapshot is one saved version of the document.
type Snapshot struct {
	ID        int64
	Treasury  core.Money
	CreatedAt time.Time
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer: the document is replaced as a whole.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, policy core.Policy) (*core.Ledger, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM ledger_document WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select ledger document: %w", err)
	}
	return Decode([]byte(body), policy)
}

func (s *SQLiteStore) Save(ctx context.Context, l *core.Ledger) error {
	data, err := Encode(l)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_document (id, schema_version, body, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		CurrentSchemaVersion, string(data))
	if err != nil {
		return fmt.Errorf("upsert ledger document: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_snapshots (schema_version, body, treasury_cents) VALUES (?, ?, ?)`,
		CurrentSchemaVersion, string(data), l.Treasury().Cents)
	if err != nil {
		return fmt.Errorf("insert ledger snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger save: %w", err)
	}

	id, _ := res.LastInsertId()
	slog.DebugContext(ctx, "Ledger saved to SQLite", "snapshot_id", id, "bytes", len(data))
	return nil
}

// Snapshots returns the most recent saved versions, newest first.
func (s *SQLiteStore) Snapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, treasury_cents, created_at FROM ledger_snapshots ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Treasury.Cents, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Snapshot decodes a past version of the document. It does not change the
// current one.
func (s *SQLiteStore) Snapshot(ctx context.Context, id int64, policy core.Policy) (*core.Ledger, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM ledger_snapshots WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return Decode([]byte(body), policy)
}
