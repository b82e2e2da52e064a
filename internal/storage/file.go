package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"rumclub/internal/core"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps the ledger in a JSON file. Saves write a temporary file in
// the same directory and rename it over the target, so a crash never leaves a
// half-written document. An advisory lock on "<path>.lock" keeps a second
// process (the admin command) from interleaving with the server.
type FileStore struct {
	path string
	lock *flock.Flock
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return &FileStore{path: path, lock: flock.New(path + ".lock")}, nil
}

func (s *FileStore) Load(ctx context.Context, policy core.Policy) (*core.Ledger, error) {
	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock ledger file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock ledger file: %w", ctx.Err())
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	return Decode(data, policy)
}

func (s *FileStore) Save(ctx context.Context, l *core.Ledger) error {
	data, err := Encode(l)
	if err != nil {
		return err
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock ledger file: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock ledger file: %w", ctx.Err())
	}
	defer s.lock.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}

	slog.DebugContext(ctx, "Ledger saved to file", "path", s.path, "bytes", len(data))
	return nil
}

func (s *FileStore) Close() error {
	return s.lock.Close()
}

// Quarantine moves an unreadable document aside so the next save does not
// overwrite it, and returns the new location.
func (s *FileStore) Quarantine(ctx context.Context) (string, error) {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("lock ledger file: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("lock ledger file: %w", ctx.Err())
	}
	defer s.lock.Unlock()

	dst := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().UTC().Format("20060102T150405"))
	if err := os.Rename(s.path, dst); err != nil {
		return "", fmt.Errorf("quarantine ledger file: %w", err)
	}
	return dst, nil
}
