package storage

import (
	"context"
	"sync"

	"rumclub/internal/core"
)

// MemoryStore keeps the encoded document in memory. Documents still go
// through Encode/Decode so behavior matches the persistent stores.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// NewMemoryStoreWith seeds the store with a raw document.
func NewMemoryStoreWith(data []byte) *MemoryStore {
	return &MemoryStore{data: append([]byte(nil), data...)}
}

func (s *MemoryStore) Load(_ context.Context, policy core.Policy) (*core.Ledger, error) {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()
	if data == nil {
		return nil, ErrNotFound
	}
	return Decode(data, policy)
}

func (s *MemoryStore) Save(_ context.Context, l *core.Ledger) error {
	data, err := Encode(l)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.saves++
	return nil
}

// Saves returns how many times the document was written.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Bytes returns a copy of the stored document.
func (s *MemoryStore) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

func (s *MemoryStore) Close() error { return nil }
