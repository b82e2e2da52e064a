package memory

import (
	"context"
	"sync"

	"rumclub/internal/core"
	ports "rumclub/internal/sheets"
)

var _ ports.SummaryWriter = (*Store)(nil)

// Store keeps the last summary written per year. Used when no spreadsheet
// is configured and in tests.
type Store struct {
	mu     sync.Mutex
	writes int
	byYear map[int]core.AnnualSummary
	err    error
}

func New() *Store {
	return &Store{byYear: map[int]core.AnnualSummary{}}
}

// FailWith makes every following write return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// WriteSummary records the summary for the year.
func (s *Store) WriteSummary(_ context.Context, year int, sum core.AnnualSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes++
	s.byYear[year] = sum
	return nil
}

// Last returns the most recent summary written for the year.
func (s *Store) Last(year int) (core.AnnualSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.byYear[year]
	return sum, ok
}

// Writes counts successful writes.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
