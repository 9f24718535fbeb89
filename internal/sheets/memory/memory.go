// Package memory keeps the last mirrored snapshot in process. Used when no
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"sync"

	"moneytracker/internal/core"
	"moneytracker/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	rows  [][]any
	syncs int
}

var _ sheets.Mirror = (*Store)(nil)

func New() *Store { return &Store{} }

func (s *Store) Mirror(_ context.Context, records []core.Record, tags []core.Tag) error {
	rows := sheets.Rows(records, tags)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.syncs++
	return nil
}

// Rows returns the last mirrored rows, header included.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}

// Syncs counts completed Mirror calls.
func (s *Store) Syncs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncs
}
