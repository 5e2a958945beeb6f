package memory

import (
	"context"
	"fmt"
	"sync"

	"finanzbuch/internal/investing"
	ports "finanzbuch/internal/sheets"
)

// Store keeps exported ledgers in memory. It backs the worker when no
// spreadsheet is configured and stands in for Sheets in tests.
type Store struct {
	mu      sync.Mutex
	exports [][][]any
}

var _ ports.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// WriteLedger stores the flattened ledger and returns a synthetic reference.
func (s *Store) WriteLedger(_ context.Context, l investing.Ledger) (string, error) {
	rows := ports.Rows(l)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, rows)
	return fmt.Sprintf("mem:%d", len(s.exports)), nil
}

// Last returns the most recent export, or nil.
func (s *Store) Last() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.exports) == 0 {
		return nil
	}
	return s.exports[len(s.exports)-1]
}

// Count returns how many exports were written.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exports)
}
