package memory

import (
	"context"
	"fmt"
	"sync"

	"budgettracker/internal/core"
	ports "budgettracker/internal/sheets"
)

var _ ports.ReportExporter = (*Store)(nil)

// Export is one report written to the store.
type Export struct {
	Month  core.Month
	Values [][]any
}

// Store keeps exported reports in memory.
type Store struct {
	mu      sync.Mutex
	exports []Export
}

func New() *Store {
	return &Store{}
}

// ExportReport stores the report and returns a synthetic reference.
func (s *Store) ExportReport(_ context.Context, month core.Month, rows []core.ReportRow) (string, error) {
	if err := month.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, Export{Month: month, Values: ports.ReportValues(month, rows)})
	return fmt.Sprintf("mem:%d", len(s.exports)), nil
}

// Exports returns what has been exported so far, oldest first.
func (s *Store) Exports() []Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Export(nil), s.exports...)
}
