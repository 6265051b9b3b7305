// Package memory provides an in-process ExpenseMirror for tests and for
// running the worker without spreadsheet credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

var _ ports.ExpenseMirror = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	rows  map[string]int
	items []core.Expense
}

func New() *Store {
	return &Store{rows: make(map[string]int)}
}

// UpsertExpense stores the expense and returns a synthetic row reference.
func (s *Store) UpsertExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.rows[e.ID]; ok {
		s.items[i] = e
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	s.items = append(s.items, e)
	s.rows[e.ID] = len(s.items) - 1
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.rows[id]; ok {
		s.items[i] = core.Expense{}
		delete(s.rows, id)
	}
	return nil
}

// Get returns the mirrored expense with the given id.
func (s *Store) Get(id string) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.rows[id]
	if !ok {
		return core.Expense{}, false
	}
	return s.items[i], true
}

// Len returns the number of live rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
