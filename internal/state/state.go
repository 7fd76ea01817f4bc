// Package state holds the in-memory budget state shared by the CLI and TUI.
//
// A BudgetState is built once per session and passed to every collaborator
// that reads or replaces budget data. The two sequences it holds are
// independent: neither is ever derived from the other, and each is only
// replaced wholesale by its own setter.
package state

import (
	"sync"

	"github.com/theirongolddev/envbudget/internal/model"
)

// BudgetState holds the current budgets and remaining budgets.
type BudgetState struct {
	mu               sync.RWMutex
	budgets          []model.Budget
	remainingBudgets []model.RemainingBudget
}

// Snapshot is a consistent read of both sequences.
type Snapshot struct {
	Budgets          []model.Budget
	RemainingBudgets []model.RemainingBudget
}

// New returns a store with both sequences empty.
func New() *BudgetState {
	return &BudgetState{
		budgets:          []model.Budget{},
		remainingBudgets: []model.RemainingBudget{},
	}
}

// Budgets returns the current budgets. The slice is shared with the store;
// callers must not modify it.
func (s *BudgetState) Budgets() []model.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budgets
}

// RemainingBudgets returns the current remaining budgets. The slice is shared
// with the store; callers must not modify it.
func (s *BudgetState) RemainingBudgets() []model.RemainingBudget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remainingBudgets
}

// SetBudgets replaces the budgets with b. The slice is stored as given;
// changing it afterwards without calling SetBudgets again is unsupported.
func (s *BudgetState) SetBudgets(b []model.Budget) {
	if b == nil {
		b = []model.Budget{}
	}
	s.mu.Lock()
	s.budgets = b
	s.mu.Unlock()
}

// SetRemainingBudgets replaces the remaining budgets with r.
func (s *BudgetState) SetRemainingBudgets(r []model.RemainingBudget) {
	if r == nil {
		r = []model.RemainingBudget{}
	}
	s.mu.Lock()
	s.remainingBudgets = r
	s.mu.Unlock()
}

// Snapshot reads both sequences under a single lock.
func (s *BudgetState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Budgets:          s.budgets,
		RemainingBudgets: s.remainingBudgets,
	}
}
