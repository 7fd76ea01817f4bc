// Package model defines the budget and envelope records shared across envbudget.
package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxEnvelopeName is the longest envelope name accepted, in runes.
const MaxEnvelopeName = 100

// ErrInvalidInput marks a payload rejected at the boundary.
var ErrInvalidInput = errors.New("invalid input")

// Budget is a top-level budget with its total allocation.
type Budget struct {
	ID          int64 `json:"id"`
	TotalBudget int64 `json:"total_budget"`
}

// RemainingBudget is an envelope inside a budget and the money left in it.
// The JSON names match the backend's envelope table.
type RemainingBudget struct {
	ID       int64  `json:"id"`
	Name     string `json:"anvelope_name"`
	Amount   int64  `json:"anvelope_budget"`
	BudgetID int64  `json:"budget_id"`
}

// NewBudget is the create payload for a budget.
type NewBudget struct {
	TotalBudget int64 `json:"total_budget"`
}

// Validate reports whether the payload can be stored.
func (b NewBudget) Validate() error {
	if b.TotalBudget < 0 {
		return fmt.Errorf("%w: total_budget must be >= 0, got %d", ErrInvalidInput, b.TotalBudget)
	}
	return nil
}

// NewEnvelope is the create payload for an envelope.
type NewEnvelope struct {
	Name     string `json:"anvelope_name"`
	Amount   int64  `json:"anvelope_budget"`
	BudgetID int64  `json:"budget_id"`
}

// Validate reports whether the payload can be stored.
func (e NewEnvelope) Validate() error {
	name := strings.TrimSpace(e.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: anvelope_name is required", ErrInvalidInput)
	case utf8.RuneCountInString(name) > MaxEnvelopeName:
		return fmt.Errorf("%w: anvelope_name longer than %d characters", ErrInvalidInput, MaxEnvelopeName)
	case e.Amount < 0:
		return fmt.Errorf("%w: anvelope_budget must be >= 0, got %d", ErrInvalidInput, e.Amount)
	case e.BudgetID < 0:
		return fmt.Errorf("%w: budget_id must be >= 0, got %d", ErrInvalidInput, e.BudgetID)
	}
	return nil
}

// TotalRemaining sums the money left across envelopes.
func TotalRemaining(envelopes []RemainingBudget) int64 {
	var total int64
	for _, e := range envelopes {
		total += e.Amount
	}
	return total
}
