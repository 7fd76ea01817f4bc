package api

import (
	"time"

	"github.com/theirongolddev/envbudget/internal/model"
)

// Snapshot is the result of one FetchAll round trip.
type Snapshot struct {
	Budgets   []model.Budget
	Envelopes []model.RemainingBudget
	BudgetID  int64 // budget the envelopes belong to; 0 if there were no budgets
	FetchedAt time.Time
	Error     error
}

type idResponse struct {
	ID int64 `json:"id"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
