package api

import (
	"context"

	"github.com/theirongolddev/envbudget/internal/state"
)

// Sync fetches budgets and envelopes and pushes whatever arrived into st.
// Sequences that failed to load are left untouched in st.
func Sync(ctx context.Context, c *Client, st *state.BudgetState, budgetID int64) *Snapshot {
	snap := c.FetchAll(ctx, budgetID)
	Apply(st, snap)
	return snap
}

// Apply pushes a fetched snapshot into st through its setters.
func Apply(st *state.BudgetState, snap *Snapshot) {
	if snap == nil || snap.Budgets == nil {
		return
	}
	st.SetBudgets(snap.Budgets)

	if snap.Error == nil {
		st.SetRemainingBudgets(snap.Envelopes)
	}
}
