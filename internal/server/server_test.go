package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/envbudget/internal/model"
	"github.com/theirongolddev/envbudget/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "envbudget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ts := httptest.NewServer(New(Config{}, st, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRootAndHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Hello from envbudget!", decodeBody[message](t, resp).Message)

	resp = do(t, ts, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBudgetEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/budget/create", `{"total_budget": 1200}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := decodeBody[created](t, resp).ID
	require.Positive(t, id)

	resp = do(t, ts, http.MethodGet, "/api/budget/load", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []model.Budget{{ID: id, TotalBudget: 1200}}, decodeBody[[]model.Budget](t, resp))

	resp = do(t, ts, http.MethodDelete, "/api/budget/delete/"+itoa(id), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, decodeBody[message](t, resp).Message, "deleted successfully")

	resp = do(t, ts, http.MethodDelete, "/api/budget/delete/"+itoa(id), "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateBudgetValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/budget/create", `{"total_budget": -1}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	for _, body := range []string{`{}`, `{"total_budget": null}`, `{"total": 5}`} {
		resp = do(t, ts, http.MethodPost, "/api/budget/create", body)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, body)
		require.Contains(t, decodeBody[errorBody](t, resp).Detail, "total_budget is required")
	}

	resp = do(t, ts, http.MethodGet, "/api/budget/load", "")
	require.Empty(t, decodeBody[[]model.Budget](t, resp))

	resp = do(t, ts, http.MethodPost, "/api/budget/create", `{"total_budget":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotEmpty(t, decodeBody[errorBody](t, resp).Detail)
}

func TestEnvelopeEndpoints(t *testing.T) {
	ts := newTestServer(t)

	budgetID := decodeBody[created](t, do(t, ts, http.MethodPost, "/api/budget/create", `{"total_budget": 500}`)).ID

	resp := do(t, ts, http.MethodPost, "/api/anvelopes/create",
		`{"anvelope_name": "Groceries", "anvelope_budget": 100, "budget_id": `+itoa(budgetID)+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	envID := decodeBody[created](t, resp).ID

	resp = do(t, ts, http.MethodPost, "/api/anvelopes/add_money/"+itoa(envID)+"/30", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, ts, http.MethodPost, "/api/anvelopes/spend_money/"+itoa(envID)+"/90", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/anvelopes/load/"+itoa(budgetID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []model.RemainingBudget{
		{ID: envID, Name: "Groceries", Amount: 40, BudgetID: budgetID},
	}, decodeBody[[]model.RemainingBudget](t, resp))

	resp = do(t, ts, http.MethodDelete, "/api/anvelopes/delete/"+itoa(envID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/anvelopes/load/"+itoa(budgetID), "")
	require.Empty(t, decodeBody[[]model.RemainingBudget](t, resp))
}

func TestEnvelopeErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown budget", http.MethodPost, "/api/anvelopes/create", `{"anvelope_name":"X","anvelope_budget":1,"budget_id":99}`, http.StatusNotFound},
		{"missing budget id", http.MethodPost, "/api/anvelopes/create", `{"anvelope_name":"X","anvelope_budget":1}`, http.StatusUnprocessableEntity},
		{"missing amount", http.MethodPost, "/api/anvelopes/create", `{"anvelope_name":"X","budget_id":1}`, http.StatusUnprocessableEntity},
		{"empty name", http.MethodPost, "/api/anvelopes/create", `{"anvelope_name":"","anvelope_budget":1,"budget_id":1}`, http.StatusUnprocessableEntity},
		{"unknown envelope", http.MethodPost, "/api/anvelopes/add_money/12/5", "", http.StatusNotFound},
		{"negative amount", http.MethodPost, "/api/anvelopes/spend_money/1/-5", "", http.StatusBadRequest},
		{"non-numeric id", http.MethodGet, "/api/anvelopes/load/abc", "", http.StatusBadRequest},
		{"delete missing", http.MethodDelete, "/api/anvelopes/delete/4", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, tt.method, tt.path, tt.body)
			require.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAdjustOverflowRejected(t *testing.T) {
	ts := newTestServer(t)

	budgetID := decodeBody[created](t, do(t, ts, http.MethodPost, "/api/budget/create", `{"total_budget": 10}`)).ID
	body := `{"anvelope_name": "Rainy day", "anvelope_budget": 1, "budget_id": ` + itoa(budgetID) + `}`
	envID := decodeBody[created](t, do(t, ts, http.MethodPost, "/api/anvelopes/create", body)).ID
	maxAmount := strconv.FormatInt(math.MaxInt64, 10)

	resp := do(t, ts, http.MethodPost, "/api/anvelopes/add_money/"+itoa(envID)+"/"+maxAmount, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// 1 - MaxInt64 - 2 is MinInt64; one more unit overflows.
	resp = do(t, ts, http.MethodPost, "/api/anvelopes/spend_money/"+itoa(envID)+"/"+maxAmount, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, ts, http.MethodPost, "/api/anvelopes/spend_money/"+itoa(envID)+"/2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, ts, http.MethodPost, "/api/anvelopes/spend_money/"+itoa(envID)+"/1", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/anvelopes/load/"+itoa(budgetID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []model.RemainingBudget{
		{ID: envID, Name: "Rainy day", Amount: math.MinInt64, BudgetID: budgetID},
	}, decodeBody[[]model.RemainingBudget](t, resp))
}

func TestPreflight(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts, http.MethodOptions, "/api/budget/create", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}

type failingRepo struct{ Repository }

func (failingRepo) ListBudgets(context.Context) ([]model.Budget, error) {
	return nil, errors.New("disk on fire")
}

func TestInternalErrorHidesDetail(t *testing.T) {
	ts := httptest.NewServer(New(Config{}, failingRepo{}, nil).Handler())
	defer ts.Close()

	resp := do(t, ts, http.MethodGet, "/api/budget/load", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "internal error", decodeBody[errorBody](t, resp).Detail)
}

func TestRunStopsOnCancel(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "envbudget.db"))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Config{Addr: "127.0.0.1:0"}, st, nil).Run(ctx) }()

	cancel()
	require.NoError(t, <-done)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
