package tui

import (
	"errors"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/envbudget/internal/api"
	"github.com/theirongolddev/envbudget/internal/model"
	"github.com/theirongolddev/envbudget/internal/server"
	"github.com/theirongolddev/envbudget/internal/state"
	"github.com/theirongolddev/envbudget/internal/store"
	"github.com/theirongolddev/envbudget/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestBackend(t *testing.T) *api.Client {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "envbudget.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ts := httptest.NewServer(server.New(server.Config{}, st, nil).Handler())
	t.Cleanup(ts.Close)
	return api.NewClient(ts.URL)
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return next, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedApp(t *testing.T, budgets []model.Budget, envs []model.RemainingBudget, budgetID int64) App {
	t.Helper()
	a := NewApp(state.New(), nil, 0)
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	a, _ = update(t, a, BudgetsLoadedMsg{Snapshot: &api.Snapshot{
		Budgets:   budgets,
		Envelopes: envs,
		BudgetID:  budgetID,
		FetchedAt: time.Now(),
	}, Seq: a.fetchSeq})
	return a
}

func TestBudgetsLoadedPushesIntoStore(t *testing.T) {
	budgets := []model.Budget{{ID: 1, TotalBudget: 500}, {ID: 2, TotalBudget: 900}}
	envs := []model.RemainingBudget{{ID: 7, Name: "Rent", Amount: 400, BudgetID: 1}}

	a := loadedApp(t, budgets, envs, 1)

	if !a.loaded || a.syncing {
		t.Fatalf("loaded=%v syncing=%v after BudgetsLoadedMsg", a.loaded, a.syncing)
	}
	if got := a.st.Budgets(); !reflect.DeepEqual(got, budgets) {
		t.Errorf("store budgets = %v", got)
	}
	if got := a.st.RemainingBudgets(); !reflect.DeepEqual(got, envs) {
		t.Errorf("store remaining = %v", got)
	}
	if a.budgetID != 1 {
		t.Errorf("budgetID = %d, want 1", a.budgetID)
	}
}

func TestFailedEnvelopeFetchKeepsRemaining(t *testing.T) {
	envs := []model.RemainingBudget{{ID: 7, Name: "Rent", Amount: 400, BudgetID: 1}}
	a := loadedApp(t, []model.Budget{{ID: 1, TotalBudget: 500}}, envs, 1)

	a, _ = update(t, a, BudgetsLoadedMsg{Snapshot: &api.Snapshot{
		Budgets:  []model.Budget{{ID: 1, TotalBudget: 600}},
		BudgetID: 3,
		Error:    api.ErrUnavailable,
	}, Seq: a.fetchSeq})

	if got := a.st.RemainingBudgets(); !reflect.DeepEqual(got, envs) {
		t.Errorf("remaining replaced after failed fetch: %v", got)
	}
	if got := a.st.Budgets(); got[0].TotalBudget != 600 {
		t.Errorf("budgets not refreshed: %v", got)
	}
	if a.budgetID != 1 {
		t.Errorf("budgetID = %d, want unchanged 1", a.budgetID)
	}
	if !strings.Contains(a.errMsg, "unavailable") {
		t.Errorf("errMsg = %q", a.errMsg)
	}
}

func TestEnvelopesLoadedReplacesRemaining(t *testing.T) {
	a := loadedApp(t, []model.Budget{{ID: 1, TotalBudget: 10}, {ID: 2, TotalBudget: 20}}, nil, 1)
	envs := []model.RemainingBudget{{ID: 3, Name: "Fuel", Amount: 20, BudgetID: 2}}

	a, _ = update(t, a, EnvelopesLoadedMsg{BudgetID: 2, Envelopes: envs, Seq: a.fetchSeq})
	if got := a.st.RemainingBudgets(); !reflect.DeepEqual(got, envs) {
		t.Fatalf("remaining = %v", got)
	}
	if a.budgetID != 2 {
		t.Errorf("budgetID = %d, want 2", a.budgetID)
	}

	a, _ = update(t, a, EnvelopesLoadedMsg{BudgetID: 1, Err: errors.New("boom"), Seq: a.fetchSeq})
	if a.budgetID != 2 || a.errMsg != "boom" {
		t.Errorf("failed load changed selection: budgetID=%d err=%q", a.budgetID, a.errMsg)
	}
}

func TestKeyNavigation(t *testing.T) {
	a := loadedApp(t, []model.Budget{{ID: 1, TotalBudget: 10}, {ID: 2, TotalBudget: 20}}, nil, 1)

	a, _ = update(t, a, key("j"))
	a, _ = update(t, a, key("j"))
	if a.budgetCursor != 1 {
		t.Errorf("budgetCursor = %d, want clamped to 1", a.budgetCursor)
	}
	a, _ = update(t, a, key("k"))
	if a.budgetCursor != 0 {
		t.Errorf("budgetCursor = %d, want 0", a.budgetCursor)
	}

	a, _ = update(t, a, key("e"))
	if a.activeTab != tabEnvelopes {
		t.Errorf("activeTab = %d after e", a.activeTab)
	}
	a, _ = update(t, a, key("b"))
	if a.activeTab != tabBudgets {
		t.Errorf("activeTab = %d after b", a.activeTab)
	}

	a, _ = update(t, a, key("?"))
	if !a.showHelp {
		t.Fatal("? did not open help")
	}
	a, _ = update(t, a, key("j"))
	if a.showHelp || a.budgetCursor != 0 {
		t.Errorf("key while help shown should only close it")
	}
}

func TestEnterLoadsSelectedBudget(t *testing.T) {
	a := loadedApp(t, []model.Budget{{ID: 1, TotalBudget: 10}, {ID: 2, TotalBudget: 20}}, nil, 1)
	a, _ = update(t, a, key("j"))

	a, cmd := update(t, a, key("enter"))
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	if a.activeTab != tabEnvelopes || !a.syncing {
		t.Errorf("activeTab=%d syncing=%v after enter", a.activeTab, a.syncing)
	}

	if a.fetchSeq != 2 {
		t.Errorf("fetchSeq = %d after enter, want 2", a.fetchSeq)
	}

	msg := loadEnvelopesCmd(nil, 2, a.fetchSeq)()
	loaded, ok := msg.(EnvelopesLoadedMsg)
	if !ok || loaded.BudgetID != 2 || loaded.Seq != a.fetchSeq || !errors.Is(loaded.Err, errNoBackend) {
		t.Errorf("loadEnvelopesCmd(nil) = %#v", msg)
	}
}

func TestNewEnvelopeNeedsBudget(t *testing.T) {
	a := loadedApp(t, nil, nil, 0)
	a, _ = update(t, a, key("e"))
	a, _ = update(t, a, key("n"))
	if a.form != nil {
		t.Fatal("envelope form opened without a budget")
	}
	if a.errMsg == "" {
		t.Error("expected a hint in errMsg")
	}

	a, _ = update(t, a, key("b"))
	a, _ = update(t, a, key("n"))
	if a.form == nil || a.formVals.kind != formNewBudget {
		t.Fatal("n on Budgets tab did not open the budget form")
	}
	if !strings.Contains(a.View(), "New budget") {
		t.Error("form view missing title")
	}

	a, _ = update(t, a, key("esc"))
	if a.form != nil {
		t.Error("esc did not close the form")
	}
}

func TestAmountKeysOnlyOnEnvelopes(t *testing.T) {
	envs := []model.RemainingBudget{{ID: 7, Name: "Rent", Amount: 400, BudgetID: 1}}
	a := loadedApp(t, []model.Budget{{ID: 1, TotalBudget: 500}}, envs, 1)

	a, _ = update(t, a, key("+"))
	if a.form != nil {
		t.Fatal("+ on Budgets tab opened a form")
	}

	a, _ = update(t, a, key("e"))
	a, _ = update(t, a, key("-"))
	if a.form == nil || a.formVals.kind != formSpendMoney || a.formVals.envelopeID != 7 {
		t.Fatalf("- did not open spend form: %+v", a.formVals)
	}
}

func TestOutdatedRepliesAreDropped(t *testing.T) {
	budgets := []model.Budget{{ID: 1, TotalBudget: 10}, {ID: 2, TotalBudget: 20}}
	first := []model.RemainingBudget{{ID: 5, Name: "Rent", Amount: 8, BudgetID: 1}}
	second := []model.RemainingBudget{{ID: 6, Name: "Fuel", Amount: 12, BudgetID: 2}}
	a := loadedApp(t, budgets, first, 1)

	// Refresh of budget 1, then the user picks budget 2 before it returns.
	a, _ = update(t, a, key("r"))
	refreshSeq := a.fetchSeq
	a, _ = update(t, a, key("j"))
	a, _ = update(t, a, key("enter"))
	if a.fetchSeq == refreshSeq {
		t.Fatal("enter did not supersede the pending refresh")
	}

	a, _ = update(t, a, EnvelopesLoadedMsg{BudgetID: 2, Envelopes: second, Seq: a.fetchSeq})
	a, _ = update(t, a, BudgetsLoadedMsg{Snapshot: &api.Snapshot{
		Budgets:   budgets,
		Envelopes: first,
		BudgetID:  1,
		FetchedAt: time.Now(),
	}, Seq: refreshSeq})

	if a.budgetID != 2 {
		t.Errorf("budgetID = %d, want 2", a.budgetID)
	}
	if got := a.st.RemainingBudgets(); !reflect.DeepEqual(got, second) {
		t.Errorf("remaining = %v, want budget 2 envelopes", got)
	}

	// Two quick selections: only the later one lands.
	a, _ = update(t, a, key("b"))
	a, _ = update(t, a, key("enter"))
	staleSeq := a.fetchSeq
	a, _ = update(t, a, key("b"))
	a, _ = update(t, a, key("k"))
	a, _ = update(t, a, key("enter"))

	a, _ = update(t, a, EnvelopesLoadedMsg{BudgetID: 2, Envelopes: second, Seq: staleSeq})
	if !a.syncing || a.budgetID != 2 {
		t.Fatalf("outdated reply was applied: syncing=%v budgetID=%d", a.syncing, a.budgetID)
	}
	a, _ = update(t, a, EnvelopesLoadedMsg{BudgetID: 1, Envelopes: first, Seq: a.fetchSeq})
	if a.syncing || a.budgetID != 1 {
		t.Errorf("syncing=%v budgetID=%d, want settled on budget 1", a.syncing, a.budgetID)
	}
	if got := a.st.RemainingBudgets(); !reflect.DeepEqual(got, first) {
		t.Errorf("remaining = %v, want budget 1 envelopes", got)
	}
}

func TestNoBackend(t *testing.T) {
	msg := fetchAllCmd(nil, 0, 1)()
	loaded, ok := msg.(BudgetsLoadedMsg)
	if !ok || !errors.Is(loaded.Snapshot.Error, errNoBackend) {
		t.Fatalf("fetchAllCmd(nil) = %#v", msg)
	}

	done := submitCmd(nil, formValues{kind: formNewBudget, amount: "5"}, 0)()
	if d, ok := done.(ActionDoneMsg); !ok || !errors.Is(d.Err, errNoBackend) {
		t.Fatalf("submitCmd(nil) = %#v", done)
	}
}

func TestSubmitAndRefreshAgainstBackend(t *testing.T) {
	client := newTestBackend(t)

	msg := submitCmd(client, formValues{kind: formNewBudget, amount: "750"}, 0)()
	done, ok := msg.(ActionDoneMsg)
	if !ok || done.Err != nil {
		t.Fatalf("create budget: %#v", msg)
	}

	msg = submitCmd(client, formValues{kind: formNewEnvelope, name: " Food ", amount: "200", budgetID: done.BudgetID}, done.BudgetID)()
	if d := msg.(ActionDoneMsg); d.Err != nil || !strings.Contains(d.Status, `"Food"`) {
		t.Fatalf("create envelope: %#v", msg)
	}

	a := NewApp(state.New(), client, 0)
	a, cmd := update(t, a, done)
	if cmd == nil || !a.syncing {
		t.Fatal("ActionDoneMsg should trigger a refresh")
	}

	a, _ = update(t, a, fetchAllCmd(client, a.budgetID, a.fetchSeq)())
	if got := a.st.Budgets(); len(got) != 1 || got[0].TotalBudget != 750 {
		t.Fatalf("budgets = %v", got)
	}
	if got := a.st.RemainingBudgets(); len(got) != 1 || got[0].Name != "Food" {
		t.Fatalf("remaining = %v", got)
	}

	envID := a.st.RemainingBudgets()[0].ID
	msg = submitCmd(client, formValues{kind: formSpendMoney, amount: "250", envelopeID: envID, budgetID: done.BudgetID}, done.BudgetID)()
	if d := msg.(ActionDoneMsg); d.Err != nil {
		t.Fatalf("spend: %v", d.Err)
	}
	a, _ = update(t, a, fetchAllCmd(client, a.budgetID, a.fetchSeq)())
	if got := a.st.RemainingBudgets()[0].Amount; got != -50 {
		t.Fatalf("amount after overspend = %d, want -50", got)
	}

	msg = submitCmd(client, formValues{kind: formDeleteBudget, confirm: true, budgetID: done.BudgetID}, done.BudgetID)()
	if d := msg.(ActionDoneMsg); d.Err != nil || d.BudgetID != 0 {
		t.Fatalf("delete current budget: %#v", msg)
	}
}

func TestFormValuesConfirmed(t *testing.T) {
	tests := []struct {
		vals formValues
		want bool
	}{
		{formValues{}, false},
		{formValues{kind: formNewBudget}, true},
		{formValues{kind: formDeleteBudget}, false},
		{formValues{kind: formDeleteEnvelope, confirm: true}, true},
	}
	for _, tt := range tests {
		if got := tt.vals.confirmed(); got != tt.want {
			t.Errorf("%+v.confirmed() = %v, want %v", tt.vals, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	if n, err := parseAmount(" 42 "); err != nil || n != 42 {
		t.Errorf("parseAmount(42) = %d, %v", n, err)
	}
	for _, bad := range []string{"", "abc", "-1", "1.5"} {
		if _, err := parseAmount(bad); !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("parseAmount(%q) err = %v", bad, err)
		}
	}
}

func TestViewRendersFromStore(t *testing.T) {
	envs := []model.RemainingBudget{{ID: 7, Name: "Rent", Amount: 400, BudgetID: 1}}
	a := loadedApp(t, []model.Budget{{ID: 1, TotalBudget: 500}}, envs, 1)

	if v := a.View(); !strings.Contains(v, "Budget #1") || !strings.Contains(v, "$500") {
		t.Errorf("budgets view missing data:\n%s", v)
	}

	a, _ = update(t, a, key("e"))
	if v := a.View(); !strings.Contains(v, "Rent") || !strings.Contains(v, "$400") {
		t.Errorf("envelopes view missing data:\n%s", v)
	}

	a.st.SetRemainingBudgets(nil)
	if v := a.View(); !strings.Contains(v, "No envelopes") {
		t.Errorf("view did not follow store change:\n%s", v)
	}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 10); got != -1 {
			t.Errorf("x past last tab = %d, want -1", got)
		}
	}
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		cursor, n, limit int
		start, end       int
	}{
		{0, 3, 10, 0, 3},
		{0, 20, 5, 0, 5},
		{10, 20, 5, 8, 13},
		{19, 20, 5, 15, 20},
		{0, 4, 0, 0, 1},
	}
	for _, tt := range tests {
		start, end := visibleRange(tt.cursor, tt.n, tt.limit)
		if start != tt.start || end != tt.end {
			t.Errorf("visibleRange(%d, %d, %d) = %d,%d want %d,%d",
				tt.cursor, tt.n, tt.limit, start, end, tt.start, tt.end)
		}
	}
}
