// Package tui provides the interactive Bubble Tea dashboard for envbudget.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/envbudget/internal/api"
	"github.com/theirongolddev/envbudget/internal/model"
	"github.com/theirongolddev/envbudget/internal/state"
	"github.com/theirongolddev/envbudget/internal/tui/components"
	"github.com/theirongolddev/envbudget/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// BudgetsLoadedMsg is sent when a full fetch of budgets and envelopes completes.
type BudgetsLoadedMsg struct {
	Snapshot *api.Snapshot
	Seq      uint64
}

// EnvelopesLoadedMsg is sent when the envelopes of one budget have been fetched.
type EnvelopesLoadedMsg struct {
	BudgetID  int64
	Envelopes []model.RemainingBudget
	Err       error
	Seq       uint64
}

// ActionDoneMsg is sent when a create, adjust or delete call returns.
// BudgetID is the budget to show once the follow-up refresh runs.
type ActionDoneMsg struct {
	Status   string
	BudgetID int64
	Err      error
}

var errNoBackend = errors.New("no backend configured (set --api-url or [client] base_url)")

const (
	tabBudgets = iota
	tabEnvelopes
)

// App is the root Bubble Tea model. It renders only from st; fetched data
// reaches st through the loaded messages in Update.
type App struct {
	st     *state.BudgetState
	client *api.Client

	// Budget whose envelopes are held as remaining budgets (0 = first budget)
	budgetID int64

	loaded   bool
	syncing  bool
	fetchSeq uint64 // latest fetch issued; replies to older ones are dropped
	lastSync time.Time
	status   string
	errMsg   string

	// UI state
	width        int
	height       int
	activeTab    int
	showHelp     bool
	budgetCursor int
	envCursor    int

	// Active huh form, if any
	form     *huh.Form
	formVals *formValues

	spinner spinner.Model
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 140
	minContentHeight = 5

	requestTimeout = 15 * time.Second
)

// NewApp creates a new TUI app model over st. budgetID selects the budget
// whose envelopes are shown first; 0 picks the first budget.
func NewApp(st *state.BudgetState, client *api.Client, budgetID int64) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		st:       st,
		client:   client,
		budgetID: budgetID,
		syncing:  true,
		fetchSeq: 1,
		spinner:  sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		fetchAllCmd(a.client, a.budgetID, a.fetchSeq),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(a.formWidth())
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.form != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			a.moveCursor(1)
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.form != nil {
			if msg.String() == "esc" {
				a.form = nil
				a.formVals = nil
				return a, nil
			}
			return a.updateForm(msg)
		}
		return a.handleKey(msg.String())

	case BudgetsLoadedMsg:
		if msg.Seq != a.fetchSeq {
			return a, nil
		}
		a.loaded = true
		a.syncing = false
		snap := msg.Snapshot
		if snap == nil {
			return a, nil
		}
		a.lastSync = snap.FetchedAt
		api.Apply(a.st, snap)
		if snap.Error != nil {
			a.errMsg = snap.Error.Error()
		} else {
			a.errMsg = ""
			a.budgetID = snap.BudgetID
		}
		a.clampCursors()
		return a, nil

	case EnvelopesLoadedMsg:
		if msg.Seq != a.fetchSeq {
			return a, nil
		}
		a.syncing = false
		if msg.Err != nil {
			a.errMsg = msg.Err.Error()
			return a, nil
		}
		a.errMsg = ""
		a.budgetID = msg.BudgetID
		a.lastSync = time.Now()
		a.st.SetRemainingBudgets(msg.Envelopes)
		a.envCursor = 0
		a.clampCursors()
		return a, nil

	case ActionDoneMsg:
		if msg.Err != nil {
			a.errMsg = msg.Err.Error()
			a.status = ""
			return a, nil
		}
		a.errMsg = ""
		a.status = msg.Status
		a.budgetID = msg.BudgetID
		cmd := a.fetchAll()
		return a, cmd

	case spinner.TickMsg:
		if !a.loaded || a.syncing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the form (cursor blinks, etc.)
	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) handleKey(key string) (tea.Model, tea.Cmd) {
	if !a.loaded {
		if key == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "b", "e":
		a.activeTab = components.TabIdxByKey(rune(key[0]))
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "j", "down":
		a.moveCursor(1)
	case "k", "up":
		a.moveCursor(-1)
	case "g":
		a.budgetCursor, a.envCursor = 0, 0
	case "r":
		if !a.syncing {
			cmd := a.fetchAll()
			return a, tea.Batch(a.spinner.Tick, cmd)
		}
	case "enter":
		if a.activeTab == tabBudgets {
			if b, ok := a.selectedBudget(); ok {
				a.activeTab = tabEnvelopes
				cmd := a.loadEnvelopes(b.ID)
				return a, tea.Batch(a.spinner.Tick, cmd)
			}
		}
	case "n":
		return a.openCreateForm()
	case "+", "=", "-":
		kind := formAddMoney
		if key == "-" {
			kind = formSpendMoney
		}
		if env, ok := a.selectedEnvelope(); ok && a.activeTab == tabEnvelopes {
			a.formVals = &formValues{}
			return a.startForm(newAmountForm(a.formVals, kind, env))
		}
	case "d":
		return a.openDeleteForm()
	}
	return a, nil
}

func (a App) openCreateForm() (tea.Model, tea.Cmd) {
	a.formVals = &formValues{}
	if a.activeTab == tabBudgets {
		return a.startForm(newBudgetForm(a.formVals))
	}
	if a.budgetID == 0 {
		a.status = ""
		a.errMsg = "Create a budget first"
		return a, nil
	}
	return a.startForm(newEnvelopeForm(a.formVals, a.budgetID))
}

func (a App) openDeleteForm() (tea.Model, tea.Cmd) {
	switch a.activeTab {
	case tabBudgets:
		b, ok := a.selectedBudget()
		if !ok {
			return a, nil
		}
		a.formVals = &formValues{}
		return a.startForm(newDeleteBudgetForm(a.formVals, b))
	case tabEnvelopes:
		env, ok := a.selectedEnvelope()
		if !ok {
			return a, nil
		}
		a.formVals = &formValues{}
		return a.startForm(newDeleteEnvelopeForm(a.formVals, env))
	}
	return a, nil
}

func (a App) startForm(f *huh.Form) (tea.Model, tea.Cmd) {
	a.form = f
	if a.width > 0 {
		a.form = a.form.WithWidth(a.formWidth())
	}
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		vals := *a.formVals
		a.form = nil
		a.formVals = nil
		if !vals.confirmed() {
			return a, nil
		}
		a.status = "Saving…"
		return a, submitCmd(a.client, vals, a.budgetID)
	case huh.StateAborted:
		a.form = nil
		a.formVals = nil
		return a, nil
	}
	return a, cmd
}

func (a *App) moveCursor(delta int) {
	switch a.activeTab {
	case tabBudgets:
		a.budgetCursor += delta
	case tabEnvelopes:
		a.envCursor += delta
	}
	a.clampCursors()
}

func (a *App) clampCursors() {
	a.budgetCursor = clamp(a.budgetCursor, len(a.st.Budgets()))
	a.envCursor = clamp(a.envCursor, len(a.st.RemainingBudgets()))
}

func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

func (a App) selectedBudget() (model.Budget, bool) {
	budgets := a.st.Budgets()
	if a.budgetCursor < 0 || a.budgetCursor >= len(budgets) {
		return model.Budget{}, false
	}
	return budgets[a.budgetCursor], true
}

func (a App) selectedEnvelope() (model.RemainingBudget, bool) {
	envs := a.st.RemainingBudgets()
	if a.envCursor < 0 || a.envCursor >= len(envs) {
		return model.RemainingBudget{}, false
	}
	return envs[a.envCursor], true
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) formWidth() int {
	w := a.contentWidth() - 8
	if w > 60 {
		w = 60
	}
	return w
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.form != nil {
		return a.viewForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  envbudget needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ envbudget"))
	b.WriteString(subtitleStyle.Render(" · Envelope budgets"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Loading budgets..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewForm() string {
	t := theme.Active
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)

	hint := lipgloss.NewStyle().Foreground(t.TextDim).Render("enter to confirm · esc to cancel")
	card := cardStyle.Render(a.form.View() + "\n" + hint)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"b e", "Budgets / Envelopes tab"},
			{"← → tab", "Switch tab"},
			{"j k", "Move selection"},
			{"enter", "Show envelopes of budget"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"n", "New budget / envelope"},
			{"+ -", "Add / spend money"},
			{"d", "Delete selected"},
			{"r", "Refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	age := ""
	if !a.lastSync.IsZero() {
		age = formatAge(time.Since(a.lastSync))
	}
	status := a.status
	if a.syncing {
		status = a.spinner.View() + " " + status
	}
	statusBar := components.RenderStatusBar(w, status, a.errMsg, age, a.syncing)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabBudgets:
		content = a.renderBudgetsTab(cw, contentH)
	case tabEnvelopes:
		content = a.renderEnvelopesTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

// fetchAll supersedes any fetch in flight with a full refresh.
func (a *App) fetchAll() tea.Cmd {
	a.fetchSeq++
	a.syncing = true
	return fetchAllCmd(a.client, a.budgetID, a.fetchSeq)
}

// loadEnvelopes supersedes any fetch in flight with an envelope load for budgetID.
func (a *App) loadEnvelopes(budgetID int64) tea.Cmd {
	a.fetchSeq++
	a.syncing = true
	return loadEnvelopesCmd(a.client, budgetID, a.fetchSeq)
}

func fetchAllCmd(client *api.Client, budgetID int64, seq uint64) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return BudgetsLoadedMsg{Snapshot: &api.Snapshot{FetchedAt: time.Now(), Error: errNoBackend}, Seq: seq}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return BudgetsLoadedMsg{Snapshot: client.FetchAll(ctx, budgetID), Seq: seq}
	}
}

func loadEnvelopesCmd(client *api.Client, budgetID int64, seq uint64) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return EnvelopesLoadedMsg{BudgetID: budgetID, Err: errNoBackend, Seq: seq}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		envs, err := client.LoadEnvelopes(ctx, budgetID)
		return EnvelopesLoadedMsg{BudgetID: budgetID, Envelopes: envs, Err: err, Seq: seq}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func formatAge(d time.Duration) string {
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}
