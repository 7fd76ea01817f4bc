package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/envbudget/internal/cli"
	"github.com/theirongolddev/envbudget/internal/model"
	"github.com/theirongolddev/envbudget/internal/tui/components"
	"github.com/theirongolddev/envbudget/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderBudgetsTab(cw, h int) string {
	t := theme.Active
	snap := a.st.Snapshot()
	budgets := snap.Budgets

	var total int64
	for _, b := range budgets {
		total += b.TotalBudget
	}
	remaining := model.TotalRemaining(snap.RemainingBudgets)

	showing := "none"
	if a.budgetID != 0 {
		showing = "#" + strconv.FormatInt(a.budgetID, 10)
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Budgets", Value: cli.FormatNumber(int64(len(budgets)))},
		{Label: "Budgeted", Value: cli.FormatAmount(total), Note: "across all budgets"},
		{Label: "Remaining", Value: cli.FormatAmount(remaining), Note: "in budget " + showing, Warn: remaining < 0},
	}, cw))
	b.WriteString("\n")

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(budgets) == 0 {
		b.WriteString(components.ContentCard("Budgets", mutedStyle.Render("No budgets yet. Press n to create one."), cw))
		return b.String()
	}

	innerW := components.CardInnerWidth(cw)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(innerW)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true).Width(innerW)

	listH := h - lipgloss.Height(b.String()) - 3
	start, end := visibleRange(a.budgetCursor, len(budgets), listH)

	var body strings.Builder
	for i := start; i < end; i++ {
		bud := budgets[i]
		marker := "  "
		if i == a.budgetCursor {
			marker = "▸ "
		}
		tag := ""
		if bud.ID == a.budgetID {
			tag = "  ● envelopes shown"
		}

		amount := cli.FormatAmount(bud.TotalBudget)
		label := fmt.Sprintf("%sBudget #%d", marker, bud.ID)
		gap := innerW - lipgloss.Width(label) - lipgloss.Width(amount) - lipgloss.Width(tag)
		if gap < 1 {
			gap = 1
		}
		line := label + tag + strings.Repeat(" ", gap) + amount

		if i == a.budgetCursor {
			body.WriteString(selStyle.Render(line))
		} else {
			body.WriteString(rowStyle.Render(line))
		}
		if i < end-1 {
			body.WriteString("\n")
		}
	}

	title := fmt.Sprintf("Budgets (%d)", len(budgets))
	b.WriteString(components.ContentCard(title, body.String(), cw))
	return b.String()
}

// visibleRange returns the [start, end) window of n rows that keeps cursor
// in view when only limit rows fit.
func visibleRange(cursor, n, limit int) (int, int) {
	if limit < 1 {
		limit = 1
	}
	if n <= limit {
		return 0, n
	}
	start := cursor - limit/2
	if start < 0 {
		start = 0
	}
	if start > n-limit {
		start = n - limit
	}
	return start, start + limit
}
