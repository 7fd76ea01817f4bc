package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/envbudget/internal/cli"
	"github.com/theirongolddev/envbudget/internal/model"
	"github.com/theirongolddev/envbudget/internal/tui/components"
	"github.com/theirongolddev/envbudget/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderEnvelopesTab(cw, h int) string {
	t := theme.Active
	snap := a.st.Snapshot()
	envs := snap.RemainingBudgets

	var budgetTotal int64
	haveBudget := false
	for _, b := range snap.Budgets {
		if b.ID == a.budgetID {
			budgetTotal = b.TotalBudget
			haveBudget = true
			break
		}
	}
	remaining := model.TotalRemaining(envs)

	budgetValue := "-"
	if haveBudget {
		budgetValue = cli.FormatAmount(budgetTotal)
	}
	remainingNote := ""
	if haveBudget && budgetTotal > 0 {
		remainingNote = cli.FormatPercent(cli.Share(remaining, budgetTotal)) + " of budget"
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Envelopes", Value: cli.FormatNumber(int64(len(envs)))},
		{Label: "Remaining", Value: cli.FormatAmount(remaining), Note: remainingNote, Warn: remaining < 0},
		{Label: "Budget", Value: budgetValue, Note: budgetLabel(a.budgetID)},
	}, cw))
	b.WriteString("\n")

	title := "Envelopes · " + budgetLabel(a.budgetID)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	switch {
	case a.budgetID == 0:
		b.WriteString(components.ContentCard(title, mutedStyle.Render("No budget selected. Create one on the Budgets tab."), cw))
		return b.String()
	case len(envs) == 0:
		b.WriteString(components.ContentCard(title, mutedStyle.Render("No envelopes. Press n to add one."), cw))
		return b.String()
	}

	innerW := components.CardInnerWidth(cw)
	const amountW = 12
	nameW := innerW / 3
	if nameW > 28 {
		nameW = 28
	}
	barW := innerW - 2 - nameW - 1 - 1 - 5 - 1 - amountW
	if barW < 6 {
		barW = 6
	}

	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	amountStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	negStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	listH := h - lipgloss.Height(b.String()) - 3
	start, end := visibleRange(a.envCursor, len(envs), listH)

	var body strings.Builder
	for i := start; i < end; i++ {
		env := envs[i]
		marker := spaceStyle.Render("  ")
		if i == a.envCursor {
			marker = markerStyle.Render("▸ ")
		}

		share := 0.0
		if haveBudget {
			share = cli.Share(env.Amount, budgetTotal)
		}

		style := amountStyle
		if env.Amount < 0 {
			style = negStyle
		}

		body.WriteString(marker)
		body.WriteString(components.ShareBar(env.Name, share, nameW, barW))
		body.WriteString(spaceStyle.Render(" "))
		body.WriteString(style.Render(fmt.Sprintf("%*s", amountW, cli.FormatAmount(env.Amount))))
		if i < end-1 {
			body.WriteString("\n")
		}
	}

	b.WriteString(components.ContentCard(fmt.Sprintf("%s (%d)", title, len(envs)), body.String(), cw))
	return b.String()
}

func budgetLabel(id int64) string {
	if id == 0 {
		return "no budget"
	}
	return fmt.Sprintf("budget #%d", id)
}
