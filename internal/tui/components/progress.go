package components

import (
	"fmt"

	"github.com/theirongolddev/envbudget/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForRemaining returns green/yellow/orange/red by how much of a
// budget is still left in an envelope. Overdrawn envelopes are red.
func ColorForRemaining(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct <= 0:
		return t.Red
	case pct < 0.1:
		return t.Orange
	case pct < 0.25:
		return t.Yellow
	default:
		return t.Green
	}
}

// ShareBar renders a labeled bar showing pct (0-1) of a budget.
// Values outside 0-1 are clamped for the bar but shown as-is in the label.
func ShareBar(label string, pct float64, labelW, barWidth int) string {
	t := theme.Active

	shown := pct
	if shown < 0 {
		shown = 0
	}
	if shown > 1 {
		shown = 1
	}

	color := ColorForRemaining(pct)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) +
		spaceStyle.Render(" ") +
		bar.ViewAs(shown) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%4.0f%%", pct*100))
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
