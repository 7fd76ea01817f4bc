package components

import (
	"strings"

	"github.com/theirongolddev/envbudget/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar. status is shown on the
// left after the key hints; errMsg, when set, replaces it in red.
// dataAge is right-aligned.
func RenderStatusBar(width int, status, errMsg, dataAge string, busy bool) string {
	t := theme.Active

	base := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	hintStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)
	errStyle := lipgloss.NewStyle().
		Foreground(t.Red).
		Background(t.Surface)
	busyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	left := hintStyle.Render(" [?]help  [q]uit")
	switch {
	case errMsg != "":
		left += base.Render("  ") + errStyle.Render(errMsg)
	case status != "":
		left += base.Render("  " + status)
	}

	right := ""
	if busy {
		right = busyStyle.Render("syncing… ")
	} else if dataAge != "" {
		right = base.Render("Synced " + dataAge + " ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return left + base.Render(strings.Repeat(" ", padding)) + right
}
