package cmd

import (
	"fmt"

	"github.com/theirongolddev/envbudget/internal/state"
	"github.com/theirongolddev/envbudget/internal/tui"
	"github.com/theirongolddev/envbudget/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var flagTUIBudget int64

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().Int64Var(&flagTUIBudget, "budget", 0, "Budget to open (default from config, else the first budget)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	theme.SetActive(cfg.Appearance.Theme)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	budgetID := cfg.Client.BudgetID
	if flagTUIBudget > 0 {
		budgetID = flagTUIBudget
	}

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(state.New(), client, budgetID)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
