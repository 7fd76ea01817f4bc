package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/theirongolddev/envbudget/internal/config"
	"github.com/theirongolddev/envbudget/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	baseURL := cfg.Client.BaseURL
	budget := ""
	if cfg.Client.BudgetID > 0 {
		budget = strconv.FormatInt(cfg.Client.BudgetID, 10)
	}
	addr := cfg.Server.Addr
	themeName := theme.ByName(cfg.Appearance.Theme).Name

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to envbudget!").
				Description("A few questions, then you're set.\nRun `envbudget setup` anytime to reconfigure."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Where `envbudget serve` is reachable").
				Value(&baseURL).
				Validate(validateBaseURL),
			huh.NewInput().
				Title("Default budget id").
				Description("Leave blank to use the first budget").
				Value(&budget).
				Validate(validateOptionalID),
			huh.NewInput().
				Title("Server listen address").
				Value(&addr),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("running setup: %w", err)
	}

	cfg.Client.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	cfg.Client.BudgetID = 0
	if b := strings.TrimSpace(budget); b != "" {
		cfg.Client.BudgetID, _ = strconv.ParseInt(b, 10, 64)
	}
	cfg.Server.Addr = strings.TrimSpace(addr)
	cfg.Appearance.Theme = themeName

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Start the backend with `envbudget serve`, then try `envbudget tui`.")
	fmt.Println()
	return nil
}

func validateBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("enter an absolute URL such as http://127.0.0.1:8000")
	}
	return nil
}

func validateOptionalID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := parseIDArg("budget id", s); err != nil {
		return err
	}
	return nil
}
