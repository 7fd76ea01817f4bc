// Package cmd implements the envbudget CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/envbudget/internal/api"
	"github.com/theirongolddev/envbudget/internal/config"

	"github.com/spf13/cobra"
)

var (
	flagAPIURL   string
	flagQuiet    bool
	flagLogLevel string
)

const commandTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:   "envbudget",
	Short: "Envelope budgeting from the terminal",
	Long:  "Split budgets into envelopes, add and spend money, and watch what remains.",
	RunE:  runBudgetsList,

	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Backend base URL (overrides config and ENVBUDGET_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level for serve: debug, info, warn, error")
}

// loadConfig loads the config file, falling back to defaults when it is
// unreadable so client commands keep working.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		progress("  Config unreadable, using defaults: %v\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// apiURL resolves the backend URL: flag, then env, then config.
func apiURL(cfg config.Config) string {
	if flagAPIURL != "" {
		return flagAPIURL
	}
	return config.APIURL(cfg)
}

func newClient(cfg config.Config) (*api.Client, error) {
	url := apiURL(cfg)
	client := api.NewClient(url)
	if client == nil {
		return nil, fmt.Errorf("invalid backend URL %q (expected e.g. http://127.0.0.1:8000)", url)
	}
	return client, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// explain turns client sentinels into actionable messages.
func explain(client *api.Client, err error) error {
	switch {
	case errors.Is(err, api.ErrUnavailable):
		return fmt.Errorf("backend at %s unavailable (is `envbudget serve` running?): %w", client.BaseURL(), err)
	case errors.Is(err, api.ErrNotFound):
		return fmt.Errorf("not found: %w", err)
	default:
		return err
	}
}

func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
