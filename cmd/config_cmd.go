package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/envbudget/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Fprintln(out, "  Status: loaded")
	} else {
		fmt.Fprintln(out, "  Status: using defaults (no config file)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Client]")
	fmt.Fprintf(out, "    Backend URL: %s%s\n", apiURL(cfg), urlSource(cfg))
	if cfg.Client.BudgetID > 0 {
		fmt.Fprintf(out, "    Budget:      #%d\n", cfg.Client.BudgetID)
	} else {
		fmt.Fprintln(out, "    Budget:      first budget")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Server]")
	fmt.Fprintf(out, "    Listen:   %s\n", cfg.Server.Addr)
	fmt.Fprintf(out, "    Database: %s\n", config.DBPath(cfg))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Appearance]")
	fmt.Fprintf(out, "    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Log]")
	fmt.Fprintf(out, "    Level: %s\n", cfg.Log.Level)
	fmt.Fprintln(out)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "  Problem: %v\n\n", err)
	}
	fmt.Fprintln(out, "  Run `envbudget setup` to reconfigure.")
	return nil
}

func urlSource(cfg config.Config) string {
	switch {
	case flagAPIURL != "":
		return " (from --api-url)"
	case os.Getenv("ENVBUDGET_API_URL") != "":
		return " (from ENVBUDGET_API_URL)"
	case cfg.Client.BaseURL == "":
		return " (not set)"
	default:
		return ""
	}
}
