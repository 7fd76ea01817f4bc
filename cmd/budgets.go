package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/envbudget/internal/cli"
	"github.com/theirongolddev/envbudget/internal/model"
	"github.com/theirongolddev/envbudget/internal/state"

	"github.com/spf13/cobra"
)

var budgetsCmd = &cobra.Command{
	Use:     "budgets",
	Aliases: []string{"budget", "b"},
	Short:   "List, create and delete budgets",
	RunE:    runBudgetsList,
}

var budgetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all budgets",
	Args:  cobra.NoArgs,
	RunE:  runBudgetsList,
}

var budgetsCreateCmd = &cobra.Command{
	Use:   "create <total>",
	Short: "Create a budget with the given total",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetsCreate,
}

var budgetsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a budget and its envelopes",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetsDelete,
}

func init() {
	budgetsCmd.AddCommand(budgetsListCmd, budgetsCreateCmd, budgetsDeleteCmd)
	rootCmd.AddCommand(budgetsCmd)
}

func runBudgetsList(cmd *cobra.Command, _ []string) error {
	client, err := newClient(loadConfig())
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	progress("  Loading budgets from %s...\n", client.BaseURL())
	budgets, err := client.LoadBudgets(ctx)
	if err != nil {
		return explain(client, err)
	}

	st := state.New()
	st.SetBudgets(budgets)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderTitle("BUDGETS"))
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderBudgets(st))
	return nil
}

func runBudgetsCreate(cmd *cobra.Command, args []string) error {
	total, err := parseAmountArg("total", args[0])
	if err != nil {
		return err
	}

	client, err := newClient(loadConfig())
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	id, err := client.CreateBudget(ctx, model.NewBudget{TotalBudget: total})
	if err != nil {
		return explain(client, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Created budget #%d (%s)\n", id, cli.FormatAmount(total))
	return nil
}

func runBudgetsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseIDArg("budget id", args[0])
	if err != nil {
		return err
	}

	client, err := newClient(loadConfig())
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	if err := client.DeleteBudget(ctx, id); err != nil {
		return explain(client, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Deleted budget #%d\n", id)
	return nil
}

func parseIDArg(name, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return id, nil
}

func parseAmountArg(name, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number, got %q", name, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must be >= 0, got %d", name, n)
	}
	return n, nil
}
