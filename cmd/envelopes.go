package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/envbudget/internal/api"
	"github.com/theirongolddev/envbudget/internal/cli"
	"github.com/theirongolddev/envbudget/internal/model"
	"github.com/theirongolddev/envbudget/internal/state"

	"github.com/spf13/cobra"
)

var envelopesCmd = &cobra.Command{
	Use:     "envelopes",
	Aliases: []string{"envelope", "env", "e"},
	Short:   "Manage the envelopes of a budget",
}

var envelopesListCmd = &cobra.Command{
	Use:   "list [budget-id]",
	Short: "Show remaining money per envelope (defaults to the configured or first budget)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEnvelopesList,
}

var envelopesCreateCmd = &cobra.Command{
	Use:   "create <budget-id> <name> <amount>",
	Short: "Create an envelope in a budget",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runEnvelopesCreate,
}

var envelopesAddCmd = &cobra.Command{
	Use:   "add <id> <amount>",
	Short: "Add money to an envelope",
	Args:  cobra.ExactArgs(2),
	RunE:  runEnvelopesAdjust,
}

var envelopesSpendCmd = &cobra.Command{
	Use:   "spend <id> <amount>",
	Short: "Spend money from an envelope (the balance may go negative)",
	Args:  cobra.ExactArgs(2),
	RunE:  runEnvelopesAdjust,
}

var envelopesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an envelope",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvelopesDelete,
}

func init() {
	envelopesCmd.RunE = runEnvelopesList
	envelopesCmd.Args = cobra.MaximumNArgs(1)
	envelopesCmd.AddCommand(envelopesListCmd, envelopesCreateCmd, envelopesAddCmd, envelopesSpendCmd, envelopesDeleteCmd)
	rootCmd.AddCommand(envelopesCmd)
}

func runEnvelopesList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	budgetID := cfg.Client.BudgetID
	if len(args) == 1 {
		id, err := parseIDArg("budget id", args[0])
		if err != nil {
			return err
		}
		budgetID = id
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	progress("  Loading envelopes from %s...\n", client.BaseURL())
	st := state.New()
	snap := api.Sync(ctx, client, st, budgetID)
	if snap.Error != nil {
		return explain(client, snap.Error)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	if snap.BudgetID == 0 {
		fmt.Fprintln(out, "  No budgets yet. Create one with: envbudget budgets create <total>")
		return nil
	}
	fmt.Fprintln(out, cli.RenderTitle(fmt.Sprintf("BUDGET #%d", snap.BudgetID)))
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderRemaining(st))
	return nil
}

func runEnvelopesCreate(cmd *cobra.Command, args []string) error {
	budgetID, err := parseIDArg("budget id", args[0])
	if err != nil {
		return err
	}
	// Names may contain spaces without quoting: everything between the
	// budget id and the amount is the name.
	name := strings.Join(args[1:len(args)-1], " ")
	amount, err := parseAmountArg("amount", args[len(args)-1])
	if err != nil {
		return err
	}

	client, err := newClient(loadConfig())
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	id, err := client.CreateEnvelope(ctx, model.NewEnvelope{Name: name, Amount: amount, BudgetID: budgetID})
	if err != nil {
		return explain(client, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Created envelope #%d %q in budget #%d (%s)\n",
		id, strings.TrimSpace(name), budgetID, cli.FormatAmount(amount))
	return nil
}

func runEnvelopesAdjust(cmd *cobra.Command, args []string) error {
	id, err := parseIDArg("envelope id", args[0])
	if err != nil {
		return err
	}
	amount, err := parseAmountArg("amount", args[1])
	if err != nil {
		return err
	}

	client, err := newClient(loadConfig())
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	verb := "Added"
	if cmd.Name() == "spend" {
		verb = "Spent"
		err = client.SpendMoney(ctx, id, amount)
	} else {
		err = client.AddMoney(ctx, id, amount)
	}
	if err != nil {
		return explain(client, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s %s (envelope #%d)\n", verb, cli.FormatAmount(amount), id)
	return nil
}

func runEnvelopesDelete(cmd *cobra.Command, args []string) error {
	id, err := parseIDArg("envelope id", args[0])
	if err != nil {
		return err
	}

	client, err := newClient(loadConfig())
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	if err := client.DeleteEnvelope(ctx, id); err != nil {
		return explain(client, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Deleted envelope #%d\n", id)
	return nil
}
