package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/envbudget/internal/api"
	"github.com/theirongolddev/envbudget/internal/model"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// formKind identifies what the active huh form will do on submit.
type formKind int

const (
	formNone formKind = iota
	formNewBudget
	formNewEnvelope
	formAddMoney
	formSpendMoney
	formDeleteBudget
	formDeleteEnvelope
)

// formValues is bound to the active form's inputs. It is held by pointer so
// huh keeps writing into the same values as App is copied through Update.
type formValues struct {
	kind       formKind
	name       string
	amount     string
	budgetID   int64
	envelopeID int64
	confirm    bool
}

// confirmed reports whether a completed form should be submitted.
// Only delete forms can be declined.
func (v formValues) confirmed() bool {
	switch v.kind {
	case formNone:
		return false
	case formDeleteBudget, formDeleteEnvelope:
		return v.confirm
	default:
		return true
	}
}

func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: enter a whole number", model.ErrInvalidInput)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: amount must be >= 0", model.ErrInvalidInput)
	}
	return n, nil
}

func validateAmount(s string) error {
	_, err := parseAmount(s)
	return err
}

func validateName(s string) error {
	return model.NewEnvelope{Name: strings.TrimSpace(s)}.Validate()
}

func newBudgetForm(vals *formValues) *huh.Form {
	vals.kind = formNewBudget
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New budget").
				Description("Total amount to distribute across envelopes").
				Placeholder("1000").
				Value(&vals.amount).
				Validate(validateAmount),
		),
	).WithShowHelp(false)
}

func newEnvelopeForm(vals *formValues, budgetID int64) *huh.Form {
	vals.kind = formNewEnvelope
	vals.budgetID = budgetID
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("New envelope in budget #%d", budgetID)).
				Placeholder("Groceries").
				CharLimit(model.MaxEnvelopeName).
				Value(&vals.name).
				Validate(validateName),
			huh.NewInput().
				Title("Starting amount").
				Placeholder("0").
				Value(&vals.amount).
				Validate(validateAmount),
		),
	).WithShowHelp(false)
}

func newAmountForm(vals *formValues, kind formKind, env model.RemainingBudget) *huh.Form {
	vals.kind = kind
	vals.envelopeID = env.ID
	vals.budgetID = env.BudgetID

	verb := "Add to"
	if kind == formSpendMoney {
		verb = "Spend from"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s %q", verb, env.Name)).
				Placeholder("0").
				Value(&vals.amount).
				Validate(validateAmount),
		),
	).WithShowHelp(false)
}

func newDeleteBudgetForm(vals *formValues, b model.Budget) *huh.Form {
	vals.kind = formDeleteBudget
	vals.budgetID = b.ID
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete budget #%d?", b.ID)).
				Description("Its envelopes are deleted too.").
				Affirmative("Delete").
				Negative("Keep").
				Value(&vals.confirm),
		),
	).WithShowHelp(false)
}

func newDeleteEnvelopeForm(vals *formValues, env model.RemainingBudget) *huh.Form {
	vals.kind = formDeleteEnvelope
	vals.envelopeID = env.ID
	vals.budgetID = env.BudgetID
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete envelope %q?", env.Name)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&vals.confirm),
		),
	).WithShowHelp(false)
}

// submitCmd turns completed form values into the matching backend call.
// current is the budget on screen when the form was submitted.
func submitCmd(client *api.Client, vals formValues, current int64) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return ActionDoneMsg{Err: errNoBackend}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		switch vals.kind {
		case formDeleteBudget:
			if err := client.DeleteBudget(ctx, vals.budgetID); err != nil {
				return ActionDoneMsg{Err: err}
			}
			next := current
			if vals.budgetID == current {
				next = 0
			}
			return ActionDoneMsg{Status: fmt.Sprintf("Budget #%d deleted", vals.budgetID), BudgetID: next}

		case formDeleteEnvelope:
			if err := client.DeleteEnvelope(ctx, vals.envelopeID); err != nil {
				return ActionDoneMsg{Err: err}
			}
			return ActionDoneMsg{Status: "Envelope deleted", BudgetID: vals.budgetID}
		}

		amount, err := parseAmount(vals.amount)
		if err != nil {
			return ActionDoneMsg{Err: err}
		}

		switch vals.kind {
		case formNewBudget:
			id, err := client.CreateBudget(ctx, model.NewBudget{TotalBudget: amount})
			if err != nil {
				return ActionDoneMsg{Err: err}
			}
			return ActionDoneMsg{Status: fmt.Sprintf("Budget #%d created", id), BudgetID: id}

		case formNewEnvelope:
			_, err := client.CreateEnvelope(ctx, model.NewEnvelope{
				Name:     vals.name,
				Amount:   amount,
				BudgetID: vals.budgetID,
			})
			if err != nil {
				return ActionDoneMsg{Err: err}
			}
			return ActionDoneMsg{Status: fmt.Sprintf("Envelope %q created", strings.TrimSpace(vals.name)), BudgetID: vals.budgetID}

		case formAddMoney:
			if err := client.AddMoney(ctx, vals.envelopeID, amount); err != nil {
				return ActionDoneMsg{Err: err}
			}
			return ActionDoneMsg{Status: fmt.Sprintf("Added %d", amount), BudgetID: vals.budgetID}

		case formSpendMoney:
			if err := client.SpendMoney(ctx, vals.envelopeID, amount); err != nil {
				return ActionDoneMsg{Err: err}
			}
			return ActionDoneMsg{Status: fmt.Sprintf("Spent %d", amount), BudgetID: vals.budgetID}
		}
		return nil
	}
}
