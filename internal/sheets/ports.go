package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror keeps a spreadsheet copy of expenses keyed by expense id.
	ExpenseMirror interface {
		// UpsertExpense writes the expense row, replacing any row with the same id.
		UpsertExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
		// DeleteExpense clears the row with the given id. Missing rows are not an error.
		DeleteExpense(ctx context.Context, id string) error
	}
)
