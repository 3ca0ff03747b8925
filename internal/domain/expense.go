package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Expense is a matter-level cost (counsel fees disbursed, travel, copying)
// passed through to the invoice without VAT.
type Expense struct {
	ID          uuid.UUID
	AdvocateID  uuid.UUID
	MatterID    uuid.UUID
	Date        time.Time
	Description string
	Amount      float64
	Billed      bool
	InvoiceID   *uuid.UUID
	CreatedAt   time.Time
}

// CreateExpenseParams contains parameters for recording an expense.
type CreateExpenseParams struct {
	AdvocateID  uuid.UUID
	MatterID    uuid.UUID
	Date        time.Time
	Description string
	Amount      float64
}

// ExpenseStore is the persistence port for expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, params CreateExpenseParams) (*Expense, error)
	ListExpensesByMatter(ctx context.Context, matterID uuid.UUID, onlyUnbilled bool) ([]Expense, error)
	ListExpensesByIDs(ctx context.Context, ids []uuid.UUID) ([]Expense, error)

	// MarkExpensesBilled stamps the expenses billed with the owning
	// invoice. Runs inside the invoice transaction.
	MarkExpensesBilled(ctx context.Context, ids []uuid.UUID, invoiceID uuid.UUID) error
}
