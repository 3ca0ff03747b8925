package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lexohub/lexohub/internal/domain"
)

// ExpenseStore implements domain.ExpenseStore using PostgreSQL.
type ExpenseStore struct {
	db DB
}

// Compile-time check that ExpenseStore implements domain.ExpenseStore.
var _ domain.ExpenseStore = (*ExpenseStore)(nil)

// NewExpenseStore creates a new PostgreSQL-backed expense store.
func NewExpenseStore(db DB) *ExpenseStore {
	return &ExpenseStore{db: db}
}

const expenseColumns = `id, advocate_id, matter_id, expense_date, description, amount,
	billed, invoice_id, created_at`

// CreateExpense records a matter-level cost.
func (s *ExpenseStore) CreateExpense(ctx context.Context, params domain.CreateExpenseParams) (*domain.Expense, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO expenses (advocate_id, matter_id, expense_date, description, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+expenseColumns,
		params.AdvocateID, params.MatterID, params.Date, params.Description, params.Amount,
	)

	e, err := scanExpense(row)
	if err != nil {
		return nil, domain.Internal(err, "expense.create", "failed to create expense")
	}
	return e, nil
}

// ListExpensesByMatter lists a matter's expenses, oldest first.
func (s *ExpenseStore) ListExpensesByMatter(ctx context.Context, matterID uuid.UUID, onlyUnbilled bool) ([]domain.Expense, error) {
	q := `SELECT ` + expenseColumns + ` FROM expenses WHERE matter_id = $1`
	if onlyUnbilled {
		q += ` AND NOT billed`
	}
	q += ` ORDER BY expense_date, created_at`

	rows, err := s.db.Query(ctx, q, matterID)
	if err != nil {
		return nil, domain.Internal(err, "expense.list", "failed to list expenses")
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, domain.Internal(err, "expense.list", "failed to scan expense")
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "expense.list", "failed to read expenses")
	}
	return expenses, nil
}

// ListExpensesByIDs fetches the given expenses in date order. Missing IDs
// are simply absent from the result; callers diff against the request.
func (s *ExpenseStore) ListExpensesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Expense, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE id = ANY($1)
		ORDER BY expense_date, created_at`,
		ids,
	)
	if err != nil {
		return nil, domain.Internal(err, "expense.list_by_ids", "failed to list expenses")
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, domain.Internal(err, "expense.list_by_ids", "failed to scan expense")
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "expense.list_by_ids", "failed to read expenses")
	}
	return expenses, nil
}

// MarkExpensesBilled stamps the expenses billed with the owning invoice.
func (s *ExpenseStore) MarkExpensesBilled(ctx context.Context, ids []uuid.UUID, invoiceID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE expenses
		SET billed = TRUE, invoice_id = $2
		WHERE id = ANY($1) AND NOT billed`,
		ids, invoiceID,
	)
	if err != nil {
		return domain.Internal(err, "expense.mark_billed", "failed to mark expenses billed")
	}
	if tag.RowsAffected() != int64(len(ids)) {
		// A concurrent invoice billed one of them first.
		return domain.Conflict("expense.mark_billed", "one or more expenses were already billed")
	}
	return nil
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(
		&e.ID, &e.AdvocateID, &e.MatterID, &e.Date, &e.Description, &e.Amount,
		&e.Billed, &e.InvoiceID, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
