// Package postgres implements the domain persistence ports on PostgreSQL
// via pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexohub/lexohub/internal/domain"
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx. Stores run
// against either, so the same code serves pooled and transactional calls.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements domain.Store over a pgx connection pool.
type Store struct {
	// pool is nil on transaction-scoped stores.
	pool *pgxpool.Pool

	advocates    *AdvocateStore
	matters      *MatterStore
	timeEntries  *TimeEntryStore
	expenses     *ExpenseStore
	invoices     *InvoiceStore
	payments     *PaymentStore
	reminderLogs *ReminderLogStore
}

// Compile-time check that Store implements domain.Store.
var _ domain.Store = (*Store)(nil)

// NewStore creates a pool-backed Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return newStore(pool, pool)
}

func newStore(pool *pgxpool.Pool, db DB) *Store {
	return &Store{
		pool:         pool,
		advocates:    NewAdvocateStore(db),
		matters:      NewMatterStore(db),
		timeEntries:  NewTimeEntryStore(db),
		expenses:     NewExpenseStore(db),
		invoices:     NewInvoiceStore(db),
		payments:     NewPaymentStore(db),
		reminderLogs: NewReminderLogStore(db),
	}
}

func (s *Store) Advocates() domain.AdvocateStore       { return s.advocates }
func (s *Store) Matters() domain.MatterStore           { return s.matters }
func (s *Store) TimeEntries() domain.TimeEntryStore    { return s.timeEntries }
func (s *Store) Expenses() domain.ExpenseStore         { return s.expenses }
func (s *Store) Invoices() domain.InvoiceStore         { return s.invoices }
func (s *Store) Payments() domain.PaymentStore         { return s.payments }
func (s *Store) ReminderLogs() domain.ReminderLogStore { return s.reminderLogs }

// WithinTx runs fn against a transaction-scoped Store. fn returning an
// error rolls everything back. Calls on an already transaction-scoped
// Store join the existing transaction rather than opening a nested one.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Internal(err, "postgres.tx", "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(newStore(nil, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, "postgres.tx", "failed to commit transaction")
	}
	return nil
}

// isUniqueViolation reports a PostgreSQL unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
