package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lexohub/lexohub/internal/domain"
)

// InvoiceStore implements domain.InvoiceStore using PostgreSQL.
type InvoiceStore struct {
	db DB
}

// Compile-time check that InvoiceStore implements domain.InvoiceStore.
var _ domain.InvoiceStore = (*InvoiceStore)(nil)

// NewInvoiceStore creates a new PostgreSQL-backed invoice store.
func NewInvoiceStore(db DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

const invoiceColumns = `id, advocate_id, matter_id, invoice_number, status, bar,
	invoice_date, due_date,
	total_fees, discount_value, discounted_fees, vat_rate, vat_amount,
	disbursements, total_expenses, total_amount, amount_paid,
	narrative, narrative_confidence,
	reminders_sent, next_reminder_date, last_reminder_date,
	sent_at, date_paid, converted_to_invoice_id,
	created_at, updated_at`

// CreateInvoice inserts a fully calculated invoice. The caller provides
// every amount; the store never recomputes them. An ID is assigned when
// the invoice has none.
func (s *InvoiceStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO invoices (
			id, advocate_id, matter_id, invoice_number, status, bar,
			invoice_date, due_date,
			total_fees, discount_value, discounted_fees, vat_rate, vat_amount,
			disbursements, total_expenses, total_amount, amount_paid,
			narrative, narrative_confidence,
			reminders_sent, next_reminder_date, last_reminder_date,
			sent_at, date_paid, converted_to_invoice_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		RETURNING created_at, updated_at`,
		inv.ID, inv.AdvocateID, inv.MatterID, inv.InvoiceNumber,
		string(inv.Status), string(inv.Bar),
		inv.InvoiceDate, inv.DueDate,
		inv.TotalFees, inv.DiscountValue, inv.DiscountedFees, inv.VATRate, inv.VATAmount,
		inv.Disbursements, inv.TotalExpenses, inv.TotalAmount, inv.AmountPaid,
		inv.Narrative, inv.NarrativeConfidence,
		inv.RemindersSent, inv.NextReminderDate, inv.LastReminderDate,
		inv.SentAt, inv.DatePaid, inv.ConvertedToInvoiceID,
	)

	if err := row.Scan(&inv.CreatedAt, &inv.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("invoice.create", fmt.Sprintf("invoice number %s already exists", inv.InvoiceNumber))
		}
		return domain.Internal(err, "invoice.create", "failed to create invoice")
	}
	return nil
}

// GetInvoice retrieves an invoice by ID.
func (s *InvoiceStore) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, domain.Internal(err, "invoice.get", "failed to get invoice")
	}
	return inv, nil
}

// GetInvoiceByNumber retrieves an invoice by its formatted number.
func (s *InvoiceStore) GetInvoiceByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = $1`, number)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, domain.Internal(err, "invoice.get_by_number", "failed to get invoice")
	}
	return inv, nil
}

// ListInvoices lists an advocate's invoices, newest first. The filter's
// zero values leave the corresponding condition off; Limit defaults to 50.
func (s *InvoiceStore) ListInvoices(ctx context.Context, advocateID uuid.UUID, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	args := []any{advocateID}
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE advocate_id = $1`

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.MatterID != uuid.Nil {
		args = append(args, filter.MatterID)
		q += fmt.Sprintf(" AND matter_id = $%d", len(args))
	}

	q += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, domain.Internal(err, "invoice.list", "failed to list invoices")
	}
	defer rows.Close()

	return collectInvoices(rows, "invoice.list")
}

// UpdateInvoice persists the invoice's lifecycle fields. Amounts and the
// narrative are immutable once the invoice exists; only status, payment
// progress, reminder bookkeeping and the lifecycle stamps are written.
func (s *InvoiceStore) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE invoices
		SET status = $2,
		    amount_paid = $3,
		    reminders_sent = $4,
		    next_reminder_date = $5,
		    last_reminder_date = $6,
		    sent_at = $7,
		    date_paid = $8,
		    converted_to_invoice_id = $9,
		    updated_at = now()
		WHERE id = $1`,
		inv.ID, string(inv.Status), inv.AmountPaid,
		inv.RemindersSent, inv.NextReminderDate, inv.LastReminderDate,
		inv.SentAt, inv.DatePaid, inv.ConvertedToInvoiceID,
	)
	if err != nil {
		return domain.Internal(err, "invoice.update", "failed to update invoice")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

// NextSequence atomically allocates the next number in the (prefix,
// period) sequence. The upsert makes the first caller create the row at
// 1 and every later caller increment it; concurrent transactions
// serialise on the row lock, so values are gapless within the sequence's
// lifetime while the allocating transaction commits.
func (s *InvoiceStore) NextSequence(ctx context.Context, prefix, period string) (int64, error) {
	var value int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO invoice_sequences (prefix, period, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, period)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1, updated_at = now()
		RETURNING last_value`,
		prefix, period,
	).Scan(&value)
	if err != nil {
		return 0, domain.Internal(err, "invoice.next_sequence", "failed to allocate invoice sequence")
	}
	return value, nil
}

// ListRemindersDue returns sent invoices whose next reminder date has
// arrived, oldest reminder first.
func (s *InvoiceStore) ListRemindersDue(ctx context.Context, today time.Time) ([]domain.Invoice, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status = 'sent'
		  AND next_reminder_date IS NOT NULL
		  AND next_reminder_date <= $1::date
		ORDER BY next_reminder_date`,
		today,
	)
	if err != nil {
		return nil, domain.Internal(err, "invoice.reminders_due", "failed to list reminders due")
	}
	defer rows.Close()

	return collectInvoices(rows, "invoice.reminders_due")
}

// ListOverdueCandidates returns sent and unpaid invoices whose due date
// is strictly before today.
func (s *InvoiceStore) ListOverdueCandidates(ctx context.Context, today time.Time) ([]domain.Invoice, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status IN ('sent', 'unpaid')
		  AND due_date < $1::date
		ORDER BY due_date`,
		today,
	)
	if err != nil {
		return nil, domain.Internal(err, "invoice.overdue_candidates", "failed to list overdue invoices")
	}
	defer rows.Close()

	return collectInvoices(rows, "invoice.overdue_candidates")
}

func collectInvoices(rows pgx.Rows, op string) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan invoice")
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read invoices")
	}
	return invoices, nil
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var status, bar string
	err := row.Scan(
		&inv.ID, &inv.AdvocateID, &inv.MatterID, &inv.InvoiceNumber, &status, &bar,
		&inv.InvoiceDate, &inv.DueDate,
		&inv.TotalFees, &inv.DiscountValue, &inv.DiscountedFees, &inv.VATRate, &inv.VATAmount,
		&inv.Disbursements, &inv.TotalExpenses, &inv.TotalAmount, &inv.AmountPaid,
		&inv.Narrative, &inv.NarrativeConfidence,
		&inv.RemindersSent, &inv.NextReminderDate, &inv.LastReminderDate,
		&inv.SentAt, &inv.DatePaid, &inv.ConvertedToInvoiceID,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = domain.InvoiceStatus(status)
	inv.Bar = domain.Bar(bar)
	return &inv, nil
}
