package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/lexohub/lexohub/internal/domain"
)

// PaymentStore implements domain.PaymentStore using PostgreSQL.
type PaymentStore struct {
	db DB
}

// Compile-time check that PaymentStore implements domain.PaymentStore.
var _ domain.PaymentStore = (*PaymentStore)(nil)

// NewPaymentStore creates a new PostgreSQL-backed payment store.
func NewPaymentStore(db DB) *PaymentStore {
	return &PaymentStore{db: db}
}

const paymentColumns = `id, invoice_id, amount, payment_date, method, reference, created_at`

// CreatePayment appends a payment row. Payments are never updated or
// deleted; corrections are contra entries.
func (s *PaymentStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO payments (id, invoice_id, amount, payment_date, method, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		p.ID, p.InvoiceID, p.Amount, p.PaymentDate, p.Method, p.Reference,
	).Scan(&p.CreatedAt)
	if err != nil {
		return domain.Internal(err, "payment.create", "failed to record payment")
	}
	return nil
}

// ListPaymentsByInvoice lists an invoice's payments, oldest first.
func (s *PaymentStore) ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Payment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE invoice_id = $1 ORDER BY payment_date, created_at`,
		invoiceID,
	)
	if err != nil {
		return nil, domain.Internal(err, "payment.list", "failed to list payments")
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.Method, &p.Reference, &p.CreatedAt)
		if err != nil {
			return nil, domain.Internal(err, "payment.list", "failed to scan payment")
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "payment.list", "failed to read payments")
	}
	return payments, nil
}

// SumPaymentsForInvoice returns the cumulative amount paid against an
// invoice, zero when it has no payments.
func (s *PaymentStore) SumPaymentsForInvoice(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	var sum float64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`,
		invoiceID,
	).Scan(&sum)
	if err != nil {
		return 0, domain.Internal(err, "payment.sum", "failed to sum payments")
	}
	return sum, nil
}
