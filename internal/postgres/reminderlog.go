package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/lexohub/lexohub/internal/domain"
)

// ReminderLogStore implements domain.ReminderLogStore using PostgreSQL.
type ReminderLogStore struct {
	db DB
}

// Compile-time check that ReminderLogStore implements domain.ReminderLogStore.
var _ domain.ReminderLogStore = (*ReminderLogStore)(nil)

// NewReminderLogStore creates a new PostgreSQL-backed reminder log store.
func NewReminderLogStore(db DB) *ReminderLogStore {
	return &ReminderLogStore{db: db}
}

// CreateReminderLog appends an audit row for one reminder attempt.
func (s *ReminderLogStore) CreateReminderLog(ctx context.Context, log *domain.ReminderLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO reminder_logs (id, invoice_id, advocate_id, reminder_number, sent_at, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		log.ID, log.InvoiceID, log.AdvocateID, log.ReminderNumber, log.SentAt, log.Status, log.Error,
	).Scan(&log.CreatedAt)
	if err != nil {
		return domain.Internal(err, "reminder_log.create", "failed to record reminder attempt")
	}
	return nil
}

// ListReminderLogsByInvoice lists an invoice's reminder history, oldest
// first.
func (s *ReminderLogStore) ListReminderLogsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.ReminderLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, invoice_id, advocate_id, reminder_number, sent_at, status, error, created_at
		FROM reminder_logs
		WHERE invoice_id = $1
		ORDER BY sent_at, created_at`,
		invoiceID,
	)
	if err != nil {
		return nil, domain.Internal(err, "reminder_log.list", "failed to list reminder logs")
	}
	defer rows.Close()

	var logs []domain.ReminderLog
	for rows.Next() {
		var l domain.ReminderLog
		err := rows.Scan(&l.ID, &l.InvoiceID, &l.AdvocateID, &l.ReminderNumber, &l.SentAt, &l.Status, &l.Error, &l.CreatedAt)
		if err != nil {
			return nil, domain.Internal(err, "reminder_log.list", "failed to scan reminder log")
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "reminder_log.list", "failed to read reminder logs")
	}
	return logs, nil
}
