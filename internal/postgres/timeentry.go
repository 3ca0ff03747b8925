package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lexohub/lexohub/internal/domain"
)

// TimeEntryStore implements domain.TimeEntryStore using PostgreSQL.
type TimeEntryStore struct {
	db DB
}

// Compile-time check that TimeEntryStore implements domain.TimeEntryStore.
var _ domain.TimeEntryStore = (*TimeEntryStore)(nil)

// NewTimeEntryStore creates a new PostgreSQL-backed time entry store.
func NewTimeEntryStore(db DB) *TimeEntryStore {
	return &TimeEntryStore{db: db}
}

const timeEntryColumns = `id, advocate_id, matter_id, entry_date, description,
	duration_minutes, rate, billable, billed, invoice_id, created_at, updated_at`

// CreateTimeEntry records a unit of work on a matter.
func (s *TimeEntryStore) CreateTimeEntry(ctx context.Context, params domain.CreateTimeEntryParams) (*domain.TimeEntry, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO time_entries (advocate_id, matter_id, entry_date, description,
			duration_minutes, rate, billable)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+timeEntryColumns,
		params.AdvocateID, params.MatterID, params.Date, params.Description,
		params.DurationMinutes, params.Rate, params.Billable,
	)

	e, err := scanTimeEntry(row)
	if err != nil {
		return nil, domain.Internal(err, "entry.create", "failed to create time entry")
	}
	return e, nil
}

// GetTimeEntry retrieves a time entry by ID.
func (s *TimeEntryStore) GetTimeEntry(ctx context.Context, id uuid.UUID) (*domain.TimeEntry, error) {
	row := s.db.QueryRow(ctx, `SELECT `+timeEntryColumns+` FROM time_entries WHERE id = $1`, id)

	e, err := scanTimeEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTimeEntryNotFound
		}
		return nil, domain.Internal(err, "entry.get", "failed to get time entry")
	}
	return e, nil
}

// ListTimeEntriesByMatter lists entries on a matter, oldest first, so
// narratives and invoice lines read chronologically.
func (s *TimeEntryStore) ListTimeEntriesByMatter(ctx context.Context, matterID uuid.UUID, filter domain.TimeEntryFilter) ([]domain.TimeEntry, error) {
	q := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE matter_id = $1`
	if filter.OnlyUnbilled {
		q += ` AND NOT billed`
	}
	if filter.OnlyBillable {
		q += ` AND billable`
	}
	q += ` ORDER BY entry_date, created_at`

	rows, err := s.db.Query(ctx, q, matterID)
	if err != nil {
		return nil, domain.Internal(err, "entry.list_by_matter", "failed to list time entries")
	}
	defer rows.Close()

	return collectTimeEntries(rows, "entry.list_by_matter")
}

// ListTimeEntriesByIDs fetches a specific set of entries.
func (s *TimeEntryStore) ListTimeEntriesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.TimeEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+timeEntryColumns+` FROM time_entries
		WHERE id = ANY($1)
		ORDER BY entry_date, created_at`,
		ids,
	)
	if err != nil {
		return nil, domain.Internal(err, "entry.list_by_ids", "failed to list time entries")
	}
	defer rows.Close()

	return collectTimeEntries(rows, "entry.list_by_ids")
}

// ListTimeEntriesByInvoice lists the entries billed on an invoice.
func (s *TimeEntryStore) ListTimeEntriesByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.TimeEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+timeEntryColumns+` FROM time_entries
		WHERE invoice_id = $1
		ORDER BY entry_date, created_at`,
		invoiceID,
	)
	if err != nil {
		return nil, domain.Internal(err, "entry.list_by_invoice", "failed to list time entries")
	}
	defer rows.Close()

	return collectTimeEntries(rows, "entry.list_by_invoice")
}

// MarkTimeEntriesBilled stamps the entries billed with the owning invoice.
func (s *TimeEntryStore) MarkTimeEntriesBilled(ctx context.Context, ids []uuid.UUID, invoiceID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE time_entries
		SET billed = TRUE, invoice_id = $2, updated_at = now()
		WHERE id = ANY($1) AND NOT billed`,
		ids, invoiceID,
	)
	if err != nil {
		return domain.Internal(err, "entry.mark_billed", "failed to mark time entries billed")
	}
	if int(tag.RowsAffected()) != len(ids) {
		// Some entry was billed from under us; the surrounding
		// transaction must roll back rather than double-bill.
		return domain.ErrEntryAlreadyBilled
	}
	return nil
}

func collectTimeEntries(rows pgx.Rows, op string) ([]domain.TimeEntry, error) {
	var entries []domain.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan time entry")
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read time entries")
	}
	return entries, nil
}

func scanTimeEntry(row pgx.Row) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	err := row.Scan(
		&e.ID, &e.AdvocateID, &e.MatterID, &e.Date, &e.Description,
		&e.DurationMinutes, &e.Rate, &e.Billable, &e.Billed, &e.InvoiceID,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
