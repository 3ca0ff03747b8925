package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Time entry domain errors.
var (
	ErrTimeEntryNotFound  = &Error{Code: ENOTFOUND, Message: "Time entry not found"}
	ErrEntryAlreadyBilled = &Error{Code: ECONFLICT, Message: "Time entry already billed"}
)

// TimeEntry is a unit of recorded work on a matter. Fees are computed as
// (DurationMinutes / 60) * Rate unless the invoice overrides the rate.
type TimeEntry struct {
	ID              uuid.UUID
	AdvocateID      uuid.UUID
	MatterID        uuid.UUID
	Date            time.Time
	Description     string
	DurationMinutes int
	Rate            float64 // rand per hour
	Billable        bool
	Billed          bool
	InvoiceID       *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateTimeEntryParams contains parameters for recording work.
type CreateTimeEntryParams struct {
	AdvocateID      uuid.UUID
	MatterID        uuid.UUID
	Date            time.Time
	Description     string
	DurationMinutes int
	Rate            float64
	Billable        bool
}

// TimeEntryFilter narrows time entry listings.
type TimeEntryFilter struct {
	OnlyUnbilled bool
	OnlyBillable bool
}

// TimeEntryStore is the persistence port for time entries.
type TimeEntryStore interface {
	CreateTimeEntry(ctx context.Context, params CreateTimeEntryParams) (*TimeEntry, error)
	GetTimeEntry(ctx context.Context, id uuid.UUID) (*TimeEntry, error)
	ListTimeEntriesByMatter(ctx context.Context, matterID uuid.UUID, filter TimeEntryFilter) ([]TimeEntry, error)
	ListTimeEntriesByIDs(ctx context.Context, ids []uuid.UUID) ([]TimeEntry, error)
	ListTimeEntriesByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]TimeEntry, error)

	// MarkTimeEntriesBilled stamps the entries billed with the owning
	// invoice. Runs inside the invoice transaction.
	MarkTimeEntriesBilled(ctx context.Context, ids []uuid.UUID, invoiceID uuid.UUID) error
}
