package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Matter-related domain errors.
var (
	ErrMatterNotFound = &Error{Code: ENOTFOUND, Message: "Matter not found"}
	ErrMatterClosed   = &Error{Code: ECONFLICT, Message: "Matter is closed"}
)

// MatterStatus tracks where a matter sits in its working life.
type MatterStatus string

const (
	MatterStatusActive  MatterStatus = "active"
	MatterStatusOnHold  MatterStatus = "on_hold"
	MatterStatusSettled MatterStatus = "settled"
	MatterStatusClosed  MatterStatus = "closed"
)

// Valid reports whether s is a known matter status.
func (s MatterStatus) Valid() bool {
	switch s {
	case MatterStatusActive, MatterStatusOnHold, MatterStatusSettled, MatterStatusClosed:
		return true
	}
	return false
}

// Matter is a brief an advocate works and bills against. The instructing
// attorney is the debtor on invoices; the bar the matter is registered
// under drives payment terms, VAT and reminder cadence.
type Matter struct {
	ID            uuid.UUID
	AdvocateID    uuid.UUID
	Title         string
	Reference     string // advocate's own file reference, e.g. "2025/0143"
	ClientName    string
	AttorneyName  string
	AttorneyFirm  string
	AttorneyEmail string
	Bar           Bar
	Status        MatterStatus

	// WIPValue is the rand value of recorded but unbilled work.
	// Invoicing decrements it, clamped at zero.
	WIPValue float64

	// ActualFee accumulates the totals of final invoices raised on the matter.
	ActualFee float64

	EstimatedFee float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateMatterParams contains parameters for opening a matter.
type CreateMatterParams struct {
	AdvocateID    uuid.UUID
	Title         string
	Reference     string
	ClientName    string
	AttorneyName  string
	AttorneyFirm  string
	AttorneyEmail string
	Bar           Bar
	EstimatedFee  float64
}

// ApplyBillingParams carries the deltas an invoice applies to its matter.
// WIPDelta is subtracted (the store clamps the result at zero) and
// FeeDelta is added to the accumulated actual fee.
type ApplyBillingParams struct {
	MatterID uuid.UUID
	WIPDelta float64
	FeeDelta float64
}

// MatterService manages matters and the work recorded against them.
type MatterService interface {
	CreateMatter(ctx context.Context, advocateID uuid.UUID, params CreateMatterParams) (*Matter, error)
	GetMatter(ctx context.Context, advocateID, matterID uuid.UUID) (*Matter, error)
	ListMatters(ctx context.Context, advocateID uuid.UUID) ([]Matter, error)
	UpdateMatterStatus(ctx context.Context, advocateID, matterID uuid.UUID, status MatterStatus) (*Matter, error)

	// RecordTimeEntry captures work against a matter and, for billable
	// entries, adds the fee value to the matter's WIP.
	RecordTimeEntry(ctx context.Context, advocateID uuid.UUID, params CreateTimeEntryParams) (*TimeEntry, error)
	ListTimeEntries(ctx context.Context, advocateID, matterID uuid.UUID, filter TimeEntryFilter) ([]TimeEntry, error)

	// RecordExpense captures a recoverable cost against a matter.
	RecordExpense(ctx context.Context, advocateID uuid.UUID, params CreateExpenseParams) (*Expense, error)
	ListExpenses(ctx context.Context, advocateID, matterID uuid.UUID, onlyUnbilled bool) ([]Expense, error)
}

// MatterStore is the persistence port for matters.
type MatterStore interface {
	CreateMatter(ctx context.Context, params CreateMatterParams) (*Matter, error)
	GetMatter(ctx context.Context, id uuid.UUID) (*Matter, error)
	ListMattersByAdvocate(ctx context.Context, advocateID uuid.UUID) ([]Matter, error)
	UpdateMatterStatus(ctx context.Context, id uuid.UUID, status MatterStatus) error

	// AddToWIP records new unbilled work value against the matter.
	AddToWIP(ctx context.Context, matterID uuid.UUID, amount float64) error

	// ApplyBilling moves value from WIP to billed fees when a final
	// invoice is raised. Runs inside the invoice transaction.
	ApplyBilling(ctx context.Context, params ApplyBillingParams) error
}
