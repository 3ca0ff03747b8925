package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Invoice-related domain errors.
var (
	ErrInvoiceNotFound          = &Error{Code: ENOTFOUND, Message: "Invoice not found"}
	ErrInvalidTransition        = &Error{Code: ECONFLICT, Message: "Invalid invoice status transition"}
	ErrInvoiceAlreadyPaid       = &Error{Code: ECONFLICT, Message: "Invoice already paid in full"}
	ErrInvoiceNotProForma       = &Error{Code: EINVALID, Message: "Invoice is not a pro forma"}
	ErrProFormaAlreadyConverted = &Error{Code: ECONFLICT, Message: "Pro forma has already been converted"}
	ErrNoBillableEntries        = &Error{Code: EINVALID, Message: "No unbilled billable time entries match the request"}
	ErrInvoiceNotPayable        = &Error{Code: ECONFLICT, Message: "Invoice does not accept payments in its current status"}
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusProForma  InvoiceStatus = "pro_forma"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusUnpaid    InvoiceStatus = "unpaid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusConverted InvoiceStatus = "converted"
	InvoiceStatusPending   InvoiceStatus = "pending"
)

// Valid reports whether the status is a known lifecycle state.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusProForma, InvoiceStatusSent,
		InvoiceStatusUnpaid, InvoiceStatusOverdue, InvoiceStatusPaid,
		InvoiceStatusConverted, InvoiceStatusPending:
		return true
	}
	return false
}

// validTransitions is the complete lifecycle map. A transition absent here
// is rejected with no partial update. Paid and Converted are terminal.
// ProForma leaves only through conversion.
var validTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:     {InvoiceStatusSent, InvoiceStatusUnpaid},
	InvoiceStatusSent:      {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusUnpaid},
	InvoiceStatusUnpaid:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusSent},
	InvoiceStatusOverdue:   {InvoiceStatusPaid, InvoiceStatusUnpaid},
	InvoiceStatusPaid:      {},
	InvoiceStatusPending:   {InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusUnpaid},
	InvoiceStatusProForma:  {InvoiceStatusConverted},
	InvoiceStatusConverted: {},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NewInvalidTransitionError builds a rejection for a disallowed move.
// errors.Is(err, ErrInvalidTransition) matches it.
func NewInvalidTransitionError(op string, from, to InvoiceStatus) error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: fmt.Sprintf("cannot transition invoice from %s to %s", from, to),
		Err:     ErrInvalidTransition,
	}
}

// Invoice is a bill rendered to an instructing attorney for work on a
// matter. Amount fields are rand, rounded to cents, and reconcile as
// TotalAmount = DiscountedFees + VATAmount + Disbursements + TotalExpenses.
type Invoice struct {
	ID            uuid.UUID
	AdvocateID    uuid.UUID
	MatterID      uuid.UUID
	InvoiceNumber string
	Status        InvoiceStatus
	Bar           Bar
	InvoiceDate   time.Time
	DueDate       time.Time

	TotalFees      float64
	DiscountValue  float64
	DiscountedFees float64
	VATRate        float64 // rate captured at generation time
	VATAmount      float64
	Disbursements  float64
	TotalExpenses  float64
	TotalAmount    float64
	AmountPaid     float64

	Narrative           string
	NarrativeConfidence float64

	RemindersSent    int
	NextReminderDate *time.Time
	LastReminderDate *time.Time

	SentAt               *time.Time
	DatePaid             *time.Time
	ConvertedToInvoiceID *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Balance is the amount still owing.
func (i *Invoice) Balance() float64 {
	b := i.TotalAmount - i.AmountPaid
	if b < 0 {
		return 0
	}
	return b
}

// IsProForma reports whether the invoice is a quote rather than a demand
// for payment.
func (i *Invoice) IsProForma() bool {
	return i.Status == InvoiceStatusProForma || i.Status == InvoiceStatusConverted
}

// GenerateInvoiceParams contains parameters for raising an invoice.
type GenerateInvoiceParams struct {
	MatterID   uuid.UUID
	IsProForma bool

	// TimeEntryIDs selects specific entries. When empty and
	// IncludeUnbilledTime is true, every unbilled billable entry on the
	// matter is included. Empty with IncludeUnbilledTime false is an error.
	TimeEntryIDs        []uuid.UUID
	IncludeUnbilledTime bool

	// ExpenseIDs selects specific unbilled expenses. When empty, every
	// unbilled expense on the matter is included.
	ExpenseIDs []uuid.UUID

	// InvoiceDate defaults to today when nil.
	InvoiceDate *time.Time

	// RateOverride replaces every entry's own hourly rate when set.
	RateOverride *float64

	// DiscountPercentage (0..100) and DiscountAmount are alternatives;
	// percentage wins when both are set.
	DiscountPercentage *float64
	DiscountAmount     *float64

	Disbursements float64

	// Narrative options. Tone is one of narrative.ToneStandard/Concise/
	// Detailed; empty means standard. GroupByDate groups the narrative by
	// work date instead of work type.
	NarrativeTone        string
	NarrativeGroupByDate bool

	// CustomNarrative, when non-blank, is used verbatim instead of a
	// generated narrative.
	CustomNarrative string
}

// Payment is one remittance against an invoice. Payments are append-only;
// corrections are made with contra entries, never edits.
type Payment struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Amount      float64
	PaymentDate time.Time
	Method      string // "eft", "card", "stripe", "cash"
	Reference   string
	CreatedAt   time.Time
}

// RecordPaymentParams contains parameters for recording a payment.
type RecordPaymentParams struct {
	InvoiceID   uuid.UUID
	Amount      float64
	PaymentDate time.Time
	Method      string
	Reference   string
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	Status   InvoiceStatus // zero value means all statuses
	MatterID uuid.UUID     // zero value means all matters
	Limit    int32
	Offset   int32
}

// InvoiceDetail aggregates an invoice with its matter, lines and payments.
type InvoiceDetail struct {
	Invoice     Invoice
	Matter      *Matter
	TimeEntries []TimeEntry
	Payments    []Payment
}

// ReminderSweepSummary reports one reminder sweep run.
type ReminderSweepSummary struct {
	Scanned   int
	Sent      int
	Escalated int
	Failed    int
}

// OverdueSweepSummary reports one overdue sweep run.
type OverdueSweepSummary struct {
	Scanned int
	Marked  int
}

// InvoiceService manages invoice generation, lifecycle, conversion,
// payments and reminder sweeps for an advocate's practice.
type InvoiceService interface {
	// GenerateInvoice raises a final or pro forma invoice from unbilled
	// work on a matter. Final invoices mark their entries billed and move
	// matter WIP to actual fees atomically with the insert; pro formas
	// leave the underlying records untouched.
	GenerateInvoice(ctx context.Context, advocateID uuid.UUID, params GenerateInvoiceParams) (*InvoiceDetail, error)

	// GetInvoice retrieves an invoice with full details.
	GetInvoice(ctx context.Context, advocateID, invoiceID uuid.UUID) (*InvoiceDetail, error)

	// ListInvoices lists the advocate's invoices, newest first.
	ListInvoices(ctx context.Context, advocateID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// UpdateInvoiceStatus applies a lifecycle transition with its side
	// effects (sent/paid stamps, first reminder scheduling). Conversion
	// cannot be reached through this method.
	UpdateInvoiceStatus(ctx context.Context, advocateID, invoiceID uuid.UUID, status InvoiceStatus) (*Invoice, error)

	// ConvertProForma creates a final invoice from an accepted pro forma,
	// applying the billing side effects the pro forma deferred.
	ConvertProForma(ctx context.Context, advocateID, proFormaID uuid.UUID) (*InvoiceDetail, error)

	// RecordPayment appends a payment and settles the invoice when
	// cumulative payments cover the total.
	RecordPayment(ctx context.Context, advocateID uuid.UUID, params RecordPaymentParams) (*Invoice, error)

	// SweepReminders sends every reminder due on or before today and
	// escalates invoices whose schedule is spent. Safe to run repeatedly
	// within a day.
	SweepReminders(ctx context.Context, today time.Time) (*ReminderSweepSummary, error)

	// SweepOverdue moves sent and unpaid invoices past their due date to
	// overdue.
	SweepOverdue(ctx context.Context, today time.Time) (*OverdueSweepSummary, error)
}

// InvoiceStore is the persistence port for invoices and their number
// sequences.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetInvoiceByNumber(ctx context.Context, number string) (*Invoice, error)
	ListInvoices(ctx context.Context, advocateID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// UpdateInvoice persists every mutable field of the invoice row.
	UpdateInvoice(ctx context.Context, inv *Invoice) error

	// NextSequence atomically increments and returns the counter for the
	// (prefix, period) pair, starting at 1. Concurrent callers receive
	// distinct consecutive values.
	NextSequence(ctx context.Context, prefix, period string) (int64, error)

	// ListRemindersDue returns sent invoices whose next reminder date is
	// on or before the given day.
	ListRemindersDue(ctx context.Context, today time.Time) ([]Invoice, error)

	// ListOverdueCandidates returns sent and unpaid invoices whose due
	// date has passed.
	ListOverdueCandidates(ctx context.Context, today time.Time) ([]Invoice, error)
}

// PaymentStore is the persistence port for payments.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *Payment) error
	ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)
	SumPaymentsForInvoice(ctx context.Context, invoiceID uuid.UUID) (float64, error)
}
