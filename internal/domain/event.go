package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Invoice lifecycle event types published to the message bus.
const (
	EventInvoiceCreated       = "invoice.created"
	EventInvoiceStatusChanged = "invoice.status_changed"
	EventInvoiceConverted     = "invoice.converted"
	EventInvoicePaid          = "invoice.paid"
	EventReminderSent         = "invoice.reminder_sent"
)

// InvoiceEvent is the payload published for every lifecycle change.
type InvoiceEvent struct {
	Type          string        `json:"type"`
	InvoiceID     uuid.UUID     `json:"invoice_id"`
	AdvocateID    uuid.UUID     `json:"advocate_id"`
	InvoiceNumber string        `json:"invoice_number"`
	Status        InvoiceStatus `json:"status"`
	Bar           Bar           `json:"bar"`
	Amount        float64       `json:"amount"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// EventPublisher pushes lifecycle events to downstream consumers.
// Publishing is best effort; a publish failure is logged, never fatal
// to the business operation that raised it.
type EventPublisher interface {
	PublishInvoiceEvent(ctx context.Context, event InvoiceEvent) error
}
