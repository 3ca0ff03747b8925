// Package billing integrates hosted payment collection for invoices.
// The Stripe implementation creates a checkout link per invoice and
// normalizes webhook events back into invoice payments.
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Provider defines the interface for collecting invoice payments
// through an external gateway.
type Provider interface {
	// CreatePaymentLink creates a hosted payment page for the outstanding
	// balance of an invoice. The returned URL is shared with the
	// instructing attorney.
	CreatePaymentLink(ctx context.Context, params CreatePaymentLinkParams) (*PaymentLink, error)

	// VerifyWebhook authenticates a raw webhook request and normalizes it
	// into a WebhookEvent. Returns nil, nil for authentic events the
	// billing flow does not act on (the caller acknowledges and moves on).
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// Normalized webhook event types.
const (
	// EventPaymentCompleted signals a settled checkout; the caller records
	// the payment against the invoice.
	EventPaymentCompleted = "payment.completed"

	// EventPaymentFailed signals a delayed payment method that did not
	// clear. Logged for audit; the invoice stays outstanding.
	EventPaymentFailed = "payment.failed"
)

// CreatePaymentLinkParams contains parameters for creating a payment link.
type CreatePaymentLinkParams struct {
	// InvoiceID is carried through gateway metadata so the webhook can be
	// matched back to the invoice.
	InvoiceID uuid.UUID

	// InvoiceNumber appears on the hosted page and the payer's statement.
	InvoiceNumber string

	// MatterTitle is appended to the line description when present.
	MatterTitle string

	// AmountRand is the amount to collect in rand. Must be positive.
	AmountRand float64

	// AttorneyEmail prefills the payer email on the hosted page. Optional.
	AttorneyEmail string
}

// PaymentLink is a hosted payment page for one invoice.
type PaymentLink struct {
	// ID is the gateway identifier for the session (cs_...).
	ID string

	// URL is the hosted page the attorney pays through.
	URL string

	// ExpiresAt is when the link stops accepting payment.
	ExpiresAt time.Time
}

// WebhookEvent is a gateway webhook normalized for the invoice flow.
type WebhookEvent struct {
	// EventID is the gateway's event identifier (evt_...), kept for audit
	// logging.
	EventID string

	// Type is one of the Event* constants.
	Type string

	// InvoiceID is the invoice the payment belongs to, recovered from
	// session metadata.
	InvoiceID uuid.UUID

	// InvoiceNumber as carried in metadata. May be empty on older links.
	InvoiceNumber string

	// AmountRand is the amount paid in rand.
	AmountRand float64

	// Reference is the gateway payment reference recorded against the
	// invoice (payment intent ID when present, session ID otherwise).
	Reference string
}
