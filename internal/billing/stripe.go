package billing

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Metadata keys carried on checkout sessions so webhooks can be matched
// back to invoices.
const (
	metadataInvoiceID     = "invoice_id"
	metadataInvoiceNumber = "invoice_number"
)

const (
	defaultMaxRetries     = 3
	defaultTimeoutSeconds = 30
)

// StripeProvider implements Provider using Stripe Checkout.
// Each payment link is a single-line checkout session in ZAR carrying the
// invoice ID in its metadata.
type StripeProvider struct {
	config StripeConfig
	api    *client.API
	logger zerolog.Logger
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a Stripe billing provider.
func NewStripeProvider(cfg StripeConfig, logger zerolog.Logger) (*StripeProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeoutSeconds
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		MaxNetworkRetries: stripe.Int64(int64(cfg.MaxRetries)),
	})

	api := &client.API{}
	api.Init(cfg.APIKey, &stripe.Backends{
		API:     backend,
		Connect: stripe.GetBackend(stripe.ConnectBackend),
		Uploads: stripe.GetBackend(stripe.UploadsBackend),
	})

	return &StripeProvider{
		config: cfg,
		api:    api,
		logger: logger.With().Str("component", "billing").Logger(),
	}, nil
}

// CreatePaymentLink creates a hosted checkout session for an invoice
// balance and returns its URL.
func (s *StripeProvider) CreatePaymentLink(ctx context.Context, params CreatePaymentLinkParams) (*PaymentLink, error) {
	if params.AmountRand <= 0 {
		return nil, ErrAmountNotPositive
	}
	if s.config.SuccessURL == "" {
		return nil, fmt.Errorf("stripe: success URL is not configured")
	}

	description := fmt.Sprintf("Invoice %s", params.InvoiceNumber)
	if params.MatterTitle != "" {
		description = fmt.Sprintf("Invoice %s - %s", params.InvoiceNumber, params.MatterTitle)
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(params.InvoiceID.String()),
		SuccessURL:        stripe.String(s.config.SuccessURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyZAR)),
					UnitAmount: stripe.Int64(randToCents(params.AmountRand)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
			},
		},
		// The payment intent carries the same metadata so the reference on
		// the payer's statement can be traced without the session.
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Description: stripe.String(description),
			Metadata: map[string]string{
				metadataInvoiceID:     params.InvoiceID.String(),
				metadataInvoiceNumber: params.InvoiceNumber,
			},
		},
	}
	sessionParams.Context = ctx
	sessionParams.AddMetadata(metadataInvoiceID, params.InvoiceID.String())
	sessionParams.AddMetadata(metadataInvoiceNumber, params.InvoiceNumber)

	if s.config.CancelURL != "" {
		sessionParams.CancelURL = stripe.String(s.config.CancelURL)
	}
	if params.AttorneyEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.AttorneyEmail)
	}

	sess, err := s.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("create checkout session for invoice %s: %w", params.InvoiceNumber, err)
	}

	link := &PaymentLink{
		ID:  sess.ID,
		URL: sess.URL,
	}
	if sess.ExpiresAt > 0 {
		link.ExpiresAt = time.Unix(sess.ExpiresAt, 0).UTC()
	}

	s.logger.Info().
		Str("invoice_number", params.InvoiceNumber).
		Str("session_id", sess.ID).
		Float64("amount", params.AmountRand).
		Msg("created payment link")

	return link, nil
}

// VerifyWebhook checks the Stripe-Signature header against the signing
// secret and normalizes settled checkout sessions into payment events.
func (s *StripeProvider) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	// Dashboard-configured webhook API versions routinely trail the SDK
	// pin, so only the signature is enforced strictly.
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.config.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		sess, err := parseCheckoutSession(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		// Delayed payment methods complete the session before the money
		// clears; those settle later via async_payment_succeeded.
		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			return nil, nil
		}
		return s.paymentEvent(EventPaymentCompleted, event.ID, sess), nil

	case "checkout.session.async_payment_failed":
		sess, err := parseCheckoutSession(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		return s.paymentEvent(EventPaymentFailed, event.ID, sess), nil

	default:
		return nil, nil
	}
}

func parseCheckoutSession(raw []byte) (*stripe.CheckoutSession, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return &sess, nil
}

func (s *StripeProvider) paymentEvent(eventType, eventID string, sess *stripe.CheckoutSession) *WebhookEvent {
	rawID := sess.Metadata[metadataInvoiceID]
	if rawID == "" {
		rawID = sess.ClientReferenceID
	}
	invoiceID, err := uuid.Parse(rawID)
	if err != nil {
		// Sessions created outside this application carry no invoice
		// metadata. Acknowledge without acting.
		s.logger.Debug().
			Str("event_id", eventID).
			Str("session_id", sess.ID).
			Msg("checkout session without invoice metadata, ignoring")
		return nil
	}

	reference := sess.ID
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		reference = sess.PaymentIntent.ID
	}

	return &WebhookEvent{
		EventID:       eventID,
		Type:          eventType,
		InvoiceID:     invoiceID,
		InvoiceNumber: sess.Metadata[metadataInvoiceNumber],
		AmountRand:    float64(sess.AmountTotal) / 100,
		Reference:     reference,
	}
}

func randToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
