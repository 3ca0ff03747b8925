package billing

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates payment link creation and webhook delivery without calling
// the Stripe API.
type MockProvider struct {
	// CreatePaymentLinkFunc allows customizing link creation behavior
	CreatePaymentLinkFunc func(ctx context.Context, params CreatePaymentLinkParams) (*PaymentLink, error)

	// VerifyWebhookFunc allows customizing webhook verification behavior
	VerifyWebhookFunc func(payload []byte, signature string) (*WebhookEvent, error)

	// Links stores created payment links by session ID
	Links map[string]*PaymentLink

	// CallLog tracks method calls for test assertions
	CallLog []string
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Links:   make(map[string]*PaymentLink),
		CallLog: []string{},
	}
}

// CreatePaymentLink creates a mock payment link.
func (m *MockProvider) CreatePaymentLink(ctx context.Context, params CreatePaymentLinkParams) (*PaymentLink, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreatePaymentLink(%s, %.2f)", params.InvoiceNumber, params.AmountRand))

	if m.CreatePaymentLinkFunc != nil {
		return m.CreatePaymentLinkFunc(ctx, params)
	}

	if params.AmountRand <= 0 {
		return nil, ErrAmountNotPositive
	}

	// Default mock behavior: fabricate a checkout session
	id := "cs_mock_" + uuid.New().String()[:8]
	link := &PaymentLink{
		ID:        id,
		URL:       "https://checkout.stripe.com/c/pay/" + id,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	m.Links[link.ID] = link
	return link, nil
}

// VerifyWebhook verifies a mock webhook.
// Default behavior treats the payload as an already-normalized
// WebhookEvent in JSON, so tests post events directly.
func (m *MockProvider) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("VerifyWebhook(%s)", signature))

	if m.VerifyWebhookFunc != nil {
		return m.VerifyWebhookFunc(payload, signature)
	}

	if signature == "" {
		return nil, ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return &event, nil
}
