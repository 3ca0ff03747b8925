// Package events publishes invoice lifecycle events to NATS so
// downstream consumers (accounting exports, practice dashboards) can
// react without polling.
package events

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/lexohub/lexohub/internal/domain"
)

// SubjectPrefix namespaces every subject this service publishes.
// Event types map directly onto subjects: invoice.paid publishes to
// lexohub.invoice.paid.
const SubjectPrefix = "lexohub"

// Subject returns the NATS subject for an event type.
func Subject(eventType string) string {
	return SubjectPrefix + "." + eventType
}

// NATSPublisher implements domain.EventPublisher over a NATS
// connection. Publishes are fire and forget; the server buffers and
// the connection reconnects indefinitely.
type NATSPublisher struct {
	conn    *nats.Conn
	publish func(subject string, data []byte) error
	logger  zerolog.Logger
}

var _ domain.EventPublisher = (*NATSPublisher)(nil)

// Connect dials the NATS server and returns a publisher.
func Connect(url string, logger zerolog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("lexohub"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}

	logger = logger.With().Str("component", "events").Logger()
	logger.Info().Str("url", conn.ConnectedUrl()).Msg("connected to nats")

	return &NATSPublisher{
		conn:    conn,
		publish: conn.Publish,
		logger:  logger,
	}, nil
}

// PublishInvoiceEvent publishes one event to its type's subject.
func (p *NATSPublisher) PublishInvoiceEvent(ctx context.Context, event domain.InvoiceEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}

	subject := Subject(event.Type)
	if err := p.publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug().
		Str("subject", subject).
		Str("invoice_number", event.InvoiceNumber).
		Msg("published event")
	return nil
}

// Close drains the connection, flushing buffered publishes before
// disconnecting.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// NoopPublisher drops events. Used when no message bus is configured,
// which keeps single-binary deployments working without NATS.
type NoopPublisher struct{}

var _ domain.EventPublisher = NoopPublisher{}

// PublishInvoiceEvent discards the event.
func (NoopPublisher) PublishInvoiceEvent(ctx context.Context, event domain.InvoiceEvent) error {
	return nil
}
