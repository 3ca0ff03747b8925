package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lexohub/lexohub/internal/billing"
	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/telemetry"
)

// handleStripeWebhook receives gateway callbacks for hosted payment
// sessions. The endpoint is unauthenticated; trust comes from the
// webhook signature. Response codes follow gateway retry semantics:
// 2xx acknowledges the event, anything else causes a redelivery.
func (s *Server) handleStripeWebhook(c echo.Context) error {
	const op = "api.stripe_webhook"
	ctx := c.Request().Context()
	log := zerolog.Ctx(ctx)

	if s.billing == nil {
		return domain.Errorf(domain.ENOTIMPL, op, "online payments are not configured")
	}

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
	}

	event, err := s.billing.VerifyWebhook(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues("unknown", "verification").Inc()
		}
		log.Warn().Err(err).Msg("webhook verification failed")
		return echo.NewHTTPError(http.StatusBadRequest, "webhook verification failed")
	}
	if event == nil {
		// Authentic but not an event the billing flow acts on.
		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	}

	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(event.Type).Inc()
	}

	switch event.Type {
	case billing.EventPaymentCompleted:
		if err := s.recordGatewayPayment(ctx, event); err != nil {
			return err
		}
	case billing.EventPaymentFailed:
		log.Warn().
			Str("event_id", event.EventID).
			Str("invoice_id", event.InvoiceID.String()).
			Str("reference", event.Reference).
			Msg("gateway payment failed")
	}

	if telemetry.Business != nil {
		telemetry.Business.WebhookProcessed.WithLabelValues(event.Type).Inc()
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// recordGatewayPayment applies a completed checkout to its invoice.
// Gateways redeliver webhooks, so the payment reference doubles as an
// idempotency key: an invoice already carrying the reference is
// acknowledged without a second credit.
func (s *Server) recordGatewayPayment(ctx context.Context, event *billing.WebhookEvent) error {
	const op = "api.stripe_webhook"
	log := zerolog.Ctx(ctx)

	inv, err := s.store.Invoices().GetInvoice(ctx, event.InvoiceID)
	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues(event.Type, "invoice_lookup").Inc()
		}
		return domain.WrapError(err, domain.ErrorCode(err), op, "webhook references an unknown invoice")
	}

	if event.Reference != "" {
		payments, err := s.store.Payments().ListPaymentsByInvoice(ctx, inv.ID)
		if err != nil {
			if telemetry.Business != nil {
				telemetry.Business.WebhookFailed.WithLabelValues(event.Type, "payment_lookup").Inc()
			}
			return domain.Internal(err, op, "could not check for duplicate delivery")
		}
		for _, p := range payments {
			if p.Reference == event.Reference {
				log.Info().
					Str("invoice_number", inv.InvoiceNumber).
					Str("reference", event.Reference).
					Msg("duplicate webhook delivery ignored")
				return nil
			}
		}
	}

	_, err = s.invoices.RecordPayment(ctx, inv.AdvocateID, domain.RecordPaymentParams{
		InvoiceID:   inv.ID,
		Amount:      event.AmountRand,
		PaymentDate: time.Now().UTC(),
		Method:      "stripe",
		Reference:   event.Reference,
	})
	if err != nil {
		// A settled invoice rejects further payments; a redelivery that
		// slipped past the reference check lands here and is safe to
		// acknowledge.
		if domain.ErrorCode(err) == domain.ECONFLICT {
			log.Warn().
				Err(err).
				Str("invoice_number", inv.InvoiceNumber).
				Str("reference", event.Reference).
				Msg("gateway payment acknowledged without credit")
			return nil
		}
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues(event.Type, "record_payment").Inc()
		}
		return domain.Internal(err, op, "could not record gateway payment")
	}

	log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Float64("amount", event.AmountRand).
		Str("reference", event.Reference).
		Msg("gateway payment recorded")
	return nil
}
