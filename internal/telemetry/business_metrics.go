package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for practice-level observability.
// Counters carry the bar label so dashboards can segment Johannesburg and
// Cape Town books of work.
type BusinessMetrics struct {
	// Invoice generation
	InvoicesGenerated   *prometheus.CounterVec
	InvoiceValue        *prometheus.HistogramVec
	NumberFallbacks     *prometheus.CounterVec
	NarrativeConfidence *prometheus.HistogramVec

	// Lifecycle
	StatusTransitions  *prometheus.CounterVec
	ProFormasConverted *prometheus.CounterVec

	// Payments
	PaymentsRecorded *prometheus.CounterVec
	PaymentValue     *prometheus.HistogramVec
	InvoicesSettled  *prometheus.CounterVec

	// Reminders and sweeps
	RemindersSent     *prometheus.CounterVec
	RemindersFailed   *prometheus.CounterVec
	InvoicesEscalated *prometheus.CounterVec
	SweepDuration     *prometheus.HistogramVec

	// Stripe
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	StripeAPILatency *prometheus.HistogramVec

	// Documents and delivery
	PDFsRendered *prometheus.CounterVec
	EmailsSent   *prometheus.CounterVec
	EmailsFailed *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "lexohub"
	}

	subsystem := "billing"

	m := &BusinessMetrics{
		// =======================================================================
		// Invoice Generation
		// =======================================================================
		InvoicesGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_generated_total",
				Help:      "Total invoices generated",
			},
			[]string{"bar", "kind"}, // kind: final, pro_forma
		),
		InvoiceValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_value_rand",
				Help:      "Invoice total distribution in rand",
				Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000, 250000, 500000},
			},
			[]string{"bar", "kind"},
		),
		NumberFallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_number_fallbacks_total",
				Help:      "Total invoice numbers allocated through the timestamp fallback",
			},
			[]string{"bar"},
		),
		NarrativeConfidence: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "narrative_confidence",
				Help:      "Generated narrative confidence score distribution",
				Buckets:   []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95},
			},
			[]string{"tone"}, // tone: standard, concise, detailed
		),

		// =======================================================================
		// Lifecycle
		// =======================================================================
		StatusTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "status_transitions_total",
				Help:      "Total invoice lifecycle transitions applied",
			},
			[]string{"from", "to"},
		),
		ProFormasConverted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pro_formas_converted_total",
				Help:      "Total pro forma invoices converted to final invoices",
			},
			[]string{"bar"},
		),

		// =======================================================================
		// Payments
		// =======================================================================
		PaymentsRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payments_recorded_total",
				Help:      "Total payments recorded against invoices",
			},
			[]string{"method"}, // method: eft, card, stripe, cash
		),
		PaymentValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_value_rand",
				Help:      "Payment amount distribution in rand",
				Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
			},
			[]string{"method"},
		),
		InvoicesSettled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_settled_total",
				Help:      "Total invoices paid in full",
			},
			[]string{"bar"},
		),

		// =======================================================================
		// Reminders & Sweeps
		// =======================================================================
		RemindersSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reminders_sent_total",
				Help:      "Total payment reminders delivered",
			},
			[]string{"bar", "reminder_number"},
		),
		RemindersFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reminders_failed_total",
				Help:      "Total payment reminder delivery failures",
			},
			[]string{"bar"},
		),
		InvoicesEscalated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_escalated_total",
				Help:      "Total invoices escalated to overdue after the final reminder",
			},
			[]string{"bar"},
		),
		SweepDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sweep_duration_seconds",
				Help:      "Reminder and overdue sweep execution duration",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"sweep"}, // sweep: reminders, overdue
		),

		// =======================================================================
		// Webhooks (Stripe)
		// =======================================================================
		WebhookReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total webhooks received",
			},
			[]string{"event_type"},
		),
		WebhookProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processed_total",
				Help:      "Total webhooks successfully processed",
			},
			[]string{"event_type"},
		),
		WebhookFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Total webhook processing failures",
			},
			[]string{"event_type", "error_type"},
		),
		StripeAPILatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stripe_api_duration_seconds",
				Help:      "Stripe API call duration (helps differentiate app slowness from Stripe issues)",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"}, // operation: create_payment_link, verify_webhook
		),

		// =======================================================================
		// Documents & Delivery
		// =======================================================================
		PDFsRendered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pdfs_rendered_total",
				Help:      "Total invoice PDFs rendered",
			},
			[]string{"bar"},
		),
		EmailsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_sent_total",
				Help:      "Total emails sent by type",
			},
			[]string{"email_type"}, // email_type: reminder, invoice
		),
		EmailsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_failed_total",
				Help:      "Total email delivery failures",
			},
			[]string{"email_type", "error_type"},
		),
	}

	return m
}

// Global instance for easy access from services and handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
