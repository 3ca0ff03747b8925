package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexohub/lexohub/internal/bar"
	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/narrative"
	"github.com/lexohub/lexohub/internal/telemetry"
)

// InvoiceServiceConfig bundles the collaborators of the invoice service.
type InvoiceServiceConfig struct {
	Store     domain.Store
	Narrative *narrative.Generator
	Notifier  domain.Notifier
	Events    domain.EventPublisher
	Logger    zerolog.Logger

	// AllowNumberFallback permits timestamp-suffixed invoice numbers when
	// the sequence allocator fails. Off by default; every fallback is
	// logged at warn level and counted.
	AllowNumberFallback bool
}

type invoiceService struct {
	store               domain.Store
	narrative           *narrative.Generator
	notifier            domain.Notifier
	events              domain.EventPublisher
	logger              zerolog.Logger
	allowNumberFallback bool
}

// NewInvoiceService creates a new InvoiceService instance.
func NewInvoiceService(cfg InvoiceServiceConfig) domain.InvoiceService {
	return &invoiceService{
		store:               cfg.Store,
		narrative:           cfg.Narrative,
		notifier:            cfg.Notifier,
		events:              cfg.Events,
		logger:              cfg.Logger,
		allowNumberFallback: cfg.AllowNumberFallback,
	}
}

// GenerateInvoice raises a final or pro forma invoice from unbilled work
// on a matter. The invoice insert, number allocation and billing side
// effects share one transaction; a failure anywhere leaves no trace.
func (s *invoiceService) GenerateInvoice(ctx context.Context, advocateID uuid.UUID, params domain.GenerateInvoiceParams) (*domain.InvoiceDetail, error) {
	const op = "invoice.generate"

	if err := validateGenerateParams(op, params); err != nil {
		return nil, err
	}

	matter, err := s.store.Matters().GetMatter(ctx, params.MatterID)
	if err != nil {
		return nil, err
	}
	if matter.AdvocateID != advocateID {
		return nil, domain.ErrNotOwner
	}

	rules, err := bar.Rules(matter.Bar)
	if err != nil {
		return nil, err
	}

	entries, err := s.selectEntries(ctx, op, advocateID, matter, params)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrNoBillableEntries
	}

	expenses, err := s.selectExpenses(ctx, op, advocateID, matter, params)
	if err != nil {
		return nil, err
	}
	var expenseTotal float64
	for _, e := range expenses {
		expenseTotal += e.Amount
	}

	invoiceDate := time.Now().UTC()
	if params.InvoiceDate != nil {
		invoiceDate = *params.InvoiceDate
	}
	invoiceDate = truncateToDay(invoiceDate)

	breakdown := CalculateFees(FeeParams{
		Entries:            entries,
		RateOverride:       params.RateOverride,
		DiscountPercentage: params.DiscountPercentage,
		DiscountAmount:     params.DiscountAmount,
		Disbursements:      params.Disbursements,
		Expenses:           expenseTotal,
		VATRate:            rules.VATRate,
	})

	// An advocate-supplied narrative wins over the generator and carries
	// full confidence.
	tone := narrative.ParseTone(params.NarrativeTone)
	narrativeText := strings.TrimSpace(params.CustomNarrative)
	narrativeConfidence := 1.0
	generated := narrativeText == ""
	if generated {
		n := s.narrative.Generate(entries, narrative.Options{
			Tone:        tone,
			GroupByDate: params.NarrativeGroupByDate,
			MatterTitle: matter.Title,
		})
		narrativeText = n.Text
		narrativeConfidence = n.Confidence
	}

	status := domain.InvoiceStatusDraft
	if params.IsProForma {
		status = domain.InvoiceStatusProForma
	}

	inv := &domain.Invoice{
		AdvocateID:          advocateID,
		MatterID:            matter.ID,
		Status:              status,
		Bar:                 matter.Bar,
		InvoiceDate:         invoiceDate,
		DueDate:             rules.DueDate(invoiceDate),
		TotalFees:           breakdown.TotalFees,
		DiscountValue:       breakdown.DiscountValue,
		DiscountedFees:      breakdown.DiscountedFees,
		VATRate:             breakdown.VATRate,
		VATAmount:           breakdown.VATAmount,
		Disbursements:       breakdown.Disbursements,
		TotalExpenses:       breakdown.TotalExpenses,
		TotalAmount:         breakdown.TotalAmount,
		Narrative:           narrativeText,
		NarrativeConfidence: narrativeConfidence,
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		number, err := s.allocateNumber(ctx, tx, rules, invoiceDate)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number

		if err := tx.Invoices().CreateInvoice(ctx, inv); err != nil {
			return err
		}

		// Pro formas are quotes: entries stay unbilled, WIP untouched.
		if params.IsProForma {
			return nil
		}

		if err := tx.TimeEntries().MarkTimeEntriesBilled(ctx, entryIDs(entries), inv.ID); err != nil {
			return err
		}
		if err := tx.Expenses().MarkExpensesBilled(ctx, expenseIDs(expenses), inv.ID); err != nil {
			return err
		}
		return tx.Matters().ApplyBilling(ctx, domain.ApplyBillingParams{
			MatterID: matter.ID,
			WIPDelta: wipValue(entries),
			FeeDelta: inv.TotalAmount,
		})
	})
	if err != nil {
		return nil, err
	}

	kind := "final"
	if params.IsProForma {
		kind = "pro_forma"
	}
	s.logger.Info().
		Str("invoice_id", inv.ID.String()).
		Str("invoice_number", inv.InvoiceNumber).
		Str("bar", string(inv.Bar)).
		Str("kind", kind).
		Float64("hours", breakdown.TotalHours).
		Float64("total", inv.TotalAmount).
		Int("entries", len(entries)).
		Msg("invoice generated")

	if telemetry.Business != nil {
		telemetry.Business.InvoicesGenerated.WithLabelValues(string(inv.Bar), kind).Inc()
		telemetry.Business.InvoiceValue.WithLabelValues(string(inv.Bar), kind).Observe(inv.TotalAmount)
		// The confidence histogram tracks generator output only.
		if generated {
			telemetry.Business.NarrativeConfidence.WithLabelValues(string(tone)).Observe(narrativeConfidence)
		}
	}
	s.publishEvent(ctx, domain.EventInvoiceCreated, inv)

	return &domain.InvoiceDetail{
		Invoice:     *inv,
		Matter:      matter,
		TimeEntries: entries,
	}, nil
}

// GetInvoice retrieves an invoice with its matter, line entries and
// payments.
func (s *invoiceService) GetInvoice(ctx context.Context, advocateID, invoiceID uuid.UUID) (*domain.InvoiceDetail, error) {
	inv, err := s.store.Invoices().GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.AdvocateID != advocateID {
		return nil, domain.ErrNotOwner
	}

	matter, err := s.store.Matters().GetMatter(ctx, inv.MatterID)
	if err != nil {
		return nil, err
	}

	var entries []domain.TimeEntry
	if inv.Status == domain.InvoiceStatusProForma {
		// A pro forma quotes work that stays unbilled, so its lines are
		// the matter's current unbilled billable entries.
		entries, err = s.store.TimeEntries().ListTimeEntriesByMatter(ctx, inv.MatterID, domain.TimeEntryFilter{
			OnlyUnbilled: true,
			OnlyBillable: true,
		})
	} else {
		entries, err = s.store.TimeEntries().ListTimeEntriesByInvoice(ctx, inv.ID)
	}
	if err != nil {
		return nil, err
	}

	payments, err := s.store.Payments().ListPaymentsByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}

	return &domain.InvoiceDetail{
		Invoice:     *inv,
		Matter:      matter,
		TimeEntries: entries,
		Payments:    payments,
	}, nil
}

// ListInvoices lists the advocate's invoices, newest first.
func (s *invoiceService) ListInvoices(ctx context.Context, advocateID uuid.UUID, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	return s.store.Invoices().ListInvoices(ctx, advocateID, filter)
}

// UpdateInvoiceStatus applies a lifecycle transition with its side
// effects. A rejected transition leaves the invoice row untouched.
func (s *invoiceService) UpdateInvoiceStatus(ctx context.Context, advocateID, invoiceID uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error) {
	const op = "invoice.update_status"

	if !status.Valid() {
		return nil, domain.Invalid(op, fmt.Sprintf("unknown invoice status: %s", status))
	}
	if status == domain.InvoiceStatusConverted {
		return nil, domain.Invalid(op, "pro forma conversion goes through the convert operation")
	}

	var updated *domain.Invoice
	var from domain.InvoiceStatus
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		inv, err := tx.Invoices().GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.AdvocateID != advocateID {
			return domain.ErrNotOwner
		}
		if !inv.Status.CanTransitionTo(status) {
			return domain.NewInvalidTransitionError(op, inv.Status, status)
		}

		from = inv.Status
		if err := applyTransition(inv, status, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Invoices().UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("invoice_id", updated.ID.String()).
		Str("from", string(from)).
		Str("to", string(updated.Status)).
		Msg("invoice status updated")

	if telemetry.Business != nil {
		telemetry.Business.StatusTransitions.WithLabelValues(string(from), string(updated.Status)).Inc()
	}
	eventType := domain.EventInvoiceStatusChanged
	if updated.Status == domain.InvoiceStatusPaid {
		eventType = domain.EventInvoicePaid
	}
	s.publishEvent(ctx, eventType, updated)

	return updated, nil
}

// ConvertProForma creates a final invoice from an accepted pro forma. The
// quoted amounts and narrative carry over unchanged; the billing side
// effects the pro forma deferred run against the matter's current
// unbilled work, all in one transaction.
func (s *invoiceService) ConvertProForma(ctx context.Context, advocateID, proFormaID uuid.UUID) (*domain.InvoiceDetail, error) {
	var detail *domain.InvoiceDetail
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		pf, err := tx.Invoices().GetInvoice(ctx, proFormaID)
		if err != nil {
			return err
		}
		if pf.AdvocateID != advocateID {
			return domain.ErrNotOwner
		}
		if pf.Status == domain.InvoiceStatusConverted {
			return domain.ErrProFormaAlreadyConverted
		}
		if pf.Status != domain.InvoiceStatusProForma {
			return domain.ErrInvoiceNotProForma
		}

		matter, err := tx.Matters().GetMatter(ctx, pf.MatterID)
		if err != nil {
			return err
		}
		rules, err := bar.Rules(pf.Bar)
		if err != nil {
			return err
		}

		entries, err := tx.TimeEntries().ListTimeEntriesByMatter(ctx, pf.MatterID, domain.TimeEntryFilter{
			OnlyUnbilled: true,
			OnlyBillable: true,
		})
		if err != nil {
			return err
		}
		expenses, err := tx.Expenses().ListExpensesByMatter(ctx, pf.MatterID, true)
		if err != nil {
			return err
		}

		invoiceDate := truncateToDay(time.Now().UTC())
		number, err := s.allocateNumber(ctx, tx, rules, invoiceDate)
		if err != nil {
			return err
		}

		final := &domain.Invoice{
			AdvocateID:          pf.AdvocateID,
			MatterID:            pf.MatterID,
			InvoiceNumber:       number,
			Status:              domain.InvoiceStatusDraft,
			Bar:                 pf.Bar,
			InvoiceDate:         invoiceDate,
			DueDate:             rules.DueDate(invoiceDate),
			TotalFees:           pf.TotalFees,
			DiscountValue:       pf.DiscountValue,
			DiscountedFees:      pf.DiscountedFees,
			VATRate:             pf.VATRate,
			VATAmount:           pf.VATAmount,
			Disbursements:       pf.Disbursements,
			TotalExpenses:       pf.TotalExpenses,
			TotalAmount:         pf.TotalAmount,
			Narrative:           pf.Narrative,
			NarrativeConfidence: pf.NarrativeConfidence,
		}
		if err := tx.Invoices().CreateInvoice(ctx, final); err != nil {
			return err
		}

		if len(entries) > 0 {
			if err := tx.TimeEntries().MarkTimeEntriesBilled(ctx, entryIDs(entries), final.ID); err != nil {
				return err
			}
		}
		if err := tx.Expenses().MarkExpensesBilled(ctx, expenseIDs(expenses), final.ID); err != nil {
			return err
		}
		if err := tx.Matters().ApplyBilling(ctx, domain.ApplyBillingParams{
			MatterID: pf.MatterID,
			WIPDelta: wipValue(entries),
			FeeDelta: final.TotalAmount,
		}); err != nil {
			return err
		}

		pf.Status = domain.InvoiceStatusConverted
		pf.ConvertedToInvoiceID = &final.ID
		if err := tx.Invoices().UpdateInvoice(ctx, pf); err != nil {
			return err
		}

		detail = &domain.InvoiceDetail{
			Invoice:     *final,
			Matter:      matter,
			TimeEntries: entries,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("pro_forma_id", proFormaID.String()).
		Str("invoice_id", detail.Invoice.ID.String()).
		Str("invoice_number", detail.Invoice.InvoiceNumber).
		Msg("pro forma converted")

	if telemetry.Business != nil {
		telemetry.Business.ProFormasConverted.WithLabelValues(string(detail.Invoice.Bar)).Inc()
	}
	s.publishEvent(ctx, domain.EventInvoiceConverted, &detail.Invoice)

	return detail, nil
}

// RecordPayment appends a payment and settles the invoice when cumulative
// payments cover the total. Partial payments update the paid amount and
// leave the status untouched.
func (s *invoiceService) RecordPayment(ctx context.Context, advocateID uuid.UUID, params domain.RecordPaymentParams) (*domain.Invoice, error) {
	const op = "payment.record"

	if params.Amount <= 0 {
		return nil, domain.NewValidationError(op, "amount", "payment amount must be positive")
	}
	method := params.Method
	if method == "" {
		method = "eft"
	}
	paymentDate := params.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}
	paymentDate = truncateToDay(paymentDate)

	var updated *domain.Invoice
	var settled bool
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		inv, err := tx.Invoices().GetInvoice(ctx, params.InvoiceID)
		if err != nil {
			return err
		}
		if inv.AdvocateID != advocateID {
			return domain.ErrNotOwner
		}
		switch inv.Status {
		case domain.InvoiceStatusSent, domain.InvoiceStatusUnpaid, domain.InvoiceStatusOverdue:
			// payable
		case domain.InvoiceStatusPaid:
			return domain.ErrInvoiceAlreadyPaid
		default:
			return domain.ErrInvoiceNotPayable
		}

		p := &domain.Payment{
			InvoiceID:   inv.ID,
			Amount:      RoundCents(params.Amount),
			PaymentDate: paymentDate,
			Method:      method,
			Reference:   params.Reference,
		}
		if err := tx.Payments().CreatePayment(ctx, p); err != nil {
			return err
		}

		paid, err := tx.Payments().SumPaymentsForInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		inv.AmountPaid = RoundCents(paid)

		if inv.AmountPaid >= inv.TotalAmount {
			if err := applyTransition(inv, domain.InvoiceStatusPaid, time.Now().UTC()); err != nil {
				return err
			}
			settled = true
		}
		if err := tx.Invoices().UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("invoice_id", updated.ID.String()).
		Float64("amount", params.Amount).
		Str("method", method).
		Bool("settled", settled).
		Msg("payment recorded")

	if telemetry.Business != nil {
		telemetry.Business.PaymentsRecorded.WithLabelValues(method).Inc()
		telemetry.Business.PaymentValue.WithLabelValues(method).Observe(params.Amount)
		if settled {
			telemetry.Business.InvoicesSettled.WithLabelValues(string(updated.Bar)).Inc()
		}
	}
	if settled {
		s.publishEvent(ctx, domain.EventInvoicePaid, updated)
	}

	return updated, nil
}

// SweepReminders sends every reminder due on or before today and
// escalates invoices whose schedule is spent. Failures are per invoice;
// the sweep itself only fails when the due list cannot be loaded.
func (s *invoiceService) SweepReminders(ctx context.Context, today time.Time) (*domain.ReminderSweepSummary, error) {
	start := time.Now()
	today = truncateToDay(today)

	due, err := s.store.Invoices().ListRemindersDue(ctx, today)
	if err != nil {
		return nil, err
	}

	summary := &domain.ReminderSweepSummary{Scanned: len(due)}
	for i := range due {
		inv := &due[i]

		// Running the sweep twice on one day must not chase anyone twice.
		if inv.LastReminderDate != nil && sameDay(*inv.LastReminderDate, today) {
			continue
		}

		escalated, err := s.remindInvoice(ctx, inv, today)
		if err != nil {
			summary.Failed++
			s.logger.Error().Err(err).
				Str("invoice_id", inv.ID.String()).
				Str("invoice_number", inv.InvoiceNumber).
				Msg("reminder failed")
			if telemetry.Business != nil {
				telemetry.Business.RemindersFailed.WithLabelValues(string(inv.Bar)).Inc()
			}
			continue
		}
		summary.Sent++
		if escalated {
			summary.Escalated++
		}
	}

	s.logger.Info().
		Int("scanned", summary.Scanned).
		Int("sent", summary.Sent).
		Int("escalated", summary.Escalated).
		Int("failed", summary.Failed).
		Msg("reminder sweep complete")
	if telemetry.Business != nil {
		telemetry.Business.SweepDuration.WithLabelValues("reminders").Observe(time.Since(start).Seconds())
	}
	return summary, nil
}

// SweepOverdue moves sent and unpaid invoices past their due date to
// overdue through the lifecycle rules.
func (s *invoiceService) SweepOverdue(ctx context.Context, today time.Time) (*domain.OverdueSweepSummary, error) {
	start := time.Now()
	today = truncateToDay(today)

	candidates, err := s.store.Invoices().ListOverdueCandidates(ctx, today)
	if err != nil {
		return nil, err
	}

	summary := &domain.OverdueSweepSummary{Scanned: len(candidates)}
	for i := range candidates {
		inv := &candidates[i]
		if !inv.Status.CanTransitionTo(domain.InvoiceStatusOverdue) {
			continue
		}
		from := inv.Status
		if err := applyTransition(inv, domain.InvoiceStatusOverdue, time.Now().UTC()); err != nil {
			s.logger.Error().Err(err).Str("invoice_id", inv.ID.String()).Msg("failed to mark invoice overdue")
			continue
		}
		if err := s.store.Invoices().UpdateInvoice(ctx, inv); err != nil {
			s.logger.Error().Err(err).Str("invoice_id", inv.ID.String()).Msg("failed to mark invoice overdue")
			continue
		}
		summary.Marked++
		if telemetry.Business != nil {
			telemetry.Business.StatusTransitions.WithLabelValues(string(from), string(domain.InvoiceStatusOverdue)).Inc()
		}
		s.publishEvent(ctx, domain.EventInvoiceStatusChanged, inv)
	}

	s.logger.Info().
		Int("scanned", summary.Scanned).
		Int("marked", summary.Marked).
		Msg("overdue sweep complete")
	if telemetry.Business != nil {
		telemetry.Business.SweepDuration.WithLabelValues("overdue").Observe(time.Since(start).Seconds())
	}
	return summary, nil
}

// remindInvoice delivers one reminder, writes the audit row, advances the
// invoice's reminder bookkeeping and escalates after the final reminder.
func (s *invoiceService) remindInvoice(ctx context.Context, inv *domain.Invoice, today time.Time) (escalated bool, err error) {
	matter, err := s.store.Matters().GetMatter(ctx, inv.MatterID)
	if err != nil {
		return false, err
	}
	advocate, err := s.store.Advocates().GetAdvocate(ctx, inv.AdvocateID)
	if err != nil {
		return false, err
	}
	rules, err := bar.Rules(inv.Bar)
	if err != nil {
		return false, err
	}

	number := inv.RemindersSent + 1
	sendErr := s.notifier.SendReminder(ctx, domain.ReminderNotification{
		Invoice:        inv,
		Matter:         matter,
		Advocate:       advocate,
		ReminderNumber: number,
		Final:          number >= rules.ReminderCount(),
	})

	s.auditReminder(ctx, inv, number, sendErr)

	if sendErr != nil {
		return false, sendErr
	}

	inv.RemindersSent = number
	d := today
	inv.LastReminderDate = &d
	inv.NextReminderDate = rules.NextReminderDate(inv.InvoiceDate, inv.RemindersSent)

	if inv.RemindersSent >= rules.ReminderCount() && inv.Status.CanTransitionTo(domain.InvoiceStatusOverdue) {
		if err := applyTransition(inv, domain.InvoiceStatusOverdue, time.Now().UTC()); err != nil {
			return false, err
		}
		escalated = true
	}

	if err := s.store.Invoices().UpdateInvoice(ctx, inv); err != nil {
		return escalated, err
	}

	if telemetry.Business != nil {
		telemetry.Business.RemindersSent.WithLabelValues(string(inv.Bar), strconv.Itoa(number)).Inc()
		if escalated {
			telemetry.Business.InvoicesEscalated.WithLabelValues(string(inv.Bar)).Inc()
		}
	}
	s.publishEvent(ctx, domain.EventReminderSent, inv)
	return escalated, nil
}

// auditReminder writes the reminder_logs row. A failed audit write is
// logged and otherwise swallowed so it cannot stall the sweep.
func (s *invoiceService) auditReminder(ctx context.Context, inv *domain.Invoice, number int, sendErr error) {
	entry := &domain.ReminderLog{
		InvoiceID:      inv.ID,
		AdvocateID:     inv.AdvocateID,
		ReminderNumber: number,
		SentAt:         time.Now().UTC(),
		Status:         domain.ReminderStatusSent,
	}
	if sendErr != nil {
		entry.Status = domain.ReminderStatusFailed
		entry.Error = sendErr.Error()
	}
	if err := s.store.ReminderLogs().CreateReminderLog(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("invoice_id", inv.ID.String()).Msg("failed to write reminder log")
	}
}

// selectEntries resolves which time entries the invoice covers: the
// explicit IDs if given, otherwise every unbilled billable entry on the
// matter.
func (s *invoiceService) selectEntries(ctx context.Context, op string, advocateID uuid.UUID, matter *domain.Matter, params domain.GenerateInvoiceParams) ([]domain.TimeEntry, error) {
	if len(params.TimeEntryIDs) == 0 {
		return s.store.TimeEntries().ListTimeEntriesByMatter(ctx, matter.ID, domain.TimeEntryFilter{
			OnlyUnbilled: true,
			OnlyBillable: true,
		})
	}

	ids := dedupeIDs(params.TimeEntryIDs)
	entries, err := s.store.TimeEntries().ListTimeEntriesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(entries) != len(ids) {
		return nil, domain.NewValidationError(op, "time_entry_ids", "one or more time entries do not exist")
	}
	for _, e := range entries {
		switch {
		case e.AdvocateID != advocateID:
			return nil, domain.NewValidationError(op, "time_entry_ids", "one or more time entries belong to another advocate")
		case e.MatterID != matter.ID:
			return nil, domain.NewValidationError(op, "time_entry_ids", "one or more time entries belong to another matter")
		case !e.Billable:
			return nil, domain.NewValidationError(op, "time_entry_ids", "one or more time entries are not billable")
		case e.Billed:
			return nil, domain.NewValidationError(op, "time_entry_ids", "one or more time entries are already billed")
		}
	}
	return entries, nil
}

// selectExpenses resolves which expenses the invoice passes through: the
// explicit IDs if given, otherwise every unbilled expense on the matter.
func (s *invoiceService) selectExpenses(ctx context.Context, op string, advocateID uuid.UUID, matter *domain.Matter, params domain.GenerateInvoiceParams) ([]domain.Expense, error) {
	if len(params.ExpenseIDs) == 0 {
		return s.store.Expenses().ListExpensesByMatter(ctx, matter.ID, true)
	}

	ids := dedupeIDs(params.ExpenseIDs)
	expenses, err := s.store.Expenses().ListExpensesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(expenses) != len(ids) {
		return nil, domain.NewValidationError(op, "expense_ids", "one or more expenses do not exist")
	}
	for _, e := range expenses {
		switch {
		case e.AdvocateID != advocateID:
			return nil, domain.NewValidationError(op, "expense_ids", "one or more expenses belong to another advocate")
		case e.MatterID != matter.ID:
			return nil, domain.NewValidationError(op, "expense_ids", "one or more expenses belong to another matter")
		case e.Billed:
			return nil, domain.NewValidationError(op, "expense_ids", "one or more expenses are already billed")
		}
	}
	return expenses, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// allocateNumber draws the next number from the (prefix, period)
// sequence. When the sequence is unavailable and the fallback is enabled,
// a timestamp-suffixed number keeps invoicing alive at the cost of the
// NNNN format.
func (s *invoiceService) allocateNumber(ctx context.Context, tx domain.Store, rules bar.PaymentRules, invoiceDate time.Time) (string, error) {
	const op = "invoice.allocate_number"

	period := invoiceDate.Format("200601")
	seq, err := tx.Invoices().NextSequence(ctx, rules.InvoicePrefix, period)
	if err == nil {
		return fmt.Sprintf("%s-%s-%04d", rules.InvoicePrefix, period, seq), nil
	}
	if !s.allowNumberFallback {
		return "", domain.Internal(err, op, "failed to allocate invoice number")
	}

	number := fmt.Sprintf("%s-%s-%d", rules.InvoicePrefix, period, time.Now().UnixNano())
	s.logger.Warn().Err(err).
		Str("invoice_number", number).
		Str("bar", string(rules.Bar)).
		Msg("invoice sequence unavailable, fell back to timestamp numbering")
	if telemetry.Business != nil {
		telemetry.Business.NumberFallbacks.WithLabelValues(string(rules.Bar)).Inc()
	}
	return number, nil
}

// publishEvent pushes a lifecycle event. Publishing is best effort; a
// failure is logged and never surfaces to the caller.
func (s *invoiceService) publishEvent(ctx context.Context, eventType string, inv *domain.Invoice) {
	if s.events == nil {
		return
	}
	ev := domain.InvoiceEvent{
		Type:          eventType,
		InvoiceID:     inv.ID,
		AdvocateID:    inv.AdvocateID,
		InvoiceNumber: inv.InvoiceNumber,
		Status:        inv.Status,
		Bar:           inv.Bar,
		Amount:        inv.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.events.PublishInvoiceEvent(ctx, ev); err != nil {
		s.logger.Warn().Err(err).
			Str("invoice_id", inv.ID.String()).
			Str("event", eventType).
			Msg("failed to publish invoice event")
	}
}

// applyTransition mutates the invoice for a transition the lifecycle
// table has already allowed. Sent stamps the send time once and schedules
// the first reminder; Paid stamps the payment date and records the full
// amount when no payments were captured individually.
func applyTransition(inv *domain.Invoice, to domain.InvoiceStatus, now time.Time) error {
	switch to {
	case domain.InvoiceStatusSent:
		if inv.SentAt == nil {
			t := now
			inv.SentAt = &t
		}
		if inv.RemindersSent == 0 && inv.NextReminderDate == nil {
			rules, err := bar.Rules(inv.Bar)
			if err != nil {
				return err
			}
			inv.NextReminderDate = rules.NextReminderDate(inv.InvoiceDate, 0)
		}
	case domain.InvoiceStatusPaid:
		if inv.DatePaid == nil {
			t := now
			inv.DatePaid = &t
		}
		if inv.AmountPaid == 0 {
			inv.AmountPaid = inv.TotalAmount
		}
	}
	inv.Status = to
	return nil
}

func validateGenerateParams(op string, params domain.GenerateInvoiceParams) error {
	var err error
	if params.MatterID == uuid.Nil {
		err = domain.AddFieldError(err, "matter_id", "matter is required")
	}
	if !params.IncludeUnbilledTime && len(params.TimeEntryIDs) == 0 {
		err = domain.AddFieldError(err, "time_entry_ids", "select time entries or set include_unbilled_time")
	}
	if params.RateOverride != nil && *params.RateOverride < 0 {
		err = domain.AddFieldError(err, "rate_override", "rate override cannot be negative")
	}
	if params.DiscountPercentage != nil && (*params.DiscountPercentage < 0 || *params.DiscountPercentage > 100) {
		err = domain.AddFieldError(err, "discount_percentage", "discount percentage must be between 0 and 100")
	}
	if params.DiscountAmount != nil && *params.DiscountAmount < 0 {
		err = domain.AddFieldError(err, "discount_amount", "discount amount cannot be negative")
	}
	if params.Disbursements < 0 {
		err = domain.AddFieldError(err, "disbursements", "disbursements cannot be negative")
	}
	if ve, ok := err.(*domain.ValidationError); ok {
		ve.Op = op
	}
	return err
}

func entryIDs(entries []domain.TimeEntry) []uuid.UUID {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func expenseIDs(expenses []domain.Expense) []uuid.UUID {
	ids := make([]uuid.UUID, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
	}
	return ids
}

// wipValue is the rand value the entries contributed to the matter's
// WIP, priced at each entry's own recorded rate. An invoice-level rate
// override changes what is billed, not what leaves WIP.
func wipValue(entries []domain.TimeEntry) float64 {
	var v float64
	for _, e := range entries {
		v += EntryFee(e.DurationMinutes, e.Rate)
	}
	return RoundCents(v)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
