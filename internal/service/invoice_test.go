package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/narrative"
)

func newTestMatter(advocateID uuid.UUID, b domain.Bar) *domain.Matter {
	return &domain.Matter{
		ID:            uuid.New(),
		AdvocateID:    advocateID,
		Title:         "Nkosi v Meridian Underwriters",
		Reference:     "2025/0143",
		ClientName:    "T Nkosi",
		AttorneyName:  "S Pillay",
		AttorneyFirm:  "Pillay Attorneys Inc",
		AttorneyEmail: "accounts@pillayinc.co.za",
		Bar:           b,
		Status:        domain.MatterStatusActive,
	}
}

func newTestEntry(m *domain.Matter, minutes int, rate float64) domain.TimeEntry {
	return domain.TimeEntry{
		ID:              uuid.New(),
		AdvocateID:      m.AdvocateID,
		MatterID:        m.ID,
		Date:            time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Description:     "Drafting heads of argument",
		DurationMinutes: minutes,
		Rate:            rate,
		Billable:        true,
	}
}

func newTestExpense(m *domain.Matter, amount float64) domain.Expense {
	return domain.Expense{
		ID:          uuid.New(),
		AdvocateID:  m.AdvocateID,
		MatterID:    m.ID,
		Date:        time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Description: "Transcript of record",
		Amount:      amount,
	}
}

func newInvoiceTestService(store *mockStore, notifier *mockNotifier, events *mockPublisher) domain.InvoiceService {
	return NewInvoiceService(InvoiceServiceConfig{
		Store:     store,
		Narrative: narrative.New(1),
		Notifier:  notifier,
		Events:    events,
		Logger:    zerolog.Nop(),
	})
}

// Test_GenerateInvoice_FinalInvoiceTotalsAndSideEffects verifies the
// canonical Johannesburg case: two hours at R1000/h yields R2000 fees,
// R300 VAT and a R2300 total due 60 days out, with the entries marked
// billed and the matter's WIP moved to actual fees.
func Test_GenerateInvoice_FinalInvoiceTotalsAndSideEffects(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	entry := newTestEntry(matter, 120, 1000)
	invDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	store := &mockStore{}
	store.matters.matter = matter
	store.timeEntries.entries = []domain.TimeEntry{entry}
	events := &mockPublisher{}
	svc := newInvoiceTestService(store, &mockNotifier{}, events)

	detail, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
		MatterID:            matter.ID,
		IncludeUnbilledTime: true,
		InvoiceDate:         &invDate,
	})
	require.NoError(t, err)
	require.Len(t, store.invoices.created, 1)

	inv := detail.Invoice
	assert.Equal(t, domain.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "JHB-202503-0001", inv.InvoiceNumber)
	assert.Equal(t, 2000.0, inv.TotalFees)
	assert.Equal(t, 0.0, inv.DiscountValue)
	assert.Equal(t, 2000.0, inv.DiscountedFees)
	assert.Equal(t, 0.15, inv.VATRate)
	assert.Equal(t, 300.0, inv.VATAmount)
	assert.Equal(t, 2300.0, inv.TotalAmount)
	assert.Equal(t, invDate.AddDate(0, 0, 60), inv.DueDate)
	assert.NotEmpty(t, inv.Narrative)
	assert.InDelta(t, 0.70, inv.NarrativeConfidence, 0.25)

	require.Len(t, store.timeEntries.markCalls, 1)
	assert.Equal(t, []uuid.UUID{entry.ID}, store.timeEntries.markCalls[0].ids)
	assert.Equal(t, inv.ID, store.timeEntries.markCalls[0].invoiceID)

	require.Len(t, store.matters.billed, 1)
	assert.Equal(t, 2000.0, store.matters.billed[0].WIPDelta)
	assert.Equal(t, 2300.0, store.matters.billed[0].FeeDelta)

	require.Len(t, events.events, 1)
	assert.Equal(t, domain.EventInvoiceCreated, events.events[0].Type)
	assert.Equal(t, 2300.0, events.events[0].Amount)
}

// Test_GenerateInvoice_PercentageDiscountAppliedBeforeVAT verifies that a
// 10% discount reduces the fee base before VAT so the discount is never
// taxed.
func Test_GenerateInvoice_PercentageDiscountAppliedBeforeVAT(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	entry := newTestEntry(matter, 120, 1000)
	pct := 10.0

	store := &mockStore{}
	store.matters.matter = matter
	store.timeEntries.entries = []domain.TimeEntry{entry}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	detail, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
		MatterID:            matter.ID,
		IncludeUnbilledTime: true,
		DiscountPercentage:  &pct,
	})
	require.NoError(t, err)

	inv := detail.Invoice
	assert.Equal(t, 2000.0, inv.TotalFees)
	assert.Equal(t, 200.0, inv.DiscountValue)
	assert.Equal(t, 1800.0, inv.DiscountedFees)
	assert.Equal(t, 270.0, inv.VATAmount)
	assert.Equal(t, 2070.0, inv.TotalAmount)
}

// Test_GenerateInvoice_ExpensesAndDisbursementsPassThrough verifies that
// matter expenses and disbursements land on the invoice at cost, outside
// the VAT base, and that the expenses are marked billed.
func Test_GenerateInvoice_ExpensesAndDisbursementsPassThrough(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	entry := newTestEntry(matter, 120, 1000)
	expense := domain.Expense{
		ID:          uuid.New(),
		AdvocateID:  advocateID,
		MatterID:    matter.ID,
		Date:        time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Description: "Transcript of record",
		Amount:      150,
	}

	store := &mockStore{}
	store.matters.matter = matter
	store.timeEntries.entries = []domain.TimeEntry{entry}
	store.expenses.expenses = []domain.Expense{expense}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	detail, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
		MatterID:            matter.ID,
		IncludeUnbilledTime: true,
		Disbursements:       85.5,
	})
	require.NoError(t, err)

	inv := detail.Invoice
	assert.Equal(t, 300.0, inv.VATAmount, "VAT applies to fees only")
	assert.Equal(t, 85.5, inv.Disbursements)
	assert.Equal(t, 150.0, inv.TotalExpenses)
	assert.Equal(t, 2535.5, inv.TotalAmount)

	require.Len(t, store.expenses.markCalls, 1)
	assert.Equal(t, []uuid.UUID{expense.ID}, store.expenses.markCalls[0].ids)
}

// Test_GenerateInvoice_ExplicitExpenseSelection verifies that naming
// expense IDs bills only those expenses and leaves the rest on the
// matter for a later invoice.
func Test_GenerateInvoice_ExplicitExpenseSelection(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	entry := newTestEntry(matter, 120, 1000)
	selected := newTestExpense(matter, 150)
	skipped := newTestExpense(matter, 900)

	store := &mockStore{}
	store.matters.matter = matter
	store.timeEntries.entries = []domain.TimeEntry{entry}
	store.expenses.expenses = []domain.Expense{selected, skipped}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	// The duplicate ID collapses to one selection.
	detail, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
		MatterID:            matter.ID,
		IncludeUnbilledTime: true,
		ExpenseIDs:          []uuid.UUID{selected.ID, selected.ID},
	})
	require.NoError(t, err)

	inv := detail.Invoice
	assert.Equal(t, 150.0, inv.TotalExpenses)
	assert.Equal(t, 2450.0, inv.TotalAmount)

	require.Len(t, store.expenses.markCalls, 1)
	assert.Equal(t, []uuid.UUID{selected.ID}, store.expenses.markCalls[0].ids)
}

// Test_GenerateInvoice_ExplicitExpenseSelectionIsValidated mirrors the
// time entry checks for expenses: every named expense must exist, belong
// to the advocate, sit on the invoice's matter and still be unbilled.
func Test_GenerateInvoice_ExplicitExpenseSelectionIsValidated(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	entry := newTestEntry(matter, 60, 1000)
	foreignMatter := newTestExpense(matter, 100)
	foreignMatter.MatterID = uuid.New()
	foreignAdvocate := newTestExpense(matter, 100)
	foreignAdvocate.AdvocateID = uuid.New()
	alreadyBilled := newTestExpense(matter, 100)
	alreadyBilled.Billed = true

	tests := []struct {
		name string
		ids  []uuid.UUID
	}{
		{"unknown expense id", []uuid.UUID{uuid.New()}},
		{"expense on another matter", []uuid.UUID{foreignMatter.ID}},
		{"expense of another advocate", []uuid.UUID{foreignAdvocate.ID}},
		{"expense already billed", []uuid.UUID{alreadyBilled.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			store.matters.matter = matter
			store.timeEntries.entries = []domain.TimeEntry{entry}
			store.expenses.expenses = []domain.Expense{foreignMatter, foreignAdvocate, alreadyBilled}
			svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

			_, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
				MatterID:            matter.ID,
				IncludeUnbilledTime: true,
				ExpenseIDs:          tt.ids,
			})
			assert.True(t, domain.IsValidationError(err), "expected validation error, got %v", err)
			assert.Contains(t, domain.GetValidationFields(err), "expense_ids")
		})
	}
}

// Test_GenerateInvoice_CustomNarrative verifies an advocate-supplied
// narrative replaces the generated one, trimmed of surrounding
// whitespace, and carries full confidence.
func Test_GenerateInvoice_CustomNarrative(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	entry := newTestEntry(matter, 120, 1000)

	store := &mockStore{}
	store.matters.matter = matter
	store.timeEntries.entries = []domain.TimeEntry{entry}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	custom := "To drafting heads of argument and appearing at the hearing thereof."
	detail, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
		MatterID:            matter.ID,
		IncludeUnbilledTime: true,
		CustomNarrative:     "  " + custom + "\n",
	})
	require.NoError(t, err)

	assert.Equal(t, custom, detail.Invoice.Narrative)
	assert.Equal(t, 1.0, detail.Invoice.NarrativeConfidence)
}

// Test_GenerateInvoice_ProFormaSkipsSideEffects verifies that a pro forma
// is a pure quote: nothing is marked billed and the matter's WIP and
// actual fee are untouched.
func Test_GenerateInvoice_ProFormaSkipsSideEffects(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarCapeTown)
	entry := newTestEntry(matter, 60, 1500)

	store := &mockStore{}
	store.matters.matter = matter
	store.timeEntries.entries = []domain.TimeEntry{entry}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	detail, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
		MatterID:            matter.ID,
		IncludeUnbilledTime: true,
		IsProForma:          true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceStatusProForma, detail.Invoice.Status)
	assert.Regexp(t, `^CPT-\d{6}-0001$`, detail.Invoice.InvoiceNumber)
	assert.Empty(t, store.timeEntries.markCalls, "pro forma must not bill entries")
	assert.Empty(t, store.expenses.markCalls, "pro forma must not bill expenses")
	assert.Empty(t, store.matters.billed, "pro forma must not touch WIP")
}

// Test_GenerateInvoice_SequenceNumbersArePadded verifies the NNNN zero
// padding and that the sequence key is the bar prefix plus year-month.
func Test_GenerateInvoice_SequenceNumbersArePadded(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	entry := newTestEntry(matter, 120, 1000)
	invDate := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)

	store := &mockStore{}
	store.matters.matter = matter
	store.timeEntries.entries = []domain.TimeEntry{entry}
	store.invoices.seq = 41 // next allocation returns 42
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	detail, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
		MatterID:            matter.ID,
		IncludeUnbilledTime: true,
		InvoiceDate:         &invDate,
	})
	require.NoError(t, err)

	assert.Equal(t, "JHB-202511-0042", detail.Invoice.InvoiceNumber)
	require.Len(t, store.invoices.seqCalls, 1)
	assert.Equal(t, "JHB-202511", store.invoices.seqCalls[0])
}

// Test_GenerateInvoice_NumberFallback verifies that a sequence outage
// fails the invoice by default and only degrades to timestamp numbering
// when the fallback is explicitly enabled.
func Test_GenerateInvoice_NumberFallback(t *testing.T) {
	advocateID := uuid.New()

	newStore := func() *mockStore {
		matter := newTestMatter(advocateID, domain.BarJohannesburg)
		entry := newTestEntry(matter, 120, 1000)
		store := &mockStore{}
		store.matters.matter = matter
		store.timeEntries.entries = []domain.TimeEntry{entry}
		store.invoices.seqErr = errors.New("sequence table unavailable")
		return store
	}

	t.Run("disabled by default", func(t *testing.T) {
		store := newStore()
		svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

		_, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
			MatterID:            store.matters.matter.ID,
			IncludeUnbilledTime: true,
		})
		assert.Error(t, err)
		assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
		assert.Empty(t, store.invoices.created, "no invoice may exist without a number")
	})

	t.Run("enabled falls back to timestamp", func(t *testing.T) {
		store := newStore()
		svc := NewInvoiceService(InvoiceServiceConfig{
			Store:               store,
			Narrative:           narrative.New(1),
			Notifier:            &mockNotifier{},
			Events:              &mockPublisher{},
			Logger:              zerolog.Nop(),
			AllowNumberFallback: true,
		})

		detail, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
			MatterID:            store.matters.matter.ID,
			IncludeUnbilledTime: true,
		})
		require.NoError(t, err)
		assert.Regexp(t, `^JHB-\d{6}-\d+$`, detail.Invoice.InvoiceNumber)
	})
}

// Test_GenerateInvoice_RejectsForeignMatter verifies that an advocate
// cannot invoice on another advocate's matter.
func Test_GenerateInvoice_RejectsForeignMatter(t *testing.T) {
	owner := uuid.New()
	caller := uuid.New()
	matter := newTestMatter(owner, domain.BarJohannesburg)

	store := &mockStore{}
	store.matters.matter = matter
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	_, err := svc.GenerateInvoice(context.Background(), caller, domain.GenerateInvoiceParams{
		MatterID:            matter.ID,
		IncludeUnbilledTime: true,
	})
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

// Test_GenerateInvoice_NoBillableEntriesFails verifies the empty-selection
// guard when the matter holds no unbilled billable work.
func Test_GenerateInvoice_NoBillableEntriesFails(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	billed := newTestEntry(matter, 120, 1000)
	billed.Billed = true

	store := &mockStore{}
	store.matters.matter = matter
	store.timeEntries.entries = []domain.TimeEntry{billed}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	_, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
		MatterID:            matter.ID,
		IncludeUnbilledTime: true,
	})
	assert.ErrorIs(t, err, domain.ErrNoBillableEntries)
	assert.Empty(t, store.invoices.created)
}

// Test_GenerateInvoice_ExplicitEntrySelectionIsValidated verifies that an
// explicit entry list must exist in full, belong to the matter and hold
// only unbilled billable work.
func Test_GenerateInvoice_ExplicitEntrySelectionIsValidated(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	good := newTestEntry(matter, 60, 1000)
	foreignMatter := newTestEntry(matter, 60, 1000)
	foreignMatter.MatterID = uuid.New()
	alreadyBilled := newTestEntry(matter, 60, 1000)
	alreadyBilled.Billed = true
	nonBillable := newTestEntry(matter, 60, 1000)
	nonBillable.Billable = false

	tests := []struct {
		name string
		ids  []uuid.UUID
	}{
		{"unknown entry id", []uuid.UUID{uuid.New()}},
		{"entry on another matter", []uuid.UUID{foreignMatter.ID}},
		{"entry already billed", []uuid.UUID{alreadyBilled.ID}},
		{"entry not billable", []uuid.UUID{nonBillable.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			store.matters.matter = matter
			store.timeEntries.entries = []domain.TimeEntry{good, foreignMatter, alreadyBilled, nonBillable}
			svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

			_, err := svc.GenerateInvoice(context.Background(), advocateID, domain.GenerateInvoiceParams{
				MatterID:     matter.ID,
				TimeEntryIDs: tt.ids,
			})
			assert.True(t, domain.IsValidationError(err), "expected validation error, got %v", err)
			fields := domain.GetValidationFields(err)
			assert.Contains(t, fields, "time_entry_ids")
		})
	}
}

// Test_GenerateInvoice_InputValidation verifies parameter-level rejection
// before any store access.
func Test_GenerateInvoice_InputValidation(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		params domain.GenerateInvoiceParams
		field  string
	}{
		{
			name:   "missing matter",
			params: domain.GenerateInvoiceParams{IncludeUnbilledTime: true},
			field:  "matter_id",
		},
		{
			name:   "no selection",
			params: domain.GenerateInvoiceParams{MatterID: uuid.New()},
			field:  "time_entry_ids",
		},
		{
			name: "discount percentage out of range",
			params: domain.GenerateInvoiceParams{
				MatterID:            uuid.New(),
				IncludeUnbilledTime: true,
				DiscountPercentage:  f(140),
			},
			field: "discount_percentage",
		},
		{
			name: "negative flat discount",
			params: domain.GenerateInvoiceParams{
				MatterID:            uuid.New(),
				IncludeUnbilledTime: true,
				DiscountAmount:      f(-5),
			},
			field: "discount_amount",
		},
		{
			name: "negative rate override",
			params: domain.GenerateInvoiceParams{
				MatterID:            uuid.New(),
				IncludeUnbilledTime: true,
				RateOverride:        f(-100),
			},
			field: "rate_override",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

			_, err := svc.GenerateInvoice(context.Background(), uuid.New(), tt.params)
			assert.True(t, domain.IsValidationError(err), "expected validation error, got %v", err)
			assert.Contains(t, domain.GetValidationFields(err), tt.field)
		})
	}
}

// Test_UpdateInvoiceStatus_TransitionTable verifies the lifecycle matrix:
// disallowed moves are rejected with no write, allowed moves persist.
func Test_UpdateInvoiceStatus_TransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.InvoiceStatus
		to      domain.InvoiceStatus
		allowed bool
	}{
		{"draft to sent", domain.InvoiceStatusDraft, domain.InvoiceStatusSent, true},
		{"draft to unpaid", domain.InvoiceStatusDraft, domain.InvoiceStatusUnpaid, true},
		{"draft to paid", domain.InvoiceStatusDraft, domain.InvoiceStatusPaid, false},
		{"sent to paid", domain.InvoiceStatusSent, domain.InvoiceStatusPaid, true},
		{"sent to overdue", domain.InvoiceStatusSent, domain.InvoiceStatusOverdue, true},
		{"sent to draft", domain.InvoiceStatusSent, domain.InvoiceStatusDraft, false},
		{"unpaid to sent", domain.InvoiceStatusUnpaid, domain.InvoiceStatusSent, true},
		{"overdue to paid", domain.InvoiceStatusOverdue, domain.InvoiceStatusPaid, true},
		{"overdue to sent", domain.InvoiceStatusOverdue, domain.InvoiceStatusSent, false},
		{"paid is terminal", domain.InvoiceStatusPaid, domain.InvoiceStatusSent, false},
		{"pending to draft", domain.InvoiceStatusPending, domain.InvoiceStatusDraft, true},
		{"pro forma cannot be sent", domain.InvoiceStatusProForma, domain.InvoiceStatusSent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advocateID := uuid.New()
			store := &mockStore{}
			store.invoices.invoice = &domain.Invoice{
				ID:          uuid.New(),
				AdvocateID:  advocateID,
				Status:      tt.from,
				Bar:         domain.BarJohannesburg,
				InvoiceDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
				TotalAmount: 2300,
			}
			svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

			updated, err := svc.UpdateInvoiceStatus(context.Background(), advocateID, store.invoices.invoice.ID, tt.to)
			if !tt.allowed {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				assert.Empty(t, store.invoices.updated, "rejected transition must not write")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
			require.Len(t, store.invoices.updated, 1)
			assert.Equal(t, tt.to, store.invoices.updated[0].Status)
		})
	}
}

// Test_UpdateInvoiceStatus_ConvertedUnreachable verifies that the generic
// status route refuses converted; conversion has its own operation.
func Test_UpdateInvoiceStatus_ConvertedUnreachable(t *testing.T) {
	advocateID := uuid.New()
	store := &mockStore{}
	store.invoices.invoice = &domain.Invoice{
		ID:         uuid.New(),
		AdvocateID: advocateID,
		Status:     domain.InvoiceStatusProForma,
	}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	_, err := svc.UpdateInvoiceStatus(context.Background(), advocateID, store.invoices.invoice.ID, domain.InvoiceStatusConverted)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Empty(t, store.invoices.updated)
}

// Test_UpdateInvoiceStatus_SendStampsOnceAndSchedulesFirstReminder
// verifies the send side effects: the first send stamps SentAt and books
// the first reminder off the bar schedule; later re-sends change neither.
func Test_UpdateInvoiceStatus_SendStampsOnceAndSchedulesFirstReminder(t *testing.T) {
	advocateID := uuid.New()
	invDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("first send", func(t *testing.T) {
		store := &mockStore{}
		store.invoices.invoice = &domain.Invoice{
			ID:          uuid.New(),
			AdvocateID:  advocateID,
			Status:      domain.InvoiceStatusDraft,
			Bar:         domain.BarJohannesburg,
			InvoiceDate: invDate,
			TotalAmount: 2300,
		}
		svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

		updated, err := svc.UpdateInvoiceStatus(context.Background(), advocateID, store.invoices.invoice.ID, domain.InvoiceStatusSent)
		require.NoError(t, err)
		require.NotNil(t, updated.SentAt)
		require.NotNil(t, updated.NextReminderDate)
		assert.Equal(t, invDate.AddDate(0, 0, 30), *updated.NextReminderDate)
	})

	t.Run("re-send keeps original stamps", func(t *testing.T) {
		sentAt := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
		store := &mockStore{}
		store.invoices.invoice = &domain.Invoice{
			ID:            uuid.New(),
			AdvocateID:    advocateID,
			Status:        domain.InvoiceStatusUnpaid,
			Bar:           domain.BarJohannesburg,
			InvoiceDate:   invDate,
			TotalAmount:   2300,
			SentAt:        &sentAt,
			RemindersSent: 2,
		}
		svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

		updated, err := svc.UpdateInvoiceStatus(context.Background(), advocateID, store.invoices.invoice.ID, domain.InvoiceStatusSent)
		require.NoError(t, err)
		assert.Equal(t, sentAt, *updated.SentAt, "SentAt stamps only once")
		assert.Nil(t, updated.NextReminderDate, "reminder schedule must not restart")
		assert.Equal(t, 2, updated.RemindersSent)
	})
}

// Test_UpdateInvoiceStatus_PaidStampsDateAndAmount verifies that marking
// paid without recorded payments settles the full total.
func Test_UpdateInvoiceStatus_PaidStampsDateAndAmount(t *testing.T) {
	advocateID := uuid.New()
	store := &mockStore{}
	store.invoices.invoice = &domain.Invoice{
		ID:          uuid.New(),
		AdvocateID:  advocateID,
		Status:      domain.InvoiceStatusSent,
		Bar:         domain.BarJohannesburg,
		InvoiceDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		TotalAmount: 2300,
	}
	events := &mockPublisher{}
	svc := newInvoiceTestService(store, &mockNotifier{}, events)

	updated, err := svc.UpdateInvoiceStatus(context.Background(), advocateID, store.invoices.invoice.ID, domain.InvoiceStatusPaid)
	require.NoError(t, err)
	assert.NotNil(t, updated.DatePaid)
	assert.Equal(t, 2300.0, updated.AmountPaid)

	require.Len(t, events.events, 1)
	assert.Equal(t, domain.EventInvoicePaid, events.events[0].Type)
}

// Test_ConvertProForma_CopiesAmountsAndAppliesSideEffects verifies that
// conversion carries the quoted amounts onto a fresh draft invoice with a
// new number and due date, bills the current unbilled work, and links the
// pro forma to its final invoice.
func Test_ConvertProForma_CopiesAmountsAndAppliesSideEffects(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	entry := newTestEntry(matter, 120, 1000)

	pf := &domain.Invoice{
		ID:                  uuid.New(),
		AdvocateID:          advocateID,
		MatterID:            matter.ID,
		InvoiceNumber:       "JHB-202502-0007",
		Status:              domain.InvoiceStatusProForma,
		Bar:                 domain.BarJohannesburg,
		InvoiceDate:         time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		DueDate:             time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC),
		TotalFees:           2000,
		DiscountedFees:      2000,
		VATRate:             0.15,
		VATAmount:           300,
		TotalAmount:         2300,
		Narrative:           "Drafting of heads of argument.",
		NarrativeConfidence: 0.8,
	}

	store := &mockStore{}
	store.matters.matter = matter
	store.timeEntries.entries = []domain.TimeEntry{entry}
	store.invoices.invoice = pf
	events := &mockPublisher{}
	svc := newInvoiceTestService(store, &mockNotifier{}, events)

	detail, err := svc.ConvertProForma(context.Background(), advocateID, pf.ID)
	require.NoError(t, err)

	final := detail.Invoice
	assert.Equal(t, domain.InvoiceStatusDraft, final.Status)
	assert.NotEqual(t, pf.ID, final.ID)
	assert.NotEqual(t, "JHB-202502-0007", final.InvoiceNumber)
	assert.Regexp(t, `^JHB-\d{6}-0001$`, final.InvoiceNumber)
	assert.Equal(t, 2300.0, final.TotalAmount, "quoted amounts carry over unchanged")
	assert.Equal(t, pf.Narrative, final.Narrative)
	assert.Equal(t, final.InvoiceDate.AddDate(0, 0, 60), final.DueDate, "due date runs from the conversion date")

	assert.Equal(t, domain.InvoiceStatusConverted, pf.Status)
	require.NotNil(t, pf.ConvertedToInvoiceID)
	assert.Equal(t, final.ID, *pf.ConvertedToInvoiceID)

	require.Len(t, store.timeEntries.markCalls, 1)
	assert.Equal(t, final.ID, store.timeEntries.markCalls[0].invoiceID)
	require.Len(t, store.matters.billed, 1)
	assert.Equal(t, 2000.0, store.matters.billed[0].WIPDelta)
	assert.Equal(t, 2300.0, store.matters.billed[0].FeeDelta)

	require.Len(t, events.events, 1)
	assert.Equal(t, domain.EventInvoiceConverted, events.events[0].Type)
}

// Test_ConvertProForma_Guards verifies conversion is owner-only, single
// shot, and refuses non pro forma invoices.
func Test_ConvertProForma_Guards(t *testing.T) {
	advocateID := uuid.New()

	newStoreWith := func(status domain.InvoiceStatus) *mockStore {
		matter := newTestMatter(advocateID, domain.BarJohannesburg)
		store := &mockStore{}
		store.matters.matter = matter
		store.invoices.invoice = &domain.Invoice{
			ID:         uuid.New(),
			AdvocateID: advocateID,
			MatterID:   matter.ID,
			Status:     status,
			Bar:        domain.BarJohannesburg,
		}
		return store
	}

	t.Run("already converted", func(t *testing.T) {
		store := newStoreWith(domain.InvoiceStatusConverted)
		svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})
		_, err := svc.ConvertProForma(context.Background(), advocateID, store.invoices.invoice.ID)
		assert.ErrorIs(t, err, domain.ErrProFormaAlreadyConverted)
	})

	t.Run("not a pro forma", func(t *testing.T) {
		store := newStoreWith(domain.InvoiceStatusDraft)
		svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})
		_, err := svc.ConvertProForma(context.Background(), advocateID, store.invoices.invoice.ID)
		assert.ErrorIs(t, err, domain.ErrInvoiceNotProForma)
	})

	t.Run("foreign advocate", func(t *testing.T) {
		store := newStoreWith(domain.InvoiceStatusProForma)
		svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})
		_, err := svc.ConvertProForma(context.Background(), uuid.New(), store.invoices.invoice.ID)
		assert.ErrorIs(t, err, domain.ErrNotOwner)
	})
}

// Test_RecordPayment_PartialThenSettles verifies cumulative settlement: a
// partial payment leaves the invoice open, the covering payment settles
// it with DatePaid stamped.
func Test_RecordPayment_PartialThenSettles(t *testing.T) {
	advocateID := uuid.New()
	store := &mockStore{}
	store.invoices.invoice = &domain.Invoice{
		ID:          uuid.New(),
		AdvocateID:  advocateID,
		Status:      domain.InvoiceStatusSent,
		Bar:         domain.BarJohannesburg,
		InvoiceDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		TotalAmount: 2300,
	}
	events := &mockPublisher{}
	svc := newInvoiceTestService(store, &mockNotifier{}, events)

	inv, err := svc.RecordPayment(context.Background(), advocateID, domain.RecordPaymentParams{
		InvoiceID: store.invoices.invoice.ID,
		Amount:    1000,
		Method:    "eft",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, inv.Status, "partial payment leaves status alone")
	assert.Equal(t, 1000.0, inv.AmountPaid)
	assert.Nil(t, inv.DatePaid)
	assert.Empty(t, events.events, "no settlement event for a partial payment")

	inv, err = svc.RecordPayment(context.Background(), advocateID, domain.RecordPaymentParams{
		InvoiceID: store.invoices.invoice.ID,
		Amount:    1300,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	assert.Equal(t, 2300.0, inv.AmountPaid)
	assert.NotNil(t, inv.DatePaid)

	require.Len(t, store.payments.created, 2)
	assert.Equal(t, "eft", store.payments.created[1].Method, "method defaults to eft")
	require.Len(t, events.events, 1)
	assert.Equal(t, domain.EventInvoicePaid, events.events[0].Type)
}

// Test_RecordPayment_OverpaymentSettles verifies that a payment above the
// total still settles; reconciliation of the excess is a bookkeeping
// concern, not a rejection.
func Test_RecordPayment_OverpaymentSettles(t *testing.T) {
	advocateID := uuid.New()
	store := &mockStore{}
	store.invoices.invoice = &domain.Invoice{
		ID:          uuid.New(),
		AdvocateID:  advocateID,
		Status:      domain.InvoiceStatusOverdue,
		Bar:         domain.BarCapeTown,
		TotalAmount: 2300,
	}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	inv, err := svc.RecordPayment(context.Background(), advocateID, domain.RecordPaymentParams{
		InvoiceID: store.invoices.invoice.ID,
		Amount:    5000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	assert.Equal(t, 5000.0, inv.AmountPaid)
}

// Test_RecordPayment_Guards verifies the payable-status gate and amount
// validation.
func Test_RecordPayment_Guards(t *testing.T) {
	advocateID := uuid.New()

	newStoreWith := func(status domain.InvoiceStatus) *mockStore {
		store := &mockStore{}
		store.invoices.invoice = &domain.Invoice{
			ID:          uuid.New(),
			AdvocateID:  advocateID,
			Status:      status,
			TotalAmount: 2300,
		}
		return store
	}

	t.Run("draft not payable", func(t *testing.T) {
		store := newStoreWith(domain.InvoiceStatusDraft)
		svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})
		_, err := svc.RecordPayment(context.Background(), advocateID, domain.RecordPaymentParams{
			InvoiceID: store.invoices.invoice.ID,
			Amount:    100,
		})
		assert.ErrorIs(t, err, domain.ErrInvoiceNotPayable)
		assert.Empty(t, store.payments.created)
	})

	t.Run("already paid", func(t *testing.T) {
		store := newStoreWith(domain.InvoiceStatusPaid)
		svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})
		_, err := svc.RecordPayment(context.Background(), advocateID, domain.RecordPaymentParams{
			InvoiceID: store.invoices.invoice.ID,
			Amount:    100,
		})
		assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyPaid)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		store := newStoreWith(domain.InvoiceStatusSent)
		svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})
		_, err := svc.RecordPayment(context.Background(), advocateID, domain.RecordPaymentParams{
			InvoiceID: store.invoices.invoice.ID,
			Amount:    0,
		})
		assert.True(t, domain.IsValidationError(err))
	})
}

// Test_SweepReminders_SendsDueReminderAndAdvancesSchedule verifies one
// full reminder delivery: notification, audit row, bookkeeping advance
// and the next date drawn from the bar schedule.
func Test_SweepReminders_SendsDueReminderAndAdvancesSchedule(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	invDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	today := invDate.AddDate(0, 0, 30)
	firstReminder := invDate.AddDate(0, 0, 30)

	store := &mockStore{}
	store.matters.matter = matter
	store.advocates.advocate = &domain.Advocate{ID: advocateID, Email: "adv@chambers.co.za", FullName: "B Radebe SC"}
	store.invoices.remindersDue = []domain.Invoice{{
		ID:               uuid.New(),
		AdvocateID:       advocateID,
		MatterID:         matter.ID,
		InvoiceNumber:    "JHB-202503-0001",
		Status:           domain.InvoiceStatusSent,
		Bar:              domain.BarJohannesburg,
		InvoiceDate:      invDate,
		TotalAmount:      2300,
		NextReminderDate: &firstReminder,
	}}
	notifier := &mockNotifier{}
	events := &mockPublisher{}
	svc := newInvoiceTestService(store, notifier, events)

	summary, err := svc.SweepReminders(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 0, summary.Escalated)
	assert.Equal(t, 0, summary.Failed)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, 1, notifier.sent[0].ReminderNumber)
	assert.False(t, notifier.sent[0].Final)

	require.Len(t, store.invoices.updated, 1)
	u := store.invoices.updated[0]
	assert.Equal(t, 1, u.RemindersSent)
	require.NotNil(t, u.LastReminderDate)
	assert.Equal(t, today, *u.LastReminderDate)
	require.NotNil(t, u.NextReminderDate)
	assert.Equal(t, invDate.AddDate(0, 0, 45), *u.NextReminderDate)
	assert.Equal(t, domain.InvoiceStatusSent, u.Status)

	require.Len(t, store.reminderLogs.logs, 1)
	assert.Equal(t, domain.ReminderStatusSent, store.reminderLogs.logs[0].Status)
	assert.Equal(t, 1, store.reminderLogs.logs[0].ReminderNumber)

	require.Len(t, events.events, 1)
	assert.Equal(t, domain.EventReminderSent, events.events[0].Type)
}

// Test_SweepReminders_IdempotentWithinDay verifies that re-running the
// sweep on the same day never chases an attorney twice.
func Test_SweepReminders_IdempotentWithinDay(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	today := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)
	due := today

	store := &mockStore{}
	store.matters.matter = matter
	store.advocates.advocate = &domain.Advocate{ID: advocateID}
	store.invoices.remindersDue = []domain.Invoice{{
		ID:               uuid.New(),
		AdvocateID:       advocateID,
		MatterID:         matter.ID,
		Status:           domain.InvoiceStatusSent,
		Bar:              domain.BarJohannesburg,
		InvoiceDate:      today.AddDate(0, 0, -30),
		NextReminderDate: &due,
		LastReminderDate: &today,
		RemindersSent:    1,
	}}
	notifier := &mockNotifier{}
	svc := newInvoiceTestService(store, notifier, &mockPublisher{})

	summary, err := svc.SweepReminders(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 0, summary.Sent)
	assert.Empty(t, notifier.sent)
	assert.Empty(t, store.invoices.updated)
}

// Test_SweepReminders_FinalReminderEscalates verifies that exhausting the
// schedule marks the invoice overdue, clears the next date, and flags the
// notification as final.
func Test_SweepReminders_FinalReminderEscalates(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	invDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	today := invDate.AddDate(0, 0, 55)
	thirdReminder := invDate.AddDate(0, 0, 55)

	store := &mockStore{}
	store.matters.matter = matter
	store.advocates.advocate = &domain.Advocate{ID: advocateID}
	store.invoices.remindersDue = []domain.Invoice{{
		ID:               uuid.New(),
		AdvocateID:       advocateID,
		MatterID:         matter.ID,
		Status:           domain.InvoiceStatusSent,
		Bar:              domain.BarJohannesburg,
		InvoiceDate:      invDate,
		TotalAmount:      2300,
		RemindersSent:    2,
		NextReminderDate: &thirdReminder,
	}}
	notifier := &mockNotifier{}
	svc := newInvoiceTestService(store, notifier, &mockPublisher{})

	summary, err := svc.SweepReminders(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Escalated)

	require.Len(t, notifier.sent, 1)
	assert.True(t, notifier.sent[0].Final)

	require.Len(t, store.invoices.updated, 1)
	u := store.invoices.updated[0]
	assert.Equal(t, 3, u.RemindersSent)
	assert.Nil(t, u.NextReminderDate, "schedule exhausted")
	assert.Equal(t, domain.InvoiceStatusOverdue, u.Status)
}

// Test_SweepReminders_FailureIsPerInvoice verifies that one delivery
// failure is audited and counted without stalling the rest of the sweep
// or advancing the failed invoice's bookkeeping.
func Test_SweepReminders_FailureIsPerInvoice(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)
	invDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	today := invDate.AddDate(0, 0, 30)
	due := today

	broken := domain.Invoice{
		ID:               uuid.New(),
		AdvocateID:       advocateID,
		MatterID:         matter.ID,
		Status:           domain.InvoiceStatusSent,
		Bar:              domain.BarJohannesburg,
		InvoiceDate:      invDate,
		NextReminderDate: &due,
	}
	healthy := broken
	healthy.ID = uuid.New()

	store := &mockStore{}
	store.matters.matter = matter
	store.advocates.advocate = &domain.Advocate{ID: advocateID}
	store.invoices.remindersDue = []domain.Invoice{broken, healthy}
	notifier := &mockNotifier{failFor: map[uuid.UUID]error{broken.ID: errors.New("smtp connection refused")}}
	svc := newInvoiceTestService(store, notifier, &mockPublisher{})

	summary, err := svc.SweepReminders(context.Background(), today)
	require.NoError(t, err, "per-invoice failures never fail the sweep")
	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, store.reminderLogs.logs, 2, "failed deliveries are audited too")
	byInvoice := map[uuid.UUID]string{}
	for _, l := range store.reminderLogs.logs {
		byInvoice[l.InvoiceID] = l.Status
	}
	assert.Equal(t, domain.ReminderStatusFailed, byInvoice[broken.ID])
	assert.Equal(t, domain.ReminderStatusSent, byInvoice[healthy.ID])

	require.Len(t, store.invoices.updated, 1, "failed invoice keeps its schedule")
	assert.Equal(t, healthy.ID, store.invoices.updated[0].ID)
}

// Test_SweepOverdue_MarksEligibleInvoices verifies the overdue sweep
// moves past-due sent and unpaid invoices and leaves everything else.
func Test_SweepOverdue_MarksEligibleInvoices(t *testing.T) {
	advocateID := uuid.New()
	invDate := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	sent := domain.Invoice{
		ID:          uuid.New(),
		AdvocateID:  advocateID,
		Status:      domain.InvoiceStatusSent,
		Bar:         domain.BarJohannesburg,
		InvoiceDate: invDate,
		DueDate:     invDate.AddDate(0, 0, 60),
	}
	unpaid := sent
	unpaid.ID = uuid.New()
	unpaid.Status = domain.InvoiceStatusUnpaid
	paid := sent
	paid.ID = uuid.New()
	paid.Status = domain.InvoiceStatusPaid

	store := &mockStore{}
	store.invoices.overdue = []domain.Invoice{sent, unpaid, paid}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	summary, err := svc.SweepOverdue(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 2, summary.Marked)

	require.Len(t, store.invoices.updated, 2)
	for _, u := range store.invoices.updated {
		assert.Equal(t, domain.InvoiceStatusOverdue, u.Status)
	}
}

// Test_GetInvoice_ProFormaListsCurrentUnbilledWork verifies that a pro
// forma's detail shows the matter's live unbilled entries while a final
// invoice shows the entries frozen onto it.
func Test_GetInvoice_ProFormaListsCurrentUnbilledWork(t *testing.T) {
	advocateID := uuid.New()
	matter := newTestMatter(advocateID, domain.BarJohannesburg)

	store := &mockStore{}
	store.matters.matter = matter
	store.timeEntries.entries = []domain.TimeEntry{
		newTestEntry(matter, 60, 1000),
		newTestEntry(matter, 30, 1000),
	}
	store.timeEntries.entriesByInvoice = []domain.TimeEntry{newTestEntry(matter, 120, 1000)}
	store.invoices.invoice = &domain.Invoice{
		ID:         uuid.New(),
		AdvocateID: advocateID,
		MatterID:   matter.ID,
		Status:     domain.InvoiceStatusProForma,
		Bar:        domain.BarJohannesburg,
	}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	detail, err := svc.GetInvoice(context.Background(), advocateID, store.invoices.invoice.ID)
	require.NoError(t, err)
	assert.Len(t, detail.TimeEntries, 2, "pro forma shows live unbilled work")

	store.invoices.invoice.Status = domain.InvoiceStatusDraft
	detail, err = svc.GetInvoice(context.Background(), advocateID, store.invoices.invoice.ID)
	require.NoError(t, err)
	assert.Len(t, detail.TimeEntries, 1, "final invoice shows its own entries")
}

// Test_GetInvoice_OwnershipEnforced verifies invoice reads are scoped to
// the owning advocate.
func Test_GetInvoice_OwnershipEnforced(t *testing.T) {
	store := &mockStore{}
	store.invoices.invoice = &domain.Invoice{
		ID:         uuid.New(),
		AdvocateID: uuid.New(),
		Status:     domain.InvoiceStatusDraft,
	}
	svc := newInvoiceTestService(store, &mockNotifier{}, &mockPublisher{})

	_, err := svc.GetInvoice(context.Background(), uuid.New(), store.invoices.invoice.ID)
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}
