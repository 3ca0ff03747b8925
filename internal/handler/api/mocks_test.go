package api

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/lexohub/lexohub/internal/billing"
	"github.com/lexohub/lexohub/internal/domain"
)

var errUnscripted = errors.New("not implemented")

// mockInvoiceService scripts domain.InvoiceService one method at a
// time. A route reaching a method its test did not script fails loudly.
type mockInvoiceService struct {
	generateFunc       func(ctx context.Context, advocateID uuid.UUID, params domain.GenerateInvoiceParams) (*domain.InvoiceDetail, error)
	getFunc            func(ctx context.Context, advocateID, invoiceID uuid.UUID) (*domain.InvoiceDetail, error)
	listFunc           func(ctx context.Context, advocateID uuid.UUID, filter domain.InvoiceFilter) ([]domain.Invoice, error)
	updateStatusFunc   func(ctx context.Context, advocateID, invoiceID uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error)
	convertFunc        func(ctx context.Context, advocateID, proFormaID uuid.UUID) (*domain.InvoiceDetail, error)
	recordPaymentFunc  func(ctx context.Context, advocateID uuid.UUID, params domain.RecordPaymentParams) (*domain.Invoice, error)
	sweepRemindersFunc func(ctx context.Context, today time.Time) (*domain.ReminderSweepSummary, error)
	sweepOverdueFunc   func(ctx context.Context, today time.Time) (*domain.OverdueSweepSummary, error)
}

var _ domain.InvoiceService = (*mockInvoiceService)(nil)

func (m *mockInvoiceService) GenerateInvoice(ctx context.Context, advocateID uuid.UUID, params domain.GenerateInvoiceParams) (*domain.InvoiceDetail, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, advocateID, params)
	}
	return nil, errUnscripted
}

func (m *mockInvoiceService) GetInvoice(ctx context.Context, advocateID, invoiceID uuid.UUID) (*domain.InvoiceDetail, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, advocateID, invoiceID)
	}
	return nil, errUnscripted
}

func (m *mockInvoiceService) ListInvoices(ctx context.Context, advocateID uuid.UUID, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, advocateID, filter)
	}
	return nil, errUnscripted
}

func (m *mockInvoiceService) UpdateInvoiceStatus(ctx context.Context, advocateID, invoiceID uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, advocateID, invoiceID, status)
	}
	return nil, errUnscripted
}

func (m *mockInvoiceService) ConvertProForma(ctx context.Context, advocateID, proFormaID uuid.UUID) (*domain.InvoiceDetail, error) {
	if m.convertFunc != nil {
		return m.convertFunc(ctx, advocateID, proFormaID)
	}
	return nil, errUnscripted
}

func (m *mockInvoiceService) RecordPayment(ctx context.Context, advocateID uuid.UUID, params domain.RecordPaymentParams) (*domain.Invoice, error) {
	if m.recordPaymentFunc != nil {
		return m.recordPaymentFunc(ctx, advocateID, params)
	}
	return nil, errUnscripted
}

func (m *mockInvoiceService) SweepReminders(ctx context.Context, today time.Time) (*domain.ReminderSweepSummary, error) {
	if m.sweepRemindersFunc != nil {
		return m.sweepRemindersFunc(ctx, today)
	}
	return nil, errUnscripted
}

func (m *mockInvoiceService) SweepOverdue(ctx context.Context, today time.Time) (*domain.OverdueSweepSummary, error) {
	if m.sweepOverdueFunc != nil {
		return m.sweepOverdueFunc(ctx, today)
	}
	return nil, errUnscripted
}

// mockMatterService scripts domain.MatterService the same way.
type mockMatterService struct {
	createFunc        func(ctx context.Context, advocateID uuid.UUID, params domain.CreateMatterParams) (*domain.Matter, error)
	getFunc           func(ctx context.Context, advocateID, matterID uuid.UUID) (*domain.Matter, error)
	listFunc          func(ctx context.Context, advocateID uuid.UUID) ([]domain.Matter, error)
	updateStatusFunc  func(ctx context.Context, advocateID, matterID uuid.UUID, status domain.MatterStatus) (*domain.Matter, error)
	recordTimeFunc    func(ctx context.Context, advocateID uuid.UUID, params domain.CreateTimeEntryParams) (*domain.TimeEntry, error)
	listTimeFunc      func(ctx context.Context, advocateID, matterID uuid.UUID, filter domain.TimeEntryFilter) ([]domain.TimeEntry, error)
	recordExpenseFunc func(ctx context.Context, advocateID uuid.UUID, params domain.CreateExpenseParams) (*domain.Expense, error)
	listExpensesFunc  func(ctx context.Context, advocateID, matterID uuid.UUID, onlyUnbilled bool) ([]domain.Expense, error)
}

var _ domain.MatterService = (*mockMatterService)(nil)

func (m *mockMatterService) CreateMatter(ctx context.Context, advocateID uuid.UUID, params domain.CreateMatterParams) (*domain.Matter, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, advocateID, params)
	}
	return nil, errUnscripted
}

func (m *mockMatterService) GetMatter(ctx context.Context, advocateID, matterID uuid.UUID) (*domain.Matter, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, advocateID, matterID)
	}
	return nil, errUnscripted
}

func (m *mockMatterService) ListMatters(ctx context.Context, advocateID uuid.UUID) ([]domain.Matter, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, advocateID)
	}
	return nil, errUnscripted
}

func (m *mockMatterService) UpdateMatterStatus(ctx context.Context, advocateID, matterID uuid.UUID, status domain.MatterStatus) (*domain.Matter, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, advocateID, matterID, status)
	}
	return nil, errUnscripted
}

func (m *mockMatterService) RecordTimeEntry(ctx context.Context, advocateID uuid.UUID, params domain.CreateTimeEntryParams) (*domain.TimeEntry, error) {
	if m.recordTimeFunc != nil {
		return m.recordTimeFunc(ctx, advocateID, params)
	}
	return nil, errUnscripted
}

func (m *mockMatterService) ListTimeEntries(ctx context.Context, advocateID, matterID uuid.UUID, filter domain.TimeEntryFilter) ([]domain.TimeEntry, error) {
	if m.listTimeFunc != nil {
		return m.listTimeFunc(ctx, advocateID, matterID, filter)
	}
	return nil, errUnscripted
}

func (m *mockMatterService) RecordExpense(ctx context.Context, advocateID uuid.UUID, params domain.CreateExpenseParams) (*domain.Expense, error) {
	if m.recordExpenseFunc != nil {
		return m.recordExpenseFunc(ctx, advocateID, params)
	}
	return nil, errUnscripted
}

func (m *mockMatterService) ListExpenses(ctx context.Context, advocateID, matterID uuid.UUID, onlyUnbilled bool) ([]domain.Expense, error) {
	if m.listExpensesFunc != nil {
		return m.listExpensesFunc(ctx, advocateID, matterID, onlyUnbilled)
	}
	return nil, errUnscripted
}

// mockBilling scripts billing.Provider.
type mockBilling struct {
	createLinkFunc    func(ctx context.Context, params billing.CreatePaymentLinkParams) (*billing.PaymentLink, error)
	verifyWebhookFunc func(payload []byte, signature string) (*billing.WebhookEvent, error)
}

var _ billing.Provider = (*mockBilling)(nil)

func (m *mockBilling) CreatePaymentLink(ctx context.Context, params billing.CreatePaymentLinkParams) (*billing.PaymentLink, error) {
	if m.createLinkFunc != nil {
		return m.createLinkFunc(ctx, params)
	}
	return nil, errUnscripted
}

func (m *mockBilling) VerifyWebhook(payload []byte, signature string) (*billing.WebhookEvent, error) {
	if m.verifyWebhookFunc != nil {
		return m.verifyWebhookFunc(payload, signature)
	}
	return nil, errUnscripted
}

// mockArchive records Put calls so tests can check what got archived.
type mockArchive struct {
	putKeys []string
	putErr  error
}

func (m *mockArchive) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	m.putKeys = append(m.putKeys, key)
	return "/" + key, nil
}

func (m *mockArchive) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errUnscripted
}

func (m *mockArchive) Delete(ctx context.Context, key string) error { return errUnscripted }

func (m *mockArchive) URL(key string) string { return "/" + key }

func (m *mockArchive) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "", errUnscripted
}

func (m *mockArchive) Exists(ctx context.Context, key string) (bool, error) {
	return false, errUnscripted
}

// mockStore carries only the lookups the handlers perform themselves:
// advocate for PDF rendering, time entries and matter for narrative
// previews, invoice and payments for the webhook.
type mockStore struct {
	advocates   mockAdvocateStore
	matters     mockMatterStore
	timeEntries mockTimeEntryStore
	expenses    mockExpenseStore
	invoices    mockInvoiceStore
	payments    mockPaymentStore
	reminders   mockReminderLogStore
}

var _ domain.Store = (*mockStore)(nil)

func (m *mockStore) Advocates() domain.AdvocateStore       { return &m.advocates }
func (m *mockStore) Matters() domain.MatterStore           { return &m.matters }
func (m *mockStore) TimeEntries() domain.TimeEntryStore    { return &m.timeEntries }
func (m *mockStore) Expenses() domain.ExpenseStore         { return &m.expenses }
func (m *mockStore) Invoices() domain.InvoiceStore         { return &m.invoices }
func (m *mockStore) Payments() domain.PaymentStore         { return &m.payments }
func (m *mockStore) ReminderLogs() domain.ReminderLogStore { return &m.reminders }

func (m *mockStore) WithinTx(ctx context.Context, fn func(domain.Store) error) error {
	return fn(m)
}

type mockAdvocateStore struct {
	advocate *domain.Advocate
}

func (m *mockAdvocateStore) CreateAdvocate(ctx context.Context, params domain.CreateAdvocateParams) (*domain.Advocate, error) {
	return nil, errUnscripted
}

func (m *mockAdvocateStore) GetAdvocate(ctx context.Context, id uuid.UUID) (*domain.Advocate, error) {
	if m.advocate == nil {
		return nil, domain.ErrAdvocateNotFound
	}
	return m.advocate, nil
}

func (m *mockAdvocateStore) GetAdvocateByEmail(ctx context.Context, email string) (*domain.Advocate, error) {
	return nil, errUnscripted
}

type mockMatterStore struct {
	matter *domain.Matter
}

func (m *mockMatterStore) CreateMatter(ctx context.Context, params domain.CreateMatterParams) (*domain.Matter, error) {
	return nil, errUnscripted
}

func (m *mockMatterStore) GetMatter(ctx context.Context, id uuid.UUID) (*domain.Matter, error) {
	if m.matter == nil {
		return nil, domain.ErrMatterNotFound
	}
	return m.matter, nil
}

func (m *mockMatterStore) ListMattersByAdvocate(ctx context.Context, advocateID uuid.UUID) ([]domain.Matter, error) {
	return nil, errUnscripted
}

func (m *mockMatterStore) UpdateMatterStatus(ctx context.Context, id uuid.UUID, status domain.MatterStatus) error {
	return errUnscripted
}

func (m *mockMatterStore) AddToWIP(ctx context.Context, matterID uuid.UUID, amount float64) error {
	return errUnscripted
}

func (m *mockMatterStore) ApplyBilling(ctx context.Context, params domain.ApplyBillingParams) error {
	return errUnscripted
}

type mockTimeEntryStore struct {
	entries []domain.TimeEntry
	listErr error
}

func (m *mockTimeEntryStore) CreateTimeEntry(ctx context.Context, params domain.CreateTimeEntryParams) (*domain.TimeEntry, error) {
	return nil, errUnscripted
}

func (m *mockTimeEntryStore) GetTimeEntry(ctx context.Context, id uuid.UUID) (*domain.TimeEntry, error) {
	return nil, errUnscripted
}

func (m *mockTimeEntryStore) ListTimeEntriesByMatter(ctx context.Context, matterID uuid.UUID, filter domain.TimeEntryFilter) ([]domain.TimeEntry, error) {
	return nil, errUnscripted
}

func (m *mockTimeEntryStore) ListTimeEntriesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.TimeEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.TimeEntry
	for _, e := range m.entries {
		for _, id := range ids {
			if e.ID == id {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (m *mockTimeEntryStore) ListTimeEntriesByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.TimeEntry, error) {
	return nil, errUnscripted
}

func (m *mockTimeEntryStore) MarkTimeEntriesBilled(ctx context.Context, ids []uuid.UUID, invoiceID uuid.UUID) error {
	return errUnscripted
}

type mockExpenseStore struct{}

func (m *mockExpenseStore) CreateExpense(ctx context.Context, params domain.CreateExpenseParams) (*domain.Expense, error) {
	return nil, errUnscripted
}

func (m *mockExpenseStore) ListExpensesByMatter(ctx context.Context, matterID uuid.UUID, onlyUnbilled bool) ([]domain.Expense, error) {
	return nil, errUnscripted
}

func (m *mockExpenseStore) ListExpensesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Expense, error) {
	return nil, errUnscripted
}

func (m *mockExpenseStore) MarkExpensesBilled(ctx context.Context, ids []uuid.UUID, invoiceID uuid.UUID) error {
	return errUnscripted
}

type mockInvoiceStore struct {
	invoice *domain.Invoice
}

func (m *mockInvoiceStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	return errUnscripted
}

func (m *mockInvoiceStore) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	if m.invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return m.invoice, nil
}

func (m *mockInvoiceStore) GetInvoiceByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	return nil, errUnscripted
}

func (m *mockInvoiceStore) ListInvoices(ctx context.Context, advocateID uuid.UUID, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	return nil, errUnscripted
}

func (m *mockInvoiceStore) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	return errUnscripted
}

func (m *mockInvoiceStore) NextSequence(ctx context.Context, prefix, period string) (int64, error) {
	return 0, errUnscripted
}

func (m *mockInvoiceStore) ListRemindersDue(ctx context.Context, today time.Time) ([]domain.Invoice, error) {
	return nil, errUnscripted
}

func (m *mockInvoiceStore) ListOverdueCandidates(ctx context.Context, today time.Time) ([]domain.Invoice, error) {
	return nil, errUnscripted
}

type mockPaymentStore struct {
	payments []domain.Payment
	listErr  error
}

func (m *mockPaymentStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return errUnscripted
}

func (m *mockPaymentStore) ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Payment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.payments, nil
}

func (m *mockPaymentStore) SumPaymentsForInvoice(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	return 0, errUnscripted
}

type mockReminderLogStore struct{}

func (m *mockReminderLogStore) CreateReminderLog(ctx context.Context, entry *domain.ReminderLog) error {
	return errUnscripted
}

func (m *mockReminderLogStore) ListReminderLogsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.ReminderLog, error) {
	return nil, errUnscripted
}
