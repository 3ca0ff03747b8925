package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lexohub/lexohub/internal/domain"
)

// mockStore wires the per-entity mocks behind the domain.Store handle.
// WithinTx runs the function against the same mocks, which is enough to
// exercise transactional orchestration without a database.
type mockStore struct {
	advocates    mockAdvocateStore
	matters      mockMatterStore
	timeEntries  mockTimeEntryStore
	expenses     mockExpenseStore
	invoices     mockInvoiceStore
	payments     mockPaymentStore
	reminderLogs mockReminderLogStore

	txCalls int
	txErr   error
}

var _ domain.Store = (*mockStore)(nil)

func (m *mockStore) Advocates() domain.AdvocateStore       { return &m.advocates }
func (m *mockStore) Matters() domain.MatterStore           { return &m.matters }
func (m *mockStore) TimeEntries() domain.TimeEntryStore    { return &m.timeEntries }
func (m *mockStore) Expenses() domain.ExpenseStore         { return &m.expenses }
func (m *mockStore) Invoices() domain.InvoiceStore         { return &m.invoices }
func (m *mockStore) Payments() domain.PaymentStore         { return &m.payments }
func (m *mockStore) ReminderLogs() domain.ReminderLogStore { return &m.reminderLogs }

func (m *mockStore) WithinTx(ctx context.Context, fn func(domain.Store) error) error {
	m.txCalls++
	if m.txErr != nil {
		return m.txErr
	}
	return fn(m)
}

// mockAdvocateStore returns one scripted advocate.
type mockAdvocateStore struct {
	advocate *domain.Advocate
	err      error
}

func (m *mockAdvocateStore) CreateAdvocate(ctx context.Context, params domain.CreateAdvocateParams) (*domain.Advocate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.advocate, nil
}

func (m *mockAdvocateStore) GetAdvocate(ctx context.Context, id uuid.UUID) (*domain.Advocate, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.advocate == nil {
		return nil, domain.ErrAdvocateNotFound
	}
	return m.advocate, nil
}

func (m *mockAdvocateStore) GetAdvocateByEmail(ctx context.Context, email string) (*domain.Advocate, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.advocate == nil {
		return nil, domain.ErrAdvocateNotFound
	}
	return m.advocate, nil
}

// mockMatterStore returns one scripted matter and records mutations.
type mockMatterStore struct {
	matter     *domain.Matter
	getErr     error
	created    []domain.CreateMatterParams
	statusSet  []domain.MatterStatus
	wipAdded   []float64
	billed     []domain.ApplyBillingParams
	billingErr error
}

func (m *mockMatterStore) CreateMatter(ctx context.Context, params domain.CreateMatterParams) (*domain.Matter, error) {
	m.created = append(m.created, params)
	return &domain.Matter{
		ID:           uuid.New(),
		AdvocateID:   params.AdvocateID,
		Title:        params.Title,
		Reference:    params.Reference,
		ClientName:   params.ClientName,
		Bar:          params.Bar,
		Status:       domain.MatterStatusActive,
		EstimatedFee: params.EstimatedFee,
	}, nil
}

func (m *mockMatterStore) GetMatter(ctx context.Context, id uuid.UUID) (*domain.Matter, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.matter == nil {
		return nil, domain.ErrMatterNotFound
	}
	return m.matter, nil
}

func (m *mockMatterStore) ListMattersByAdvocate(ctx context.Context, advocateID uuid.UUID) ([]domain.Matter, error) {
	if m.matter == nil {
		return nil, nil
	}
	return []domain.Matter{*m.matter}, nil
}

func (m *mockMatterStore) UpdateMatterStatus(ctx context.Context, id uuid.UUID, status domain.MatterStatus) error {
	m.statusSet = append(m.statusSet, status)
	return nil
}

func (m *mockMatterStore) AddToWIP(ctx context.Context, matterID uuid.UUID, amount float64) error {
	m.wipAdded = append(m.wipAdded, amount)
	return nil
}

func (m *mockMatterStore) ApplyBilling(ctx context.Context, params domain.ApplyBillingParams) error {
	if m.billingErr != nil {
		return m.billingErr
	}
	m.billed = append(m.billed, params)
	return nil
}

// markCall records one billed-marking call.
type markCall struct {
	ids       []uuid.UUID
	invoiceID uuid.UUID
}

// mockTimeEntryStore serves scripted entries. ListTimeEntriesByIDs
// filters the scripted set so missing-ID tests behave like the database.
type mockTimeEntryStore struct {
	entries          []domain.TimeEntry
	entriesByInvoice []domain.TimeEntry
	listErr          error
	created          []domain.CreateTimeEntryParams
	markCalls        []markCall
	markErr          error
}

func (m *mockTimeEntryStore) CreateTimeEntry(ctx context.Context, params domain.CreateTimeEntryParams) (*domain.TimeEntry, error) {
	m.created = append(m.created, params)
	return &domain.TimeEntry{
		ID:              uuid.New(),
		AdvocateID:      params.AdvocateID,
		MatterID:        params.MatterID,
		Date:            params.Date,
		Description:     params.Description,
		DurationMinutes: params.DurationMinutes,
		Rate:            params.Rate,
		Billable:        params.Billable,
	}, nil
}

func (m *mockTimeEntryStore) GetTimeEntry(ctx context.Context, id uuid.UUID) (*domain.TimeEntry, error) {
	for i := range m.entries {
		if m.entries[i].ID == id {
			return &m.entries[i], nil
		}
	}
	return nil, domain.ErrTimeEntryNotFound
}

func (m *mockTimeEntryStore) ListTimeEntriesByMatter(ctx context.Context, matterID uuid.UUID, filter domain.TimeEntryFilter) ([]domain.TimeEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.TimeEntry
	for _, e := range m.entries {
		if filter.OnlyUnbilled && e.Billed {
			continue
		}
		if filter.OnlyBillable && !e.Billable {
			continue
		}
		out = append(out, e)
	}
	return out, nil
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
	return m.entriesByInvoice, nil
}

func (m *mockTimeEntryStore) MarkTimeEntriesBilled(ctx context.Context, ids []uuid.UUID, invoiceID uuid.UUID) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.markCalls = append(m.markCalls, markCall{ids: ids, invoiceID: invoiceID})
	return nil
}

// mockExpenseStore serves scripted expenses and records mutations.
type mockExpenseStore struct {
	expenses  []domain.Expense
	listErr   error
	created   []domain.CreateExpenseParams
	markCalls []markCall
	markErr   error
}

func (m *mockExpenseStore) CreateExpense(ctx context.Context, params domain.CreateExpenseParams) (*domain.Expense, error) {
	m.created = append(m.created, params)
	return &domain.Expense{
		ID:          uuid.New(),
		AdvocateID:  params.AdvocateID,
		MatterID:    params.MatterID,
		Date:        params.Date,
		Description: params.Description,
		Amount:      params.Amount,
	}, nil
}

func (m *mockExpenseStore) ListExpensesByMatter(ctx context.Context, matterID uuid.UUID, onlyUnbilled bool) ([]domain.Expense, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Expense
	for _, e := range m.expenses {
		if onlyUnbilled && e.Billed {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockExpenseStore) ListExpensesByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Expense, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Expense
	for _, e := range m.expenses {
		for _, id := range ids {
			if e.ID == id {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (m *mockExpenseStore) MarkExpensesBilled(ctx context.Context, ids []uuid.UUID, invoiceID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if m.markErr != nil {
		return m.markErr
	}
	m.markCalls = append(m.markCalls, markCall{ids: ids, invoiceID: invoiceID})
	return nil
}

// mockInvoiceStore scripts reads and records writes. NextSequence counts
// up from seq so number-format tests can pin a starting value.
type mockInvoiceStore struct {
	invoice      *domain.Invoice
	getErr       error
	created      []*domain.Invoice
	createErr    error
	updated      []*domain.Invoice
	updateErr    error
	seq          int64
	seqErr       error
	seqCalls     []string
	remindersDue []domain.Invoice
	overdue      []domain.Invoice
	listed       []domain.Invoice
}

func (m *mockInvoiceStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	if m.createErr != nil {
		return m.createErr
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	cp := *inv
	m.created = append(m.created, &cp)
	return nil
}

func (m *mockInvoiceStore) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return m.invoice, nil
}

func (m *mockInvoiceStore) GetInvoiceByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	if m.invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return m.invoice, nil
}

func (m *mockInvoiceStore) ListInvoices(ctx context.Context, advocateID uuid.UUID, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	return m.listed, nil
}

func (m *mockInvoiceStore) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *inv
	m.updated = append(m.updated, &cp)
	return nil
}

func (m *mockInvoiceStore) NextSequence(ctx context.Context, prefix, period string) (int64, error) {
	m.seqCalls = append(m.seqCalls, prefix+"-"+period)
	if m.seqErr != nil {
		return 0, m.seqErr
	}
	m.seq++
	return m.seq, nil
}

func (m *mockInvoiceStore) ListRemindersDue(ctx context.Context, today time.Time) ([]domain.Invoice, error) {
	return m.remindersDue, nil
}

func (m *mockInvoiceStore) ListOverdueCandidates(ctx context.Context, today time.Time) ([]domain.Invoice, error) {
	return m.overdue, nil
}

// mockPaymentStore accumulates created payments into the reported sum so
// settlement arithmetic behaves like the database's COALESCE(SUM(...)).
type mockPaymentStore struct {
	created  []*domain.Payment
	payments []domain.Payment
	sum      float64
	sumErr   error
}

func (m *mockPaymentStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.created = append(m.created, &cp)
	m.sum += p.Amount
	return nil
}

func (m *mockPaymentStore) ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Payment, error) {
	return m.payments, nil
}

func (m *mockPaymentStore) SumPaymentsForInvoice(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	if m.sumErr != nil {
		return 0, m.sumErr
	}
	return m.sum, nil
}

// mockReminderLogStore records audit rows.
type mockReminderLogStore struct {
	logs      []*domain.ReminderLog
	createErr error
}

func (m *mockReminderLogStore) CreateReminderLog(ctx context.Context, entry *domain.ReminderLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *entry
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *mockReminderLogStore) ListReminderLogsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.ReminderLog, error) {
	var out []domain.ReminderLog
	for _, l := range m.logs {
		if l.InvoiceID == invoiceID {
			out = append(out, *l)
		}
	}
	return out, nil
}

// mockNotifier records deliveries and can fail for chosen invoices.
type mockNotifier struct {
	sent    []domain.ReminderNotification
	sendErr error
	failFor map[uuid.UUID]error
}

func (m *mockNotifier) SendReminder(ctx context.Context, n domain.ReminderNotification) error {
	if err, ok := m.failFor[n.Invoice.ID]; ok {
		return err
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, n)
	return nil
}

// mockPublisher records lifecycle events.
type mockPublisher struct {
	events []domain.InvoiceEvent
	err    error
}

func (m *mockPublisher) PublishInvoiceEvent(ctx context.Context, ev domain.InvoiceEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}
