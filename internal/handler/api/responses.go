package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/narrative"
)

// Response DTOs. Domain structs carry no serialization tags, so the
// wire shape is fixed here: snake_case keys, calendar fields as
// YYYY-MM-DD and timestamps as RFC 3339.

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

type invoiceResponse struct {
	ID            uuid.UUID `json:"id"`
	AdvocateID    uuid.UUID `json:"advocate_id"`
	MatterID      uuid.UUID `json:"matter_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Status        string    `json:"status"`
	Bar           string    `json:"bar"`
	InvoiceDate   string    `json:"invoice_date"`
	DueDate       string    `json:"due_date"`

	TotalFees      float64 `json:"total_fees"`
	DiscountValue  float64 `json:"discount_value"`
	DiscountedFees float64 `json:"discounted_fees"`
	VATRate        float64 `json:"vat_rate"`
	VATAmount      float64 `json:"vat_amount"`
	Disbursements  float64 `json:"disbursements"`
	TotalExpenses  float64 `json:"total_expenses"`
	TotalAmount    float64 `json:"total_amount"`
	AmountPaid     float64 `json:"amount_paid"`
	Balance        float64 `json:"balance"`

	Narrative           string  `json:"narrative"`
	NarrativeConfidence float64 `json:"narrative_confidence"`

	RemindersSent    int     `json:"reminders_sent"`
	NextReminderDate *string `json:"next_reminder_date,omitempty"`
	LastReminderDate *string `json:"last_reminder_date,omitempty"`

	SentAt               *time.Time `json:"sent_at,omitempty"`
	DatePaid             *time.Time `json:"date_paid,omitempty"`
	ConvertedToInvoiceID *uuid.UUID `json:"converted_to_invoice_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newInvoiceResponse(inv *domain.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:            inv.ID,
		AdvocateID:    inv.AdvocateID,
		MatterID:      inv.MatterID,
		InvoiceNumber: inv.InvoiceNumber,
		Status:        string(inv.Status),
		Bar:           string(inv.Bar),
		InvoiceDate:   formatDate(inv.InvoiceDate),
		DueDate:       formatDate(inv.DueDate),

		TotalFees:      inv.TotalFees,
		DiscountValue:  inv.DiscountValue,
		DiscountedFees: inv.DiscountedFees,
		VATRate:        inv.VATRate,
		VATAmount:      inv.VATAmount,
		Disbursements:  inv.Disbursements,
		TotalExpenses:  inv.TotalExpenses,
		TotalAmount:    inv.TotalAmount,
		AmountPaid:     inv.AmountPaid,
		Balance:        inv.Balance(),

		Narrative:           inv.Narrative,
		NarrativeConfidence: inv.NarrativeConfidence,

		RemindersSent:    inv.RemindersSent,
		NextReminderDate: optionalDate(inv.NextReminderDate),
		LastReminderDate: optionalDate(inv.LastReminderDate),

		SentAt:               inv.SentAt,
		DatePaid:             inv.DatePaid,
		ConvertedToInvoiceID: inv.ConvertedToInvoiceID,

		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
}

func newInvoiceListResponse(invoices []domain.Invoice) []invoiceResponse {
	out := make([]invoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = newInvoiceResponse(&invoices[i])
	}
	return out
}

type matterResponse struct {
	ID            uuid.UUID `json:"id"`
	AdvocateID    uuid.UUID `json:"advocate_id"`
	Title         string    `json:"title"`
	Reference     string    `json:"reference"`
	ClientName    string    `json:"client_name"`
	AttorneyName  string    `json:"attorney_name"`
	AttorneyFirm  string    `json:"attorney_firm"`
	AttorneyEmail string    `json:"attorney_email"`
	Bar           string    `json:"bar"`
	Status        string    `json:"status"`
	WIPValue      float64   `json:"wip_value"`
	ActualFee     float64   `json:"actual_fee"`
	EstimatedFee  float64   `json:"estimated_fee"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newMatterResponse(m *domain.Matter) matterResponse {
	return matterResponse{
		ID:            m.ID,
		AdvocateID:    m.AdvocateID,
		Title:         m.Title,
		Reference:     m.Reference,
		ClientName:    m.ClientName,
		AttorneyName:  m.AttorneyName,
		AttorneyFirm:  m.AttorneyFirm,
		AttorneyEmail: m.AttorneyEmail,
		Bar:           string(m.Bar),
		Status:        string(m.Status),
		WIPValue:      m.WIPValue,
		ActualFee:     m.ActualFee,
		EstimatedFee:  m.EstimatedFee,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

type timeEntryResponse struct {
	ID              uuid.UUID  `json:"id"`
	MatterID        uuid.UUID  `json:"matter_id"`
	Date            string     `json:"date"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration_minutes"`
	Rate            float64    `json:"rate"`
	Billable        bool       `json:"billable"`
	Billed          bool       `json:"billed"`
	InvoiceID       *uuid.UUID `json:"invoice_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newTimeEntryResponse(e *domain.TimeEntry) timeEntryResponse {
	return timeEntryResponse{
		ID:              e.ID,
		MatterID:        e.MatterID,
		Date:            formatDate(e.Date),
		Description:     e.Description,
		DurationMinutes: e.DurationMinutes,
		Rate:            e.Rate,
		Billable:        e.Billable,
		Billed:          e.Billed,
		InvoiceID:       e.InvoiceID,
		CreatedAt:       e.CreatedAt,
	}
}

func newTimeEntryListResponse(entries []domain.TimeEntry) []timeEntryResponse {
	out := make([]timeEntryResponse, len(entries))
	for i := range entries {
		out[i] = newTimeEntryResponse(&entries[i])
	}
	return out
}

type expenseResponse struct {
	ID          uuid.UUID  `json:"id"`
	MatterID    uuid.UUID  `json:"matter_id"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	Billed      bool       `json:"billed"`
	InvoiceID   *uuid.UUID `json:"invoice_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newExpenseResponse(e *domain.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		MatterID:    e.MatterID,
		Date:        formatDate(e.Date),
		Description: e.Description,
		Amount:      e.Amount,
		Billed:      e.Billed,
		InvoiceID:   e.InvoiceID,
		CreatedAt:   e.CreatedAt,
	}
}

func newExpenseListResponse(expenses []domain.Expense) []expenseResponse {
	out := make([]expenseResponse, len(expenses))
	for i := range expenses {
		out[i] = newExpenseResponse(&expenses[i])
	}
	return out
}

type paymentResponse struct {
	ID          uuid.UUID `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Amount      float64   `json:"amount"`
	PaymentDate string    `json:"payment_date"`
	Method      string    `json:"method"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		Amount:      p.Amount,
		PaymentDate: formatDate(p.PaymentDate),
		Method:      p.Method,
		Reference:   p.Reference,
		CreatedAt:   p.CreatedAt,
	}
}

type invoiceDetailResponse struct {
	Invoice     invoiceResponse     `json:"invoice"`
	Matter      *matterResponse     `json:"matter,omitempty"`
	TimeEntries []timeEntryResponse `json:"time_entries"`
	Payments    []paymentResponse   `json:"payments"`
}

func newInvoiceDetailResponse(detail *domain.InvoiceDetail) invoiceDetailResponse {
	resp := invoiceDetailResponse{
		Invoice:     newInvoiceResponse(&detail.Invoice),
		TimeEntries: newTimeEntryListResponse(detail.TimeEntries),
		Payments:    make([]paymentResponse, len(detail.Payments)),
	}
	if detail.Matter != nil {
		m := newMatterResponse(detail.Matter)
		resp.Matter = &m
	}
	for i := range detail.Payments {
		resp.Payments[i] = newPaymentResponse(&detail.Payments[i])
	}
	return resp
}

type narrativeResponse struct {
	Text         string            `json:"text"`
	Confidence   float64           `json:"confidence"`
	WorkTypes    []string          `json:"work_types"`
	Suggestions  []string          `json:"suggestions"`
	Alternatives map[string]string `json:"alternatives"`
}

func newNarrativeResponse(n narrative.Narrative) narrativeResponse {
	workTypes := make([]string, len(n.WorkTypes))
	for i, wt := range n.WorkTypes {
		workTypes[i] = string(wt)
	}
	alts := make(map[string]string, len(n.Alternatives))
	for tone, text := range n.Alternatives {
		alts[string(tone)] = text
	}
	return narrativeResponse{
		Text:         n.Text,
		Confidence:   n.Confidence,
		WorkTypes:    workTypes,
		Suggestions:  n.Suggestions,
		Alternatives: alts,
	}
}

type paymentLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type reminderSweepResponse struct {
	Scanned   int `json:"scanned"`
	Sent      int `json:"sent"`
	Escalated int `json:"escalated"`
	Failed    int `json:"failed"`
}

type overdueSweepResponse struct {
	Scanned int `json:"scanned"`
	Marked  int `json:"marked"`
}
