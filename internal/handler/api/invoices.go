package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lexohub/lexohub/internal/billing"
	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/storage"
	"github.com/lexohub/lexohub/internal/telemetry"
)

type generateInvoiceRequest struct {
	MatterID            uuid.UUID   `json:"matter_id" validate:"required"`
	IsProForma          bool        `json:"is_pro_forma"`
	TimeEntryIDs        []uuid.UUID `json:"time_entry_ids"`
	IncludeUnbilledTime bool        `json:"include_unbilled_time"`
	ExpenseIDs          []uuid.UUID `json:"expense_ids"`
	InvoiceDate         *string     `json:"invoice_date"`
	RateOverride        *float64    `json:"rate_override" validate:"omitempty,gt=0"`
	DiscountPercentage  *float64    `json:"discount_percentage" validate:"omitempty,gte=0,lte=100"`
	DiscountAmount      *float64    `json:"discount_amount" validate:"omitempty,gte=0"`
	Disbursements       float64     `json:"disbursements" validate:"gte=0"`

	NarrativeTone        string `json:"narrative_tone" validate:"omitempty,oneof=standard concise detailed"`
	NarrativeGroupByDate bool   `json:"narrative_group_by_date"`
	CustomNarrative      string `json:"custom_narrative" validate:"omitempty,max=10000"`
}

func (s *Server) handleGenerateInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	var req generateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	params := domain.GenerateInvoiceParams{
		MatterID:             req.MatterID,
		IsProForma:           req.IsProForma,
		TimeEntryIDs:         req.TimeEntryIDs,
		IncludeUnbilledTime:  req.IncludeUnbilledTime,
		ExpenseIDs:           req.ExpenseIDs,
		RateOverride:         req.RateOverride,
		DiscountPercentage:   req.DiscountPercentage,
		DiscountAmount:       req.DiscountAmount,
		Disbursements:        req.Disbursements,
		NarrativeTone:        req.NarrativeTone,
		NarrativeGroupByDate: req.NarrativeGroupByDate,
		CustomNarrative:      req.CustomNarrative,
	}
	if req.InvoiceDate != nil {
		d, err := parseDate("api.generate_invoice", "invoice_date", *req.InvoiceDate)
		if err != nil {
			return err
		}
		params.InvoiceDate = &d
	}

	detail, err := s.invoices.GenerateInvoice(ctx, advocateID, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newInvoiceDetailResponse(detail))
}

func (s *Server) handleListInvoices(c echo.Context) error {
	const op = "api.list_invoices"
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	var filter domain.InvoiceFilter
	if raw := c.QueryParam("status"); raw != "" {
		status := domain.InvoiceStatus(raw)
		if !status.Valid() {
			return domain.NewValidationError(op, "status", "is not a known invoice status")
		}
		filter.Status = status
	}
	if raw := c.QueryParam("matter_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return domain.NewValidationError(op, "matter_id", "must be a valid UUID")
		}
		filter.MatterID = id
	}
	// Zero limit and offset let the store apply its defaults.
	filter.Limit = queryInt32(c, "limit")
	filter.Offset = queryInt32(c, "offset")

	invoices, err := s.invoices.ListInvoices(ctx, advocateID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoices": newInvoiceListResponse(invoices),
	})
}

func (s *Server) handleGetInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	detail, err := s.invoices.GetInvoice(ctx, advocateID, invoiceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newInvoiceDetailResponse(detail))
}

type updateInvoiceStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s *Server) handleUpdateInvoiceStatus(c echo.Context) error {
	const op = "api.update_invoice_status"
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req updateInvoiceStatusRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	status := domain.InvoiceStatus(req.Status)
	if !status.Valid() {
		return domain.NewValidationError(op, "status", "is not a known invoice status")
	}

	inv, err := s.invoices.UpdateInvoiceStatus(ctx, advocateID, invoiceID, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newInvoiceResponse(inv))
}

func (s *Server) handleConvertProForma(c echo.Context) error {
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	detail, err := s.invoices.ConvertProForma(ctx, advocateID, invoiceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newInvoiceDetailResponse(detail))
}

type recordPaymentRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	PaymentDate *string `json:"payment_date"`
	Method      string  `json:"method" validate:"omitempty,oneof=eft card stripe cash"`
	Reference   string  `json:"reference"`
}

func (s *Server) handleRecordPayment(c echo.Context) error {
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req recordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	params := domain.RecordPaymentParams{
		InvoiceID: invoiceID,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
	}
	if req.PaymentDate != nil {
		d, err := parseDate("api.record_payment", "payment_date", *req.PaymentDate)
		if err != nil {
			return err
		}
		params.PaymentDate = d
	}

	inv, err := s.invoices.RecordPayment(ctx, advocateID, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newInvoiceResponse(inv))
}

// handleInvoicePDF renders the invoice document and streams it back.
// Final invoices are archived on first render when an archive backend
// is configured; archive failures are logged and do not block the
// download.
func (s *Server) handleInvoicePDF(c echo.Context) error {
	const op = "api.invoice_pdf"
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	detail, err := s.invoices.GetInvoice(ctx, advocateID, invoiceID)
	if err != nil {
		return err
	}
	advocate, err := s.store.Advocates().GetAdvocate(ctx, advocateID)
	if err != nil {
		return domain.Internal(err, op, "could not load advocate for rendering")
	}

	doc, err := s.renderer.Render(advocate, detail)
	if err != nil {
		return domain.Internal(err, op, "could not render invoice document")
	}
	if telemetry.Business != nil {
		telemetry.Business.PDFsRendered.WithLabelValues(string(detail.Invoice.Bar)).Inc()
	}

	if s.archive != nil && !detail.Invoice.IsProForma() {
		key := storage.InvoiceKey(advocateID, detail.Invoice.InvoiceNumber)
		if _, archiveErr := s.archive.Put(ctx, key, bytes.NewReader(doc), "application/pdf"); archiveErr != nil {
			zerolog.Ctx(ctx).Warn().Err(archiveErr).
				Str("invoice_number", detail.Invoice.InvoiceNumber).
				Msg("invoice archive failed")
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.pdf"`, detail.Invoice.InvoiceNumber))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}

// handleCreatePaymentLink creates a hosted checkout for the invoice's
// outstanding balance.
func (s *Server) handleCreatePaymentLink(c echo.Context) error {
	const op = "api.payment_link"
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	if s.billing == nil {
		return domain.Errorf(domain.ENOTIMPL, op, "online payments are not configured")
	}

	invoiceID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	detail, err := s.invoices.GetInvoice(ctx, advocateID, invoiceID)
	if err != nil {
		return err
	}
	inv := &detail.Invoice

	if inv.IsProForma() {
		return domain.Invalid(op, "pro forma invoices do not accept payment")
	}
	if inv.Balance() <= 0 {
		return domain.Conflict(op, "invoice is already settled")
	}

	params := billing.CreatePaymentLinkParams{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		AmountRand:    inv.Balance(),
	}
	if detail.Matter != nil {
		params.MatterTitle = detail.Matter.Title
		params.AttorneyEmail = detail.Matter.AttorneyEmail
	}

	link, err := s.billing.CreatePaymentLink(ctx, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, paymentLinkResponse{
		URL:       link.URL,
		ExpiresAt: link.ExpiresAt,
	})
}

// parseUUIDParam reads a path parameter as a UUID.
func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError("api.params", name, "must be a valid UUID")
	}
	return id, nil
}

// parseDate reads an ISO calendar date from a request field.
func parseDate(op, field, raw string) (time.Time, error) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError(op, field, "must be an ISO date (YYYY-MM-DD)")
	}
	return d, nil
}

func queryInt32(c echo.Context, name string) int32 {
	n, err := strconv.ParseInt(c.QueryParam(name), 10, 32)
	if err != nil || n < 0 {
		return 0
	}
	return int32(n)
}
