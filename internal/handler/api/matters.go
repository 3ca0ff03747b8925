package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexohub/lexohub/internal/domain"
)

type createMatterRequest struct {
	Title         string  `json:"title" validate:"required"`
	Reference     string  `json:"reference"`
	ClientName    string  `json:"client_name" validate:"required"`
	AttorneyName  string  `json:"attorney_name" validate:"required"`
	AttorneyFirm  string  `json:"attorney_firm"`
	AttorneyEmail string  `json:"attorney_email" validate:"required,email"`
	Bar           string  `json:"bar" validate:"required"`
	EstimatedFee  float64 `json:"estimated_fee" validate:"gte=0"`
}

func (s *Server) handleCreateMatter(c echo.Context) error {
	const op = "api.create_matter"
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	var req createMatterRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	bar, err := domain.ParseBar(req.Bar)
	if err != nil {
		return domain.NewValidationError(op, "bar", "is not a recognized bar")
	}

	matter, err := s.matters.CreateMatter(ctx, advocateID, domain.CreateMatterParams{
		AdvocateID:    advocateID,
		Title:         req.Title,
		Reference:     req.Reference,
		ClientName:    req.ClientName,
		AttorneyName:  req.AttorneyName,
		AttorneyFirm:  req.AttorneyFirm,
		AttorneyEmail: req.AttorneyEmail,
		Bar:           bar,
		EstimatedFee:  req.EstimatedFee,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newMatterResponse(matter))
}

func (s *Server) handleListMatters(c echo.Context) error {
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	matters, err := s.matters.ListMatters(ctx, advocateID)
	if err != nil {
		return err
	}

	out := make([]matterResponse, len(matters))
	for i := range matters {
		out[i] = newMatterResponse(&matters[i])
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"matters": out})
}

func (s *Server) handleGetMatter(c echo.Context) error {
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	matterID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	matter, err := s.matters.GetMatter(ctx, advocateID, matterID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newMatterResponse(matter))
}

type updateMatterStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s *Server) handleUpdateMatterStatus(c echo.Context) error {
	const op = "api.update_matter_status"
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	matterID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req updateMatterStatusRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	status := domain.MatterStatus(req.Status)
	if !status.Valid() {
		return domain.NewValidationError(op, "status", "is not a known matter status")
	}

	matter, err := s.matters.UpdateMatterStatus(ctx, advocateID, matterID, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newMatterResponse(matter))
}

type recordTimeEntryRequest struct {
	Date            string  `json:"date" validate:"required"`
	Description     string  `json:"description" validate:"required"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
	Rate            float64 `json:"rate" validate:"gte=0"`
	Billable        *bool   `json:"billable"`
}

func (s *Server) handleRecordTimeEntry(c echo.Context) error {
	const op = "api.record_time_entry"
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	matterID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req recordTimeEntryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	date, err := parseDate(op, "date", req.Date)
	if err != nil {
		return err
	}

	// Entries default to billable; recording non-billable work is the
	// explicit case.
	billable := true
	if req.Billable != nil {
		billable = *req.Billable
	}

	entry, err := s.matters.RecordTimeEntry(ctx, advocateID, domain.CreateTimeEntryParams{
		AdvocateID:      advocateID,
		MatterID:        matterID,
		Date:            date,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Rate:            req.Rate,
		Billable:        billable,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newTimeEntryResponse(entry))
}

func (s *Server) handleListTimeEntries(c echo.Context) error {
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	matterID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	filter := domain.TimeEntryFilter{
		OnlyUnbilled: c.QueryParam("unbilled") == "true",
		OnlyBillable: c.QueryParam("billable") == "true",
	}

	entries, err := s.matters.ListTimeEntries(ctx, advocateID, matterID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"time_entries": newTimeEntryListResponse(entries),
	})
}

type recordExpenseRequest struct {
	Date        string  `json:"date" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
}

func (s *Server) handleRecordExpense(c echo.Context) error {
	const op = "api.record_expense"
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	matterID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req recordExpenseRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	date, err := parseDate(op, "date", req.Date)
	if err != nil {
		return err
	}

	expense, err := s.matters.RecordExpense(ctx, advocateID, domain.CreateExpenseParams{
		AdvocateID:  advocateID,
		MatterID:    matterID,
		Date:        date,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newExpenseResponse(expense))
}

func (s *Server) handleListExpenses(c echo.Context) error {
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	matterID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	expenses, err := s.matters.ListExpenses(ctx, advocateID, matterID, c.QueryParam("unbilled") == "true")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"expenses": newExpenseListResponse(expenses),
	})
}
