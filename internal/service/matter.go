package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexohub/lexohub/internal/bar"
	"github.com/lexohub/lexohub/internal/domain"
)

type matterService struct {
	store  domain.Store
	logger zerolog.Logger
}

// NewMatterService creates a new MatterService instance.
func NewMatterService(store domain.Store, logger zerolog.Logger) domain.MatterService {
	return &matterService{store: store, logger: logger}
}

// CreateMatter opens a matter for the advocate. The matter's bar decides
// payment terms, VAT and reminder cadence for every invoice raised on it.
func (s *matterService) CreateMatter(ctx context.Context, advocateID uuid.UUID, params domain.CreateMatterParams) (*domain.Matter, error) {
	const op = "matter.create"

	params.AdvocateID = advocateID

	var verr error
	if params.Title == "" {
		verr = domain.AddFieldError(verr, "title", "title is required")
	}
	if params.ClientName == "" {
		verr = domain.AddFieldError(verr, "client_name", "client name is required")
	}
	if params.EstimatedFee < 0 {
		verr = domain.AddFieldError(verr, "estimated_fee", "estimated fee cannot be negative")
	}
	if _, err := bar.Rules(params.Bar); err != nil {
		verr = domain.AddFieldError(verr, "bar", fmt.Sprintf("unknown bar: %s", params.Bar))
	}
	if ve, ok := verr.(*domain.ValidationError); ok {
		ve.Op = op
		return nil, ve
	}

	matter, err := s.store.Matters().CreateMatter(ctx, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("matter_id", matter.ID.String()).
		Str("bar", string(matter.Bar)).
		Str("client", matter.ClientName).
		Msg("matter opened")
	return matter, nil
}

// GetMatter retrieves a matter owned by the advocate.
func (s *matterService) GetMatter(ctx context.Context, advocateID, matterID uuid.UUID) (*domain.Matter, error) {
	matter, err := s.store.Matters().GetMatter(ctx, matterID)
	if err != nil {
		return nil, err
	}
	if matter.AdvocateID != advocateID {
		return nil, domain.ErrNotOwner
	}
	return matter, nil
}

// ListMatters lists the advocate's matters.
func (s *matterService) ListMatters(ctx context.Context, advocateID uuid.UUID) ([]domain.Matter, error) {
	return s.store.Matters().ListMattersByAdvocate(ctx, advocateID)
}

// UpdateMatterStatus moves a matter between active, on hold, settled and
// closed.
func (s *matterService) UpdateMatterStatus(ctx context.Context, advocateID, matterID uuid.UUID, status domain.MatterStatus) (*domain.Matter, error) {
	const op = "matter.update_status"

	if !status.Valid() {
		return nil, domain.Invalid(op, fmt.Sprintf("unknown matter status: %s", status))
	}

	matter, err := s.GetMatter(ctx, advocateID, matterID)
	if err != nil {
		return nil, err
	}
	if matter.Status == status {
		return matter, nil
	}

	if err := s.store.Matters().UpdateMatterStatus(ctx, matterID, status); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("matter_id", matterID.String()).
		Str("from", string(matter.Status)).
		Str("to", string(status)).
		Msg("matter status updated")
	matter.Status = status
	return matter, nil
}

// RecordTimeEntry captures work on a matter. Billable entries add their
// fee value to the matter's WIP in the same transaction as the insert.
func (s *matterService) RecordTimeEntry(ctx context.Context, advocateID uuid.UUID, params domain.CreateTimeEntryParams) (*domain.TimeEntry, error) {
	const op = "time_entry.create"

	params.AdvocateID = advocateID

	var verr error
	if params.MatterID == uuid.Nil {
		verr = domain.AddFieldError(verr, "matter_id", "matter is required")
	}
	if params.Description == "" {
		verr = domain.AddFieldError(verr, "description", "description is required")
	}
	if params.DurationMinutes <= 0 {
		verr = domain.AddFieldError(verr, "duration_minutes", "duration must be positive")
	}
	if params.Rate < 0 {
		verr = domain.AddFieldError(verr, "rate", "rate cannot be negative")
	}
	if ve, ok := verr.(*domain.ValidationError); ok {
		ve.Op = op
		return nil, ve
	}

	matter, err := s.GetMatter(ctx, advocateID, params.MatterID)
	if err != nil {
		return nil, err
	}
	if matter.Status == domain.MatterStatusClosed {
		return nil, domain.ErrMatterClosed
	}

	if params.Date.IsZero() {
		params.Date = time.Now().UTC()
	}
	params.Date = truncateToDay(params.Date)

	var entry *domain.TimeEntry
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		var err error
		entry, err = tx.TimeEntries().CreateTimeEntry(ctx, params)
		if err != nil {
			return err
		}
		if !params.Billable {
			return nil
		}
		return tx.Matters().AddToWIP(ctx, params.MatterID, EntryFee(params.DurationMinutes, params.Rate))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("matter_id", params.MatterID.String()).
		Int("minutes", params.DurationMinutes).
		Bool("billable", params.Billable).
		Msg("time entry recorded")
	return entry, nil
}

// ListTimeEntries lists time entries on a matter owned by the advocate.
func (s *matterService) ListTimeEntries(ctx context.Context, advocateID, matterID uuid.UUID, filter domain.TimeEntryFilter) ([]domain.TimeEntry, error) {
	if _, err := s.GetMatter(ctx, advocateID, matterID); err != nil {
		return nil, err
	}
	return s.store.TimeEntries().ListTimeEntriesByMatter(ctx, matterID, filter)
}

// RecordExpense captures a recoverable cost against a matter. Expenses
// pass through to invoices at cost and never enter WIP.
func (s *matterService) RecordExpense(ctx context.Context, advocateID uuid.UUID, params domain.CreateExpenseParams) (*domain.Expense, error) {
	const op = "expense.create"

	params.AdvocateID = advocateID

	var verr error
	if params.MatterID == uuid.Nil {
		verr = domain.AddFieldError(verr, "matter_id", "matter is required")
	}
	if params.Description == "" {
		verr = domain.AddFieldError(verr, "description", "description is required")
	}
	if params.Amount <= 0 {
		verr = domain.AddFieldError(verr, "amount", "amount must be positive")
	}
	if ve, ok := verr.(*domain.ValidationError); ok {
		ve.Op = op
		return nil, ve
	}

	matter, err := s.GetMatter(ctx, advocateID, params.MatterID)
	if err != nil {
		return nil, err
	}
	if matter.Status == domain.MatterStatusClosed {
		return nil, domain.ErrMatterClosed
	}

	if params.Date.IsZero() {
		params.Date = time.Now().UTC()
	}
	params.Date = truncateToDay(params.Date)

	expense, err := s.store.Expenses().CreateExpense(ctx, params)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("matter_id", params.MatterID.String()).
		Float64("amount", params.Amount).
		Msg("expense recorded")
	return expense, nil
}

// ListExpenses lists expenses on a matter owned by the advocate.
func (s *matterService) ListExpenses(ctx context.Context, advocateID, matterID uuid.UUID, onlyUnbilled bool) ([]domain.Expense, error) {
	if _, err := s.GetMatter(ctx, advocateID, matterID); err != nil {
		return nil, err
	}
	return s.store.Expenses().ListExpensesByMatter(ctx, matterID, onlyUnbilled)
}
