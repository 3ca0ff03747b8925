package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/narrative"
)

type narrativePreviewRequest struct {
	TimeEntryIDs []uuid.UUID `json:"time_entry_ids" validate:"required,min=1"`
	Tone         string      `json:"tone" validate:"omitempty,oneof=standard concise detailed"`
	GroupByDate  bool        `json:"group_by_date"`
}

// handleNarrativePreview generates a narrative from selected time
// entries without raising an invoice, so the advocate can review and
// adjust tone before billing.
func (s *Server) handleNarrativePreview(c echo.Context) error {
	const op = "api.narrative_preview"
	ctx := c.Request().Context()
	advocateID := domain.RequireAdvocateID(ctx)

	var req narrativePreviewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	entries, err := s.store.TimeEntries().ListTimeEntriesByIDs(ctx, req.TimeEntryIDs)
	if err != nil {
		return domain.Internal(err, op, "could not load time entries")
	}
	if len(entries) != len(req.TimeEntryIDs) {
		return domain.NewValidationError(op, "time_entry_ids", "contains entries that do not exist")
	}
	for _, entry := range entries {
		if entry.AdvocateID != advocateID {
			return domain.ErrNotOwner
		}
	}

	// A preview has no invoice yet, so the matter title comes from the
	// first entry's matter when it loads cleanly.
	var matterTitle string
	if m, err := s.store.Matters().GetMatter(ctx, entries[0].MatterID); err == nil && m != nil {
		matterTitle = m.Title
	}

	n := s.narrator.Generate(entries, narrative.Options{
		Tone:        narrative.ParseTone(req.Tone),
		GroupByDate: req.GroupByDate,
		MatterTitle: matterTitle,
	})
	return c.JSON(http.StatusOK, newNarrativeResponse(n))
}
