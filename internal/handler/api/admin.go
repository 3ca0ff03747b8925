package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Sweeps normally run from the scheduler; these endpoints let an
// operator trigger them on demand. Any authenticated advocate may call
// them: a sweep is idempotent within a day, so an early trigger cannot
// double-send reminders.

func (s *Server) handleSweepReminders(c echo.Context) error {
	summary, err := s.invoices.SweepReminders(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reminderSweepResponse{
		Scanned:   summary.Scanned,
		Sent:      summary.Sent,
		Escalated: summary.Escalated,
		Failed:    summary.Failed,
	})
}

func (s *Server) handleSweepOverdue(c echo.Context) error {
	summary, err := s.invoices.SweepOverdue(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, overdueSweepResponse{
		Scanned: summary.Scanned,
		Marked:  summary.Marked,
	})
}
