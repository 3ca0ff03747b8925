package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lexohub/lexohub/internal/domain"
)

// RequestLogger injects a request-scoped logger into the context and
// writes one completion line per request. Handlers and services reach
// the scoped logger through zerolog.Ctx.
//
// Place after RequestID so every line carries the request ID.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			logger := base.With().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("request_id", domain.RequestIDFromContext(req.Context())).
				Logger()

			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			event := logger.Info()
			switch {
			case res.Status >= 500:
				event = logger.Error()
			case res.Status >= 400:
				event = logger.Warn()
			}
			if err != nil {
				event = event.Err(err)
			}

			// Auth runs deeper in the chain, so the advocate is read from
			// the final request context rather than the one captured above.
			if advocateID := domain.AdvocateIDFromContext(c.Request().Context()); advocateID != uuid.Nil {
				event = event.Str("advocate_id", advocateID.String())
			}

			event.
				Int("status", res.Status).
				Dur("duration", time.Since(start)).
				Int64("bytes_out", res.Size).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
