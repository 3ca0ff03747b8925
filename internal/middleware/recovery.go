package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lexohub/lexohub/internal/domain"
)

// Recover converts panics in the handler chain into internal domain
// errors so the API answers 500 instead of dropping the connection.
// http.ErrAbortHandler is re-raised because net/http uses it to abort
// the response deliberately.
func Recover(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}

					recovered, ok := r.(error)
					if !ok {
						recovered = fmt.Errorf("%v", r)
					}

					logger.Error().
						Err(recovered).
						Str("request_id", c.Response().Header().Get(RequestIDHeader)).
						Str("method", c.Request().Method).
						Str("path", c.Request().URL.Path).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")

					err = domain.WrapError(recovered, domain.EINTERNAL, "http.recover", "unexpected server error")
				}
			}()

			return next(c)
		}
	}
}
