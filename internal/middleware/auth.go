package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lexohub/lexohub/internal/auth"
	"github.com/lexohub/lexohub/internal/domain"
)

// JWTAuth validates the Authorization bearer token and stores the
// advocate identity in the request context. Handlers past this
// middleware may call domain.RequireAdvocateID.
func JWTAuth(tokens *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return domain.Unauthorized("auth.jwt", "authorization header required")
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return domain.Unauthorized("auth.jwt", "authorization header must carry a bearer token")
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				return domain.Unauthorized("auth.jwt", "invalid or expired token")
			}

			ctx := domain.NewContextWithAdvocate(c.Request().Context(), claims.Identity())
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
