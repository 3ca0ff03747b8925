// Package api is the HTTP surface of the billing engine: a JSON REST
// API on echo with bearer token auth, Prometheus metrics and zerolog
// request logging. Handlers stay thin; they bind and validate input,
// call the service layer and leave error-to-status translation to the
// central error handler.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/go-playground/validator/v10"

	"github.com/lexohub/lexohub/internal/auth"
	"github.com/lexohub/lexohub/internal/billing"
	"github.com/lexohub/lexohub/internal/domain"
	"github.com/lexohub/lexohub/internal/middleware"
	"github.com/lexohub/lexohub/internal/narrative"
	"github.com/lexohub/lexohub/internal/pdf"
	"github.com/lexohub/lexohub/internal/storage"
)

// Config carries the server's dependencies. Tokens, Store, Invoices,
// Matters, Narrator and Renderer are required; Archive and Billing are
// optional and disable their endpoints' side features when nil.
type Config struct {
	Logger   zerolog.Logger
	Tokens   *auth.TokenManager
	Store    domain.Store
	Invoices domain.InvoiceService
	Matters  domain.MatterService
	Narrator *narrative.Generator
	Renderer *pdf.Renderer
	Archive  storage.Storage
	Billing  billing.Provider

	// HTTPMetrics collects per-request metrics when set. The /metrics
	// endpoint serves the default registry either way.
	HTTPMetrics *middleware.Metrics
}

// Server is the assembled HTTP API.
type Server struct {
	echo   *echo.Echo
	logger zerolog.Logger

	store    domain.Store
	invoices domain.InvoiceService
	matters  domain.MatterService
	narrator *narrative.Generator
	renderer *pdf.Renderer
	archive  storage.Storage
	billing  billing.Provider

	apiLimiter  *middleware.RateLimiter
	hookLimiter *middleware.RateLimiter
}

// New assembles the server: serializer, validator, middleware chain and
// every route.
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Tokens == nil:
		return nil, errors.New("api: token manager is required")
	case cfg.Store == nil:
		return nil, errors.New("api: store is required")
	case cfg.Invoices == nil:
		return nil, errors.New("api: invoice service is required")
	case cfg.Matters == nil:
		return nil, errors.New("api: matter service is required")
	case cfg.Narrator == nil:
		return nil, errors.New("api: narrative generator is required")
	case cfg.Renderer == nil:
		return nil, errors.New("api: pdf renderer is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = newRequestValidator()

	s := &Server{
		echo:        e,
		logger:      cfg.Logger,
		store:       cfg.Store,
		invoices:    cfg.Invoices,
		matters:     cfg.Matters,
		narrator:    cfg.Narrator,
		renderer:    cfg.Renderer,
		archive:     cfg.Archive,
		billing:     cfg.Billing,
		apiLimiter:  middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		hookLimiter: middleware.NewRateLimiter(middleware.StrictRateLimiterConfig()),
	}
	e.HTTPErrorHandler = s.errorHandler

	e.Use(
		middleware.RequestID(),
		middleware.RequestLogger(cfg.Logger),
	)
	if cfg.HTTPMetrics != nil {
		e.Use(cfg.HTTPMetrics.Middleware())
	}
	e.Use(
		middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig()),
		echomw.BodyLimit("1M"),
		middleware.Recover(cfg.Logger),
	)

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/webhooks/stripe", s.handleStripeWebhook, s.hookLimiter.Middleware())

	api := e.Group("/api/v1", s.apiLimiter.Middleware(), middleware.JWTAuth(cfg.Tokens))

	api.POST("/invoices", s.handleGenerateInvoice)
	api.GET("/invoices", s.handleListInvoices)
	api.GET("/invoices/:id", s.handleGetInvoice)
	api.PATCH("/invoices/:id/status", s.handleUpdateInvoiceStatus)
	api.POST("/invoices/:id/convert", s.handleConvertProForma)
	api.POST("/invoices/:id/payments", s.handleRecordPayment)
	api.GET("/invoices/:id/pdf", s.handleInvoicePDF)
	api.POST("/invoices/:id/payment-link", s.handleCreatePaymentLink)

	api.POST("/narratives/preview", s.handleNarrativePreview)

	api.POST("/matters", s.handleCreateMatter)
	api.GET("/matters", s.handleListMatters)
	api.GET("/matters/:id", s.handleGetMatter)
	api.PATCH("/matters/:id/status", s.handleUpdateMatterStatus)
	api.POST("/matters/:id/time-entries", s.handleRecordTimeEntry)
	api.GET("/matters/:id/time-entries", s.handleListTimeEntries)
	api.POST("/matters/:id/expenses", s.handleRecordExpense)
	api.GET("/matters/:id/expenses", s.handleListExpenses)

	api.POST("/admin/sweep/reminders", s.handleSweepReminders)
	api.POST("/admin/sweep/overdue", s.handleSweepOverdue)

	return s, nil
}

// Start listens on addr and serves until Shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the rate limiters.
func (s *Server) Shutdown(ctx context.Context) error {
	s.apiLimiter.Stop()
	s.hookLimiter.Stop()
	return s.echo.Shutdown(ctx)
}

// ServeHTTP satisfies http.Handler so the server runs under httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// jsonSerializer plugs goccy/go-json into echo.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	return json.NewDecoder(c.Request().Body).Decode(i)
}

// requestValidator adapts go-playground/validator to echo's Validator
// hook. Failures come back as domain validation errors keyed by the
// field's json name, so they reach clients as 422 with a field map.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

func (rv *requestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Internal(err, "api.validate", "request validation failed")
	}

	var verr error
	for _, fe := range fieldErrs {
		verr = domain.AddFieldError(verr, fe.Field(), validationMessage(fe))
	}
	return verr
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s items", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("is invalid (%s)", fe.Tag())
	}
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// errorHandler maps errors to HTTP statuses: validation errors carry
// their field map, domain codes map per statusForCode, echo's own
// errors (404, 405, body limit) keep their status, and anything else
// is a masked 500.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		body   errorResponse
	)

	var verr *domain.ValidationError
	var herr *echo.HTTPError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		body = errorResponse{Error: "validation failed", Fields: verr.Fields}
	case errors.As(err, &herr):
		status = herr.Code
		body = errorResponse{Error: fmt.Sprintf("%v", herr.Message)}
	default:
		status = statusForCode(domain.ErrorCode(err))
		body = errorResponse{Error: domain.ErrorMessage(err)}
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		s.logger.Error().Err(writeErr).Msg("could not write error response")
	}
}

func statusForCode(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusUnprocessableEntity
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ENOTIMPL:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
