// Package middleware provides the echo middleware chain for the API:
// request IDs, request-scoped zerolog loggers, Prometheus HTTP metrics,
// bearer token auth, rate limiting, security headers and panic recovery.
//
// Errors returned by middleware are domain errors; the API's error
// handler maps their codes to HTTP statuses.
package middleware
