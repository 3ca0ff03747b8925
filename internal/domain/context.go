// Package domain provides the core billing types, errors and context
// helpers for LexoHub.
//
// Context helpers centralize request-scoped identity access so ownership
// checks read the same way throughout the codebase.
package domain

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// advocateContextKey stores the authenticated advocate in context.
	advocateContextKey contextKey = iota

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// AdvocateIdentity is the authenticated advocate carried in context.
// This is a minimal struct for context storage; the full advocate record
// can be fetched from the store when needed.
type AdvocateIdentity struct {
	ID    uuid.UUID
	Email string
	Bar   Bar
}

// --- Advocate Context Helpers ---

// NewContextWithAdvocate returns a new context with the advocate attached.
func NewContextWithAdvocate(ctx context.Context, adv *AdvocateIdentity) context.Context {
	return context.WithValue(ctx, advocateContextKey, adv)
}

// AdvocateFromContext retrieves the advocate from context.
// Returns nil if no advocate is present.
func AdvocateFromContext(ctx context.Context) *AdvocateIdentity {
	adv, _ := ctx.Value(advocateContextKey).(*AdvocateIdentity)
	return adv
}

// AdvocateIDFromContext retrieves the advocate ID from context.
// Returns uuid.Nil if no advocate is present.
func AdvocateIDFromContext(ctx context.Context) uuid.UUID {
	if adv := AdvocateFromContext(ctx); adv != nil {
		return adv.ID
	}
	return uuid.Nil
}

// RequireAdvocateID retrieves the advocate ID from context, panicking if
// not present. Use this past the auth middleware where an authenticated
// advocate is guaranteed; the panic is caught by recovery middleware.
func RequireAdvocateID(ctx context.Context) uuid.UUID {
	id := AdvocateIDFromContext(ctx)
	if id == uuid.Nil {
		panic("advocate_id required in context but not found")
	}
	return id
}

// IsAuthenticated returns true if there is an advocate in context.
func IsAuthenticated(ctx context.Context) bool {
	return AdvocateFromContext(ctx) != nil
}

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}
