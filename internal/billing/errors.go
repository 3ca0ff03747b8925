package billing

import (
	"errors"
)

var (
	// ErrInvalidSignature is returned when webhook signature verification
	// fails. Callers respond 400 so the gateway retries with a fresh
	// signature rather than treating the event as processed.
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")

	// ErrMalformedEvent is returned when an authentic webhook carries a
	// payload that does not parse.
	ErrMalformedEvent = errors.New("billing: malformed webhook event")

	// ErrAmountNotPositive is returned when a payment link is requested
	// for a zero or negative amount.
	ErrAmountNotPositive = errors.New("billing: payment link amount must be positive")
)
