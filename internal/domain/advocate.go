package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Advocate-related domain errors.
var (
	ErrAdvocateNotFound = &Error{Code: ENOTFOUND, Message: "Advocate not found"}
	ErrDuplicateEmail   = &Error{Code: ECONFLICT, Message: "An advocate with this email already exists"}
)

// Advocate is a practicing member of the bar who records time and bills
// through the engine. Banking details appear on rendered invoices.
type Advocate struct {
	ID             uuid.UUID
	Email          string
	FullName       string
	Initials       string
	PracticeNumber string
	Chambers       string
	Bar            Bar
	VATNumber      string
	HourlyRate     float64 // default rate in rand per hour
	BankName       string
	BankAccount    string
	BankBranchCode string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateAdvocateParams contains parameters for registering an advocate.
type CreateAdvocateParams struct {
	Email          string
	FullName       string
	Initials       string
	PracticeNumber string
	Chambers       string
	Bar            Bar
	VATNumber      string
	HourlyRate     float64
	BankName       string
	BankAccount    string
	BankBranchCode string
}

// AdvocateStore is the persistence port for advocates.
type AdvocateStore interface {
	CreateAdvocate(ctx context.Context, params CreateAdvocateParams) (*Advocate, error)
	GetAdvocate(ctx context.Context, id uuid.UUID) (*Advocate, error)
	GetAdvocateByEmail(ctx context.Context, email string) (*Advocate, error)
}
