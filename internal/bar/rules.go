// Package bar holds the payment rules for each Bar association.
//
// The table here is the single source of bar billing constants. Due
// dates, VAT rates, reminder cadences and invoice number prefixes all
// come from this package; nothing else in the codebase hardcodes them.
package bar

import (
	"time"

	"github.com/lexohub/lexohub/internal/domain"
)

// PaymentRules are the billing constants for one Bar association.
type PaymentRules struct {
	Bar domain.Bar

	// PaymentTermDays is the number of calendar days from invoice date
	// to due date.
	PaymentTermDays int

	// VATRate is the VAT fraction applied to discounted fees.
	VATRate float64

	// ReminderSchedule lists the days after the invoice date on which
	// successive reminders fall, strictly ascending. The index into this
	// slice is always relative to the original invoice date, never the
	// previous reminder.
	ReminderSchedule []int

	// InvoicePrefix opens every invoice number for this bar.
	InvoicePrefix string

	// TrustTransferDays is how long instructing attorneys may hold
	// trust funds before paying counsel over.
	TrustTransferDays int

	// LateFeePercentage is the monthly late fee fraction quoted on
	// reminders.
	LateFeePercentage float64

	// PrescriptionYears is the period after which the debt prescribes
	// under the Prescription Act.
	PrescriptionYears int
}

var rules = map[domain.Bar]PaymentRules{
	domain.BarJohannesburg: {
		Bar:               domain.BarJohannesburg,
		PaymentTermDays:   60,
		VATRate:           0.15,
		ReminderSchedule:  []int{30, 45, 55},
		InvoicePrefix:     "JHB",
		TrustTransferDays: 90,
		LateFeePercentage: 0.02,
		PrescriptionYears: 3,
	},
	domain.BarCapeTown: {
		Bar:               domain.BarCapeTown,
		PaymentTermDays:   90,
		VATRate:           0.15,
		ReminderSchedule:  []int{45, 70, 85},
		InvoicePrefix:     "CPT",
		TrustTransferDays: 120,
		LateFeePercentage: 0.015,
		PrescriptionYears: 3,
	},
}

// Rules returns the payment rules for the given bar. An unregistered bar
// is an error; billing never falls back to a default rule set.
func Rules(b domain.Bar) (PaymentRules, error) {
	r, ok := rules[b]
	if !ok {
		return PaymentRules{}, &domain.Error{
			Code:    domain.EINVALID,
			Op:      "bar.rules",
			Message: domain.ErrUnknownBar.Message,
			Err:     domain.ErrUnknownBar,
		}
	}
	return r, nil
}

// MustRules is Rules for callers that have already validated the bar.
// It panics on an unregistered bar and belongs in tests and static
// initialization only.
func MustRules(b domain.Bar) PaymentRules {
	r, err := Rules(b)
	if err != nil {
		panic(err)
	}
	return r
}

// DueDate computes the payment due date for an invoice raised on
// invoiceDate under the given rules.
func (r PaymentRules) DueDate(invoiceDate time.Time) time.Time {
	return invoiceDate.AddDate(0, 0, r.PaymentTermDays)
}

// NextReminderDate returns the date of the reminder indexed by
// remindersSent, counted from the original invoice date. Returns nil when
// the schedule is exhausted.
func (r PaymentRules) NextReminderDate(invoiceDate time.Time, remindersSent int) *time.Time {
	if remindersSent < 0 || remindersSent >= len(r.ReminderSchedule) {
		return nil
	}
	d := invoiceDate.AddDate(0, 0, r.ReminderSchedule[remindersSent])
	return &d
}

// ReminderCount is the number of reminders the bar's schedule carries
// before escalation.
func (r PaymentRules) ReminderCount() int {
	return len(r.ReminderSchedule)
}
