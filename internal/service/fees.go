package service

import (
	"math"

	"github.com/lexohub/lexohub/internal/domain"
)

// Fee arithmetic for invoice generation. Pure, no I/O. Money is rand as
// float64, rounded to cents at each named component so the published
// breakdown always reconciles exactly.

// RoundCents rounds an amount to the nearest cent, half away from zero.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// EntryFee prices one time entry at an hourly rate.
func EntryFee(durationMinutes int, rate float64) float64 {
	return RoundCents(float64(durationMinutes) / 60.0 * rate)
}

// FeeParams are the inputs to one invoice's fee calculation.
type FeeParams struct {
	Entries []domain.TimeEntry

	// RateOverride replaces every entry's own hourly rate when set.
	RateOverride *float64

	// DiscountPercentage (0..100) wins over DiscountAmount when both are
	// set. Negative values are rejected by request validation before the
	// calculator runs.
	DiscountPercentage *float64
	DiscountAmount     *float64

	Disbursements float64
	Expenses      float64
	VATRate       float64
}

// FeeBreakdown is the complete arithmetic of one invoice.
type FeeBreakdown struct {
	TotalHours     float64
	TotalFees      float64
	DiscountValue  float64
	DiscountedFees float64
	VATRate        float64
	VATAmount      float64
	Disbursements  float64
	TotalExpenses  float64
	TotalAmount    float64
}

// CalculateFees prices the entries and derives the invoice totals.
//
// VAT applies to the discounted fees only. Disbursements and expenses
// pass through with no VAT: counsel recovers them at cost, they are not
// output supplies. A discount can never drive the fee total negative.
func CalculateFees(p FeeParams) FeeBreakdown {
	b := FeeBreakdown{
		VATRate:       p.VATRate,
		Disbursements: RoundCents(p.Disbursements),
		TotalExpenses: RoundCents(p.Expenses),
	}

	var minutes int
	for _, e := range p.Entries {
		rate := e.Rate
		if p.RateOverride != nil {
			rate = *p.RateOverride
		}
		minutes += e.DurationMinutes
		b.TotalFees += EntryFee(e.DurationMinutes, rate)
	}
	b.TotalHours = math.Round(float64(minutes)/60.0*100) / 100
	b.TotalFees = RoundCents(b.TotalFees)

	switch {
	case p.DiscountPercentage != nil:
		b.DiscountValue = RoundCents(b.TotalFees * *p.DiscountPercentage / 100)
	case p.DiscountAmount != nil:
		b.DiscountValue = RoundCents(*p.DiscountAmount)
	}

	b.DiscountedFees = RoundCents(b.TotalFees - b.DiscountValue)
	if b.DiscountedFees < 0 {
		b.DiscountedFees = 0
	}

	b.VATAmount = RoundCents(b.DiscountedFees * b.VATRate)
	b.TotalAmount = RoundCents(b.DiscountedFees + b.VATAmount + b.Disbursements + b.TotalExpenses)
	return b
}
