package domain

import "strings"

// Bar identifies the Bar association a matter is billed under.
// The bar determines payment terms, VAT treatment, reminder cadence
// and the invoice number prefix.
type Bar string

const (
	BarJohannesburg Bar = "JHB"
	BarCapeTown     Bar = "CPT"
)

// ErrUnknownBar indicates a bar that has no payment rules registered.
// Billing never falls back to a default bar; an unknown bar always
// surfaces as an error to the caller.
var ErrUnknownBar = &Error{
	Code:    EINVALID,
	Message: "Unknown bar association",
}

// ParseBar normalizes a raw bar token and validates it.
// Accepts any casing and surrounding whitespace.
func ParseBar(raw string) (Bar, error) {
	bar := Bar(strings.ToUpper(strings.TrimSpace(raw)))
	if !bar.Valid() {
		return "", &Error{
			Code:    EINVALID,
			Op:      "bar.parse",
			Message: ErrUnknownBar.Message,
			Err:     ErrUnknownBar,
		}
	}
	return bar, nil
}

// Valid reports whether the bar is one of the registered associations.
func (b Bar) Valid() bool {
	switch b {
	case BarJohannesburg, BarCapeTown:
		return true
	}
	return false
}

// DisplayName returns the association's full name for documents and
// correspondence.
func (b Bar) DisplayName() string {
	switch b {
	case BarJohannesburg:
		return "Johannesburg Society of Advocates"
	case BarCapeTown:
		return "Cape Bar"
	}
	return string(b)
}

func (b Bar) String() string {
	return string(b)
}
