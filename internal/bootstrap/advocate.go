// Package bootstrap handles one-time initialization tasks that run at
// startup.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lexohub/lexohub/internal/auth"
	"github.com/lexohub/lexohub/internal/domain"
)

// DevAdvocateEmail identifies the advocate seeded in development mode.
const DevAdvocateEmail = "dev@lexohub.local"

// EnsureDevAdvocate creates a demonstration advocate when none exists
// and issues a bearer token for it, so a fresh development database is
// usable without touching the advocates table by hand. Idempotent,
// safe to call on every startup.
func EnsureDevAdvocate(ctx context.Context, store domain.Store, tokens *auth.TokenManager, log zerolog.Logger) error {
	adv, err := store.Advocates().GetAdvocateByEmail(ctx, DevAdvocateEmail)
	switch {
	case err == nil:
		log.Info().Str("email", adv.Email).Msg("bootstrap: dev advocate already exists")
	case errors.Is(err, domain.ErrAdvocateNotFound):
		adv, err = store.Advocates().CreateAdvocate(ctx, domain.CreateAdvocateParams{
			Email:          DevAdvocateEmail,
			FullName:       "Adv. Thandi Mokoena SC",
			Initials:       "TM",
			PracticeNumber: "MK4521",
			Chambers:       "Sandown Chambers, Sandton",
			Bar:            domain.BarJohannesburg,
			VATNumber:      "4890123457",
			HourlyRate:     2400,
			BankName:       "First National Bank",
			BankAccount:    "62845501923",
			BankBranchCode: "250655",
		})
		if err != nil {
			return fmt.Errorf("bootstrap: create dev advocate: %w", err)
		}
		log.Info().
			Str("email", adv.Email).
			Str("advocate_id", adv.ID.String()).
			Msg("bootstrap: dev advocate created")
	default:
		return fmt.Errorf("bootstrap: check for dev advocate: %w", err)
	}

	token, err := tokens.GenerateToken(domain.AdvocateIdentity{
		ID:    adv.ID,
		Email: adv.Email,
		Bar:   adv.Bar,
	})
	if err != nil {
		return fmt.Errorf("bootstrap: issue dev token: %w", err)
	}

	// Development mode has no login flow; the logged token is how a
	// developer gets API access.
	log.Info().
		Str("advocate_id", adv.ID.String()).
		Str("token", token).
		Msg("bootstrap: dev bearer token issued")

	return nil
}
