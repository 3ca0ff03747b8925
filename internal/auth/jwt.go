// Package auth issues and validates the bearer tokens the API runs on.
// Tokens are minted out of band (bootstrap logs a development token);
// there is no interactive login flow.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lexohub/lexohub/internal/domain"
)

// Claims carried in every access token.
type Claims struct {
	AdvocateID uuid.UUID  `json:"advocate_id"`
	Email      string     `json:"email"`
	Bar        domain.Bar `json:"bar"`
	jwt.RegisteredClaims
}

// Identity converts validated claims into the context identity the
// service layer reads.
func (c *Claims) Identity() *domain.AdvocateIdentity {
	return &domain.AdvocateIdentity{
		ID:    c.AdvocateID,
		Email: c.Email,
		Bar:   c.Bar,
	}
}

// Config for token issuing and validation.
type Config struct {
	// Secret signs tokens with HMAC-SHA256. Required.
	Secret string

	// Issuer names this deployment in the iss claim. Default "lexohub".
	Issuer string

	// TTL is how long issued tokens live. Default 24h.
	TTL time.Duration
}

// TokenManager issues and validates advocate access tokens.
type TokenManager struct {
	config Config
}

// NewTokenManager creates a token manager.
func NewTokenManager(cfg Config) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "lexohub"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &TokenManager{config: cfg}, nil
}

// GenerateToken creates a signed token for an advocate.
func (m *TokenManager) GenerateToken(identity domain.AdvocateIdentity) (string, error) {
	now := time.Now()

	claims := &Claims{
		AdvocateID: identity.ID,
		Email:      identity.Email,
		Bar:        identity.Bar,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// ValidateToken verifies a token and returns the claims.
func (m *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(m.config.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.AdvocateID == uuid.Nil {
		return nil, errors.New("token carries no advocate")
	}

	return claims, nil
}
