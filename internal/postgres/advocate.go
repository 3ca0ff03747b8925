package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lexohub/lexohub/internal/domain"
)

// AdvocateStore implements domain.AdvocateStore using PostgreSQL.
type AdvocateStore struct {
	db DB
}

// Compile-time check that AdvocateStore implements domain.AdvocateStore.
var _ domain.AdvocateStore = (*AdvocateStore)(nil)

// NewAdvocateStore creates a new PostgreSQL-backed advocate store.
func NewAdvocateStore(db DB) *AdvocateStore {
	return &AdvocateStore{db: db}
}

const advocateColumns = `id, email, full_name, initials, practice_number, chambers, bar,
	vat_number, hourly_rate, bank_name, bank_account, bank_branch_code,
	created_at, updated_at`

// CreateAdvocate registers a new advocate.
func (s *AdvocateStore) CreateAdvocate(ctx context.Context, params domain.CreateAdvocateParams) (*domain.Advocate, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO advocates (email, full_name, initials, practice_number, chambers, bar,
			vat_number, hourly_rate, bank_name, bank_account, bank_branch_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+advocateColumns,
		params.Email, params.FullName, params.Initials, params.PracticeNumber,
		params.Chambers, string(params.Bar), params.VATNumber, params.HourlyRate,
		params.BankName, params.BankAccount, params.BankBranchCode,
	)

	adv, err := scanAdvocate(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, domain.Internal(err, "advocate.create", "failed to create advocate")
	}
	return adv, nil
}

// GetAdvocate retrieves an advocate by ID.
func (s *AdvocateStore) GetAdvocate(ctx context.Context, id uuid.UUID) (*domain.Advocate, error) {
	row := s.db.QueryRow(ctx, `SELECT `+advocateColumns+` FROM advocates WHERE id = $1`, id)

	adv, err := scanAdvocate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAdvocateNotFound
		}
		return nil, domain.Internal(err, "advocate.get", "failed to get advocate")
	}
	return adv, nil
}

// GetAdvocateByEmail retrieves an advocate by email address.
func (s *AdvocateStore) GetAdvocateByEmail(ctx context.Context, email string) (*domain.Advocate, error) {
	row := s.db.QueryRow(ctx, `SELECT `+advocateColumns+` FROM advocates WHERE email = $1`, email)

	adv, err := scanAdvocate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAdvocateNotFound
		}
		return nil, domain.Internal(err, "advocate.get_by_email", "failed to get advocate by email")
	}
	return adv, nil
}

func scanAdvocate(row pgx.Row) (*domain.Advocate, error) {
	var a domain.Advocate
	var bar string
	err := row.Scan(
		&a.ID, &a.Email, &a.FullName, &a.Initials, &a.PracticeNumber, &a.Chambers, &bar,
		&a.VATNumber, &a.HourlyRate, &a.BankName, &a.BankAccount, &a.BankBranchCode,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Bar = domain.Bar(bar)
	return &a, nil
}
