package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lexohub/lexohub/internal/domain"
)

// MatterStore implements domain.MatterStore using PostgreSQL.
type MatterStore struct {
	db DB
}

// Compile-time check that MatterStore implements domain.MatterStore.
var _ domain.MatterStore = (*MatterStore)(nil)

// NewMatterStore creates a new PostgreSQL-backed matter store.
func NewMatterStore(db DB) *MatterStore {
	return &MatterStore{db: db}
}

const matterColumns = `id, advocate_id, title, reference, client_name, attorney_name,
	attorney_firm, attorney_email, bar, status, wip_value, actual_fee, estimated_fee,
	created_at, updated_at`

// CreateMatter opens a new matter for an advocate.
func (s *MatterStore) CreateMatter(ctx context.Context, params domain.CreateMatterParams) (*domain.Matter, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO matters (advocate_id, title, reference, client_name, attorney_name,
			attorney_firm, attorney_email, bar, estimated_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+matterColumns,
		params.AdvocateID, params.Title, params.Reference, params.ClientName,
		params.AttorneyName, params.AttorneyFirm, params.AttorneyEmail,
		string(params.Bar), params.EstimatedFee,
	)

	m, err := scanMatter(row)
	if err != nil {
		return nil, domain.Internal(err, "matter.create", "failed to create matter")
	}
	return m, nil
}

// GetMatter retrieves a matter by ID.
func (s *MatterStore) GetMatter(ctx context.Context, id uuid.UUID) (*domain.Matter, error) {
	row := s.db.QueryRow(ctx, `SELECT `+matterColumns+` FROM matters WHERE id = $1`, id)

	m, err := scanMatter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMatterNotFound
		}
		return nil, domain.Internal(err, "matter.get", "failed to get matter")
	}
	return m, nil
}

// ListMattersByAdvocate lists an advocate's matters, newest first.
func (s *MatterStore) ListMattersByAdvocate(ctx context.Context, advocateID uuid.UUID) ([]domain.Matter, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+matterColumns+` FROM matters
		WHERE advocate_id = $1
		ORDER BY created_at DESC`,
		advocateID,
	)
	if err != nil {
		return nil, domain.Internal(err, "matter.list", "failed to list matters")
	}
	defer rows.Close()

	var matters []domain.Matter
	for rows.Next() {
		m, err := scanMatter(rows)
		if err != nil {
			return nil, domain.Internal(err, "matter.list", "failed to scan matter")
		}
		matters = append(matters, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "matter.list", "failed to read matters")
	}
	return matters, nil
}

// UpdateMatterStatus moves a matter to a new working status.
func (s *MatterStore) UpdateMatterStatus(ctx context.Context, id uuid.UUID, status domain.MatterStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE matters SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return domain.Internal(err, "matter.update_status", "failed to update matter status")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMatterNotFound
	}
	return nil
}

// AddToWIP records new unbilled work value against the matter.
func (s *MatterStore) AddToWIP(ctx context.Context, matterID uuid.UUID, amount float64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE matters SET wip_value = wip_value + $2, updated_at = now() WHERE id = $1`,
		matterID, amount,
	)
	if err != nil {
		return domain.Internal(err, "matter.add_wip", "failed to add to matter WIP")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMatterNotFound
	}
	return nil
}

// ApplyBilling moves value out of WIP and accumulates the billed fee.
// The WIP decrement clamps at zero in SQL so a stale WIP figure can never
// drive the column negative.
func (s *MatterStore) ApplyBilling(ctx context.Context, params domain.ApplyBillingParams) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE matters
		SET wip_value = GREATEST(wip_value - $2, 0),
		    actual_fee = actual_fee + $3,
		    updated_at = now()
		WHERE id = $1`,
		params.MatterID, params.WIPDelta, params.FeeDelta,
	)
	if err != nil {
		return domain.Internal(err, "matter.apply_billing", "failed to apply billing to matter")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMatterNotFound
	}
	return nil
}

func scanMatter(row pgx.Row) (*domain.Matter, error) {
	var m domain.Matter
	var bar, status string
	err := row.Scan(
		&m.ID, &m.AdvocateID, &m.Title, &m.Reference, &m.ClientName, &m.AttorneyName,
		&m.AttorneyFirm, &m.AttorneyEmail, &bar, &status, &m.WIPValue, &m.ActualFee,
		&m.EstimatedFee, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Bar = domain.Bar(bar)
	m.Status = domain.MatterStatus(status)
	return &m, nil
}
