package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"custodian/internal/records/models"
	"custodian/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListDonations(ctx context.Context, subjectID domain.SubjectID) ([]models.Donation, error) {
	query := `
		SELECT id, member_id, kind, amount_cents, donated_at, description
		FROM donations
		WHERE member_id = $1
		ORDER BY donated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(subjectID))
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var out []models.Donation
	for rows.Next() {
		var (
			d           models.Donation
			memberID    uuid.UUID
			description sql.NullString
		)
		if err := rows.Scan(&d.ID, &memberID, &d.Kind, &d.AmountCents, &d.DonatedAt, &description); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		d.SubjectID = domain.SubjectID(memberID)
		if description.Valid {
			d.Description = &description.String
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListMinistries(ctx context.Context, subjectID domain.SubjectID) ([]models.MinistryMembership, error) {
	query := `
		SELECT id, member_id, ministry, role, joined_at
		FROM ministry_memberships
		WHERE member_id = $1
		ORDER BY joined_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(subjectID))
	if err != nil {
		return nil, fmt.Errorf("list ministries: %w", err)
	}
	defer rows.Close()

	var out []models.MinistryMembership
	for rows.Next() {
		var (
			m        models.MinistryMembership
			memberID uuid.UUID
			role     sql.NullString
		)
		if err := rows.Scan(&m.ID, &memberID, &m.Ministry, &role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan ministry membership: %w", err)
		}
		m.SubjectID = domain.SubjectID(memberID)
		if role.Valid {
			m.Role = &role.String
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ministries: %w", err)
	}
	return out, nil
}
