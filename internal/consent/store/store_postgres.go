package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"custodian/internal/consent/models"
	"custodian/pkg/domain"
	"custodian/pkg/platform/sentinel"
	txcontext "custodian/pkg/platform/tx"
)

// PostgresStore persists the ledger in consent_records.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, record *models.Record) error {
	query := `
		INSERT INTO consent_records (id, member_id, consent_type, created_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.SubjectID),
		string(record.Type),
		record.CreatedAt,
		record.RevokedAt,
	)
	if err != nil {
		return fmt.Errorf("append consent record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*models.Record, error) {
	query := `
		SELECT id, member_id, consent_type, created_at, revoked_at
		FROM consent_records
		WHERE member_id = $1
		ORDER BY created_at DESC
	`
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, query, uuid.UUID(subjectID))
	if err != nil {
		return nil, fmt.Errorf("list consent records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consent record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consent records: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Latest(ctx context.Context, subjectID domain.SubjectID, consentType models.ConsentType) (*models.Record, error) {
	query := `
		SELECT id, member_id, consent_type, created_at, revoked_at
		FROM consent_records
		WHERE member_id = $1 AND consent_type = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.one(ctx, "latest consent record", query, uuid.UUID(subjectID), string(consentType))
}

func (s *PostgresStore) LatestRevocation(ctx context.Context, subjectID domain.SubjectID) (*models.Record, error) {
	query := `
		SELECT id, member_id, consent_type, created_at, revoked_at
		FROM consent_records
		WHERE member_id = $1 AND revoked_at IS NOT NULL
		ORDER BY revoked_at DESC
		LIMIT 1
	`
	return s.one(ctx, "latest consent revocation", query, uuid.UUID(subjectID))
}

func (s *PostgresStore) DeleteBySubject(ctx context.Context, subjectID domain.SubjectID) error {
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM consent_records WHERE member_id = $1`, uuid.UUID(subjectID))
	if err != nil {
		return fmt.Errorf("delete consent records: %w", err)
	}
	return nil
}

func (s *PostgresStore) one(ctx context.Context, op, query string, args ...any) (*models.Record, error) {
	r, err := scanRecord(txcontext.Conn(ctx, s.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var (
		r             models.Record
		id, subjectID uuid.UUID
		consentType   string
		revokedAt     sql.NullTime
	)
	if err := row.Scan(&id, &subjectID, &consentType, &r.CreatedAt, &revokedAt); err != nil {
		return nil, err
	}
	r.ID = domain.ConsentID(id)
	r.SubjectID = domain.SubjectID(subjectID)
	r.Type = models.ConsentType(consentType)
	if revokedAt.Valid {
		t := revokedAt.Time
		r.RevokedAt = &t
	}
	return &r, nil
}
