package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"custodian/internal/datarequest/models"
	"custodian/pkg/domain"
	"custodian/pkg/platform/sentinel"
	txcontext "custodian/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists requests in data_requests. A partial unique index
// enforces a single pending DELETE per subject.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `
	id, member_id, request_type, status, scheduled_deletion_at, completed_at,
	previous_retention_until, ip_address, user_agent, notes, created_at, updated_at
`

func (s *PostgresStore) Create(ctx context.Context, req *models.Request) error {
	query := `INSERT INTO data_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(req.ID),
		uuid.UUID(req.SubjectID),
		string(req.Type),
		string(req.Status),
		req.ScheduledDeletionAt,
		req.CompletedAt,
		req.PreviousRetentionUntil,
		req.IPAddress,
		req.UserAgent,
		req.Notes,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create data request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DataRequestID) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM data_requests WHERE id = $1`
	return s.one(ctx, "find data request", query, uuid.UUID(id))
}

func (s *PostgresStore) FindPendingDelete(ctx context.Context, subjectID domain.SubjectID) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM data_requests
		WHERE member_id = $1 AND request_type = 'DELETE' AND status = 'PENDING'
		ORDER BY created_at DESC
		LIMIT 1`
	return s.one(ctx, "find pending delete", query, uuid.UUID(subjectID))
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM data_requests
		WHERE member_id = $1
		ORDER BY created_at DESC`
	return s.list(ctx, "list data requests", query, uuid.UUID(subjectID))
}

func (s *PostgresStore) ListDueDeletions(ctx context.Context, now time.Time) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM data_requests
		WHERE request_type = 'DELETE' AND status = 'PENDING' AND scheduled_deletion_at <= $1
		ORDER BY scheduled_deletion_at`
	return s.list(ctx, "list due deletions", query, now)
}

// TransitionFromPending is a conditional update: only a row still PENDING
// changes, so two sweeps racing for the same request cannot both win.
func (s *PostgresStore) TransitionFromPending(ctx context.Context, id domain.DataRequestID, to models.Status, at time.Time) error {
	var completedAt *time.Time
	if to == models.StatusCompleted {
		completedAt = &at
	}
	query := `
		UPDATE data_requests
		SET status = $2, completed_at = COALESCE($3, completed_at), updated_at = $4
		WHERE id = $1 AND status = 'PENDING'
	`
	res, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query, uuid.UUID(id), string(to), completedAt, at)
	if err != nil {
		return fmt.Errorf("transition data request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition data request: %w", err)
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) one(ctx context.Context, op, query string, args ...any) (*models.Request, error) {
	r, err := scanRequest(txcontext.Conn(ctx, s.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func (s *PostgresStore) list(ctx context.Context, op, query string, args ...any) ([]*models.Request, error) {
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.Request, error) {
	var (
		r                                   models.Request
		id, subjectID                       uuid.UUID
		reqType, status                     string
		scheduled, completed, prevRetention sql.NullTime
		ip, ua, notes                       sql.NullString
	)
	err := row.Scan(&id, &subjectID, &reqType, &status, &scheduled, &completed,
		&prevRetention, &ip, &ua, &notes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = domain.DataRequestID(id)
	r.SubjectID = domain.SubjectID(subjectID)
	r.Type = models.RequestType(reqType)
	r.Status = models.Status(status)
	r.ScheduledDeletionAt = nullTime(scheduled)
	r.CompletedAt = nullTime(completed)
	r.PreviousRetentionUntil = nullTime(prevRetention)
	r.IPAddress = ip.String
	r.UserAgent = ua.String
	if notes.Valid {
		r.Notes = &notes.String
	}
	return &r, nil
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}
