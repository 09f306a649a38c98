package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"custodian/internal/subject/models"
	"custodian/pkg/domain"
	"custodian/pkg/platform/sentinel"
	txcontext "custodian/pkg/platform/tx"
)

// PostgresStore persists subjects in the members table. Queries run on the
// transaction carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const subjectColumns = `
	id, name, email, phone, phone2, address, city, state, zip_code, birth_date, status,
	national_id, national_id_encrypted, secondary_id, secondary_id_encrypted,
	emergency_contact, emergency_phone, notes, data_consent, consent_date,
	deleted_at, retention_until, anonymized, anonymized_at, created_at, updated_at
`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.SubjectID) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM members WHERE id = $1`
	return s.findOne(ctx, "find subject", query, id)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends, so a
// read-modify-write through Save cannot overwrite a concurrent commit. Outside
// a transaction the lock is released as soon as the statement finishes.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id domain.SubjectID) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM members WHERE id = $1 FOR UPDATE`
	return s.findOne(ctx, "find subject for update", query, id)
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, id domain.SubjectID) (*models.Subject, error) {
	sub, err := scanSubject(txcontext.Conn(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// FindByIDs loads a batch of subjects in one round trip. Missing ids are skipped.
func (s *PostgresStore) FindByIDs(ctx context.Context, ids []domain.SubjectID) ([]*models.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := `SELECT ` + subjectColumns + ` FROM members WHERE id = ANY($1::uuid[])`
	return s.list(ctx, "find subjects", query, pq.Array(raw))
}

func (s *PostgresStore) Create(ctx context.Context, sub *models.Subject) error {
	query := `
		INSERT INTO members (` + subjectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, $24, $25, $26)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query, rowArgs(sub)...)
	if err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// Save writes the whole row in a single UPDATE, so a sensitive value and its
// encryption flag, or deleted_at and retention_until, always change together.
func (s *PostgresStore) Save(ctx context.Context, sub *models.Subject) error {
	query := `
		UPDATE members SET
			name = $2, email = $3, phone = $4, phone2 = $5, address = $6, city = $7,
			state = $8, zip_code = $9, birth_date = $10, status = $11,
			national_id = $12, national_id_encrypted = $13,
			secondary_id = $14, secondary_id_encrypted = $15,
			emergency_contact = $16, emergency_phone = $17, notes = $18,
			data_consent = $19, consent_date = $20, deleted_at = $21,
			retention_until = $22, anonymized = $23, anonymized_at = $24,
			updated_at = $25
		WHERE id = $1
	`
	args := rowArgs(sub)
	args = append(args[:24], sub.UpdatedAt)
	res, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save subject: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ListLive pages through subjects that are not soft deleted, newest first.
// Search matches name or email case-insensitively.
func (s *PostgresStore) ListLive(ctx context.Context, filter models.ListFilter) ([]*models.Subject, int, error) {
	where := `deleted_at IS NULL`
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		where += ` AND (name ILIKE $1 OR email ILIKE $1)`
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM members WHERE ` + where
	if err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	limit, offset := filter.Window()
	query := fmt.Sprintf(`SELECT %s FROM members WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		subjectColumns, where, len(args)+1, len(args)+2)
	subjects, err := s.list(ctx, "list subjects", query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return subjects, total, nil
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

func (s *PostgresStore) ListPendingConsent(ctx context.Context) ([]*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM members
		WHERE data_consent = FALSE AND deleted_at IS NULL AND anonymized = FALSE
		ORDER BY name`
	return s.list(ctx, "list pending consent", query)
}

func (s *PostgresStore) ListExpiredInactive(ctx context.Context, now time.Time) ([]*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM members
		WHERE status = 'INACTIVE' AND deleted_at IS NULL AND anonymized = FALSE
		  AND retention_until IS NOT NULL AND retention_until <= $1
		ORDER BY retention_until`
	return s.list(ctx, "list expired inactive", query, now)
}

func (s *PostgresStore) ListLegacyPlaintext(ctx context.Context, limit int) ([]*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM members
		WHERE (national_id IS NOT NULL AND national_id <> '' AND national_id_encrypted = FALSE)
		   OR (secondary_id IS NOT NULL AND secondary_id <> '' AND secondary_id_encrypted = FALSE)
		ORDER BY created_at
		LIMIT $1`
	if limit <= 0 {
		limit = 1000
	}
	return s.list(ctx, "list legacy plaintext", query, limit)
}

func (s *PostgresStore) list(ctx context.Context, op, query string, args ...any) ([]*models.Subject, error) {
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Subject
	for rows.Next() {
		sub, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func rowArgs(sub *models.Subject) []any {
	return []any{
		uuid.UUID(sub.ID), sub.Name, sub.Email, sub.Phone, sub.Phone2, sub.Address,
		sub.City, sub.State, sub.ZipCode, sub.BirthDate, string(sub.Status),
		sub.NationalID.Value, sub.NationalID.Encrypted,
		sub.SecondaryID.Value, sub.SecondaryID.Encrypted,
		sub.EmergencyContact, sub.EmergencyPhone, sub.Notes,
		sub.DataConsent, sub.ConsentDate, sub.DeletedAt, sub.RetentionUntil,
		sub.Anonymized, sub.AnonymizedAt, sub.CreatedAt, sub.UpdatedAt,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubject(row scanner) (*models.Subject, error) {
	var (
		sub                                               models.Subject
		id                                                uuid.UUID
		status                                            string
		email, phone, phone2, address, city, state, zip   sql.NullString
		nationalID, secondaryID                           sql.NullString
		emergencyContact, emergencyPhone, notes           sql.NullString
		birthDate, consentDate, deletedAt, retention, anz sql.NullTime
	)
	err := row.Scan(
		&id, &sub.Name, &email, &phone, &phone2, &address, &city, &state, &zip, &birthDate, &status,
		&nationalID, &sub.NationalID.Encrypted, &secondaryID, &sub.SecondaryID.Encrypted,
		&emergencyContact, &emergencyPhone, &notes, &sub.DataConsent, &consentDate,
		&deletedAt, &retention, &sub.Anonymized, &anz, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.ID = domain.SubjectID(id)
	sub.Status = models.Status(status)
	sub.Email = nullString(email)
	sub.Phone = nullString(phone)
	sub.Phone2 = nullString(phone2)
	sub.Address = nullString(address)
	sub.City = nullString(city)
	sub.State = nullString(state)
	sub.ZipCode = nullString(zip)
	sub.NationalID.Value = nullString(nationalID)
	sub.SecondaryID.Value = nullString(secondaryID)
	sub.EmergencyContact = nullString(emergencyContact)
	sub.EmergencyPhone = nullString(emergencyPhone)
	sub.Notes = nullString(notes)
	sub.BirthDate = nullTime(birthDate)
	sub.ConsentDate = nullTime(consentDate)
	sub.DeletedAt = nullTime(deletedAt)
	sub.RetentionUntil = nullTime(retention)
	sub.AnonymizedAt = nullTime(anz)
	return &sub, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}
