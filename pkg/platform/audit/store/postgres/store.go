package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"custodian/pkg/domain"
	audit "custodian/pkg/platform/audit"
)

// Store persists audit entries in the append-only audit_log table.
//
// Appends always use the pool, never a transaction carried in ctx: a failed
// audit insert inside a caller's transaction would abort the primary write.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts the event. Re-delivery of the same event id is ignored.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var metadata []byte
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	var actorID *uuid.UUID
	if event.ActorID != nil {
		u := uuid.UUID(*event.ActorID)
		actorID = &u
	}

	query := `
		INSERT INTO audit_log (
			id, actor_id, actor_email, action, entity_type, entity_id,
			description, metadata, ip_address, user_agent, request_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(event.ID),
		actorID,
		nullString(event.ActorEmail),
		string(event.Action),
		event.EntityType,
		nullString(event.EntityID),
		event.Description,
		metadata,
		event.IPAddress,
		event.UserAgent,
		nullString(event.RequestID),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, actor_id, actor_email, action, entity_type, entity_id,
	       description, metadata, ip_address, user_agent, request_id, created_at
	FROM audit_log
`

// ListByEntity returns events for one entity, newest first.
func (s *Store) ListByEntity(ctx context.Context, entityType, entityID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at DESC`,
		entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event      audit.Event
			id         uuid.UUID
			actorID    *uuid.UUID
			actorEmail sql.NullString
			action     string
			entityID   sql.NullString
			metadata   []byte
			requestID  sql.NullString
		)
		err := rows.Scan(
			&id,
			&actorID,
			&actorEmail,
			&action,
			&event.EntityType,
			&entityID,
			&event.Description,
			&metadata,
			&event.IPAddress,
			&event.UserAgent,
			&requestID,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = domain.EventID(id)
		if actorID != nil {
			uid := domain.UserID(*actorID)
			event.ActorID = &uid
		}
		event.ActorEmail = actorEmail.String
		event.Action = audit.Action(action)
		event.EntityID = entityID.String
		event.RequestID = requestID.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
