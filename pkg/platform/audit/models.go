package audit

import (
	"context"
	"time"

	"custodian/pkg/domain"
)

// Action names the sensitive operation an entry records. Call sites choose the
// action; the recorder never infers it.
type Action string

const (
	ActionCreate          Action = "CREATE"
	ActionView            Action = "VIEW"
	ActionUpdate          Action = "UPDATE"
	ActionDelete          Action = "DELETE"
	ActionDeleteRequest   Action = "DELETE_REQUEST"
	ActionDeleteCancelled Action = "DELETE_CANCELLED"
	ActionExport          Action = "EXPORT"
	ActionAccess          Action = "ACCESS"
	ActionConsentGranted  Action = "CONSENT_GRANTED"
	ActionConsentRevoked  Action = "CONSENT_REVOKED"
	ActionPurge           Action = "PURGE"
	ActionAnonymize       Action = "ANONYMIZE"
)

// Entity types referenced by audit entries.
const (
	EntityMember                     = "MEMBER"
	EntityMemberList                 = "MEMBER_LIST"
	EntityMemberPendingConsentReport = "MEMBER_PENDING_CONSENT_REPORT"
	EntityUserData                   = "USER_DATA"
	EntityConsent                    = "CONSENT"
)

// EventCategory classifies actions for routing downstream. Compliance events
// change or remove personal data; access events only read it.
type EventCategory string

const (
	CategoryCompliance EventCategory = "compliance"
	CategoryAccess     EventCategory = "access"
)

var actionCategories = map[Action]EventCategory{
	ActionCreate:          CategoryCompliance,
	ActionUpdate:          CategoryCompliance,
	ActionDelete:          CategoryCompliance,
	ActionDeleteRequest:   CategoryCompliance,
	ActionDeleteCancelled: CategoryCompliance,
	ActionConsentGranted:  CategoryCompliance,
	ActionConsentRevoked:  CategoryCompliance,
	ActionPurge:           CategoryCompliance,
	ActionAnonymize:       CategoryCompliance,
	ActionExport:          CategoryAccess,
	ActionView:            CategoryAccess,
	ActionAccess:          CategoryAccess,
}

// Category returns the routing category; unknown actions are access events.
func (a Action) Category() EventCategory {
	if c, ok := actionCategories[a]; ok {
		return c
	}
	return CategoryAccess
}

// Event is one immutable audit log entry. ActorID is nil for actions taken by
// the subject themself or by background jobs.
type Event struct {
	ID          domain.EventID
	ActorID     *domain.UserID
	ActorEmail  string
	Action      Action
	EntityType  string
	EntityID    string
	Description string
	Metadata    map[string]any
	IPAddress   string
	UserAgent   string
	RequestID   string
	CreatedAt   time.Time
}

// Store is append-only: there is no update or delete.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
