package models

import (
	"time"

	"custodian/pkg/domain"
)

// ConsentType names what the subject consents to. Only data processing exists today.
type ConsentType string

const ConsentTypeDataProcessing ConsentType = "DATA_PROCESSING"

// Record is one ledger row. A grant has no RevokedAt; a revocation is a new
// row with RevokedAt set. Rows are never edited after creation.
type Record struct {
	ID        domain.ConsentID
	SubjectID domain.SubjectID
	Type      ConsentType
	CreatedAt time.Time
	RevokedAt *time.Time
}

// IsRevocation reports whether the row records a withdrawal.
func (r *Record) IsRevocation() bool {
	return r.RevokedAt != nil
}

// IsOpenGrant reports whether the row is a grant that no later row has closed.
// Callers pass the newest row of the ledger.
func (r *Record) IsOpenGrant() bool {
	return r != nil && r.RevokedAt == nil
}

// Status is the derived consent view: current flag and date come from the
// subject, the last revocation from the ledger.
type Status struct {
	Granted   bool       `json:"granted"`
	GrantedAt *time.Time `json:"grantedAt"`
	RevokedAt *time.Time `json:"revokedAt"`
}

// PendingSubject is one line of the pending-consent report.
type PendingSubject struct {
	ID        domain.SubjectID `json:"id"`
	Name      string           `json:"name"`
	Email     *string          `json:"email"`
	Phone     *string          `json:"phone"`
	CreatedAt time.Time        `json:"createdAt"`
}

// RecordResponse is the wire shape of a ledger row.
type RecordResponse struct {
	ID          string     `json:"id"`
	ConsentType string     `json:"consentType"`
	CreatedAt   time.Time  `json:"createdAt"`
	RevokedAt   *time.Time `json:"revokedAt"`
}

func ToRecordResponse(r *Record) RecordResponse {
	return RecordResponse{
		ID:          r.ID.String(),
		ConsentType: string(r.Type),
		CreatedAt:   r.CreatedAt,
		RevokedAt:   r.RevokedAt,
	}
}

// GrantRequest is the self-service consent payload.
type GrantRequest struct {
	Granted *bool `json:"granted"`
}
