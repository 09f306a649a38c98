// Package models holds the read-only collections related to a subject. They
// are maintained by other parts of the organization's system; this module
// only reads them for exports and access summaries.
package models

import (
	"time"

	"github.com/google/uuid"

	"custodian/pkg/domain"
)

type Donation struct {
	ID          uuid.UUID        `json:"id"`
	SubjectID   domain.SubjectID `json:"memberId"`
	Kind        string           `json:"kind"`
	AmountCents int64            `json:"amountCents"`
	DonatedAt   time.Time        `json:"donatedAt"`
	Description *string          `json:"description"`
}

type MinistryMembership struct {
	ID        uuid.UUID        `json:"id"`
	SubjectID domain.SubjectID `json:"memberId"`
	Ministry  string           `json:"ministry"`
	Role      *string          `json:"role"`
	JoinedAt  time.Time        `json:"joinedAt"`
}
