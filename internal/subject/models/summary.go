package models

import (
	"time"

	"custodian/pkg/domain"
)

// AccessSummary is what a subject sees when asking which data is held about
// them. It carries counts, not the related records themselves.
type AccessSummary struct {
	Member     MemberSummary `json:"member"`
	AccessDate time.Time     `json:"accessDate"`
}

type MemberSummary struct {
	ID                  domain.SubjectID `json:"id"`
	Name                string           `json:"name"`
	Email               *string          `json:"email"`
	Phone               *string          `json:"phone"`
	Status              Status           `json:"status"`
	DataConsent         bool             `json:"dataConsent"`
	ConsentDate         *time.Time       `json:"consentDate"`
	ConsentRevokedAt    *time.Time       `json:"consentRevokedAt"`
	DonationsCount      int              `json:"donationsCount"`
	MinistriesCount     int              `json:"ministriesCount"`
	ConsentsCount       int              `json:"consentsCount"`
	DataRequestsCount   int              `json:"dataRequestsCount"`
	RetentionUntil      *time.Time       `json:"retentionUntil"`
	ScheduledDeletionAt *time.Time       `json:"scheduledDeletionAt,omitempty"`
}
