package models

import (
	"time"

	"custodian/pkg/domain"
)

type RequestType string

const (
	RequestTypeExport RequestType = "EXPORT"
	RequestTypeDelete RequestType = "DELETE"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Request tracks one export or deletion. EXPORT rows are born COMPLETED.
// DELETE rows start PENDING and leave it exactly once, either to COMPLETED
// when the sweep purges the subject or to CANCELLED when an operator restores it.
type Request struct {
	ID                  domain.DataRequestID
	SubjectID           domain.SubjectID
	Type                RequestType
	Status              Status
	ScheduledDeletionAt *time.Time
	CompletedAt         *time.Time
	// PreviousRetentionUntil is the deadline in force before the soft delete;
	// cancelling puts it back.
	PreviousRetentionUntil *time.Time
	IPAddress              string
	UserAgent              string
	Notes                  *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// Cancellable reports whether a pending deletion is still inside its grace period.
func (r *Request) Cancellable(now time.Time) bool {
	return r.Type == RequestTypeDelete &&
		r.IsPending() &&
		r.ScheduledDeletionAt != nil &&
		now.Before(*r.ScheduledDeletionAt)
}

// Response is the wire shape of a request.
type Response struct {
	ID                  string     `json:"id"`
	RequestType         string     `json:"requestType"`
	Status              string     `json:"status"`
	ScheduledDeletionAt *time.Time `json:"scheduledDeletionAt"`
	CompletedAt         *time.Time `json:"completedAt"`
	Notes               *string    `json:"notes"`
	CreatedAt           time.Time  `json:"createdAt"`
}

func ToResponse(r *Request) Response {
	return Response{
		ID:                  r.ID.String(),
		RequestType:         string(r.Type),
		Status:              string(r.Status),
		ScheduledDeletionAt: r.ScheduledDeletionAt,
		CompletedAt:         r.CompletedAt,
		Notes:               r.Notes,
		CreatedAt:           r.CreatedAt,
	}
}

func ToResponses(rs []*Request) []Response {
	out := make([]Response, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToResponse(r))
	}
	return out
}
