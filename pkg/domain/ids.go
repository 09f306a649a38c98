// Package domain holds identifier types shared across bounded contexts.
//
// Each identifier is a distinct named uuid.UUID so a SubjectID can never be
// passed where a UserID is expected. Parse functions are the only trusted
// way to turn external input into an identifier.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "custodian/pkg/domain-errors"
)

// SubjectID identifies the natural person whose data is managed.
type SubjectID uuid.UUID

// UserID identifies an operator account acting on subjects.
type UserID uuid.UUID

// ConsentID identifies a consent ledger row.
type ConsentID uuid.UUID

// DataRequestID identifies an EXPORT or DELETE request.
type DataRequestID uuid.UUID

// EventID identifies an audit log entry.
type EventID uuid.UUID

func (id SubjectID) String() string     { return uuid.UUID(id).String() }
func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id ConsentID) String() string     { return uuid.UUID(id).String() }
func (id DataRequestID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string       { return uuid.UUID(id).String() }

func (id SubjectID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ConsentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DataRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

func NewSubjectID() SubjectID         { return SubjectID(uuid.New()) }
func NewConsentID() ConsentID         { return ConsentID(uuid.New()) }
func NewDataRequestID() DataRequestID { return DataRequestID(uuid.New()) }
func NewEventID() EventID             { return EventID(uuid.New()) }

func ParseSubjectID(s string) (SubjectID, error) {
	u, err := parseUUID(s, "subject id")
	return SubjectID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParseConsentID(s string) (ConsentID, error) {
	u, err := parseUUID(s, "consent id")
	return ConsentID(u), err
}

func ParseDataRequestID(s string) (DataRequestID, error) {
	u, err := parseUUID(s, "data request id")
	return DataRequestID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event id")
	return EventID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, what+" must not be nil")
	}
	return u, nil
}
