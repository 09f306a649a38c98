package models

import (
	"fmt"
	"strings"
	"time"

	"custodian/internal/cipher"
	"custodian/pkg/domain"
)

// Status is the membership status of a subject. It is independent of consent.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusVisitor   Status = "VISITOR"
	StatusLeader    Status = "LEADER"
	StatusVolunteer Status = "VOLUNTEER"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusVisitor, StatusLeader, StatusVolunteer:
		return true
	}
	return false
}

// ParseStatus accepts any casing of a known status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// Subject is the stored member record. NationalID and SecondaryID hold either
// ciphertext or legacy plaintext, as their flags say.
type Subject struct {
	ID               domain.SubjectID
	Name             string
	Email            *string
	Phone            *string
	Phone2           *string
	Address          *string
	City             *string
	State            *string
	ZipCode          *string
	BirthDate        *time.Time
	Status           Status
	NationalID       cipher.SensitiveField
	SecondaryID      cipher.SensitiveField
	EmergencyContact *string
	EmergencyPhone   *string
	Notes            *string
	DataConsent      bool
	ConsentDate      *time.Time
	DeletedAt        *time.Time
	RetentionUntil   *time.Time
	Anonymized       bool
	AnonymizedAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsDeleted reports whether the subject is a tombstone hidden from normal reads.
func (s *Subject) IsDeleted() bool {
	return s.DeletedAt != nil
}

// HasLegacyPlaintext reports whether any sensitive field still stores plaintext.
func (s *Subject) HasLegacyPlaintext() bool {
	return (!s.NationalID.IsZero() && !s.NationalID.Encrypted) ||
		(!s.SecondaryID.IsZero() && !s.SecondaryID.Encrypted)
}

// Clone returns a deep copy so stores never share pointers with callers.
func (s *Subject) Clone() *Subject {
	if s == nil {
		return nil
	}
	c := *s
	c.Email = cloneString(s.Email)
	c.Phone = cloneString(s.Phone)
	c.Phone2 = cloneString(s.Phone2)
	c.Address = cloneString(s.Address)
	c.City = cloneString(s.City)
	c.State = cloneString(s.State)
	c.ZipCode = cloneString(s.ZipCode)
	c.BirthDate = cloneTime(s.BirthDate)
	c.NationalID = cipher.SensitiveField{Value: cloneString(s.NationalID.Value), Encrypted: s.NationalID.Encrypted}
	c.SecondaryID = cipher.SensitiveField{Value: cloneString(s.SecondaryID.Value), Encrypted: s.SecondaryID.Encrypted}
	c.EmergencyContact = cloneString(s.EmergencyContact)
	c.EmergencyPhone = cloneString(s.EmergencyPhone)
	c.Notes = cloneString(s.Notes)
	c.ConsentDate = cloneTime(s.ConsentDate)
	c.DeletedAt = cloneTime(s.DeletedAt)
	c.RetentionUntil = cloneTime(s.RetentionUntil)
	c.AnonymizedAt = cloneTime(s.AnonymizedAt)
	return &c
}

// View is the decrypted representation returned to operators.
type View struct {
	ID               domain.SubjectID `json:"id"`
	Name             string           `json:"name"`
	Email            *string          `json:"email"`
	Phone            *string          `json:"phone"`
	Phone2           *string          `json:"phone2"`
	Address          *string          `json:"address"`
	City             *string          `json:"city"`
	State            *string          `json:"state"`
	ZipCode          *string          `json:"zipCode"`
	BirthDate        *string          `json:"birthDate"`
	Status           Status           `json:"status"`
	NationalID       *string          `json:"nationalId"`
	SecondaryID      *string          `json:"secondaryId"`
	EmergencyContact *string          `json:"emergencyContact"`
	EmergencyPhone   *string          `json:"emergencyPhone"`
	Notes            *string          `json:"notes"`
	DataConsent      bool             `json:"dataConsent"`
	ConsentDate      *time.Time       `json:"consentDate"`
	ConsentRevokedAt *time.Time       `json:"consentRevokedAt"`
	RetentionUntil   *time.Time       `json:"retentionUntil"`
	Anonymized       bool             `json:"anonymized"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`

	// FieldErrors names sensitive fields that could not be decrypted. The
	// rest of the view is still usable.
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// Reveal builds a View, decrypting each flagged field independently. A field
// that fails to decrypt is reported in FieldErrors and left nil; its siblings
// are unaffected. The first decryption error is also returned.
func Reveal(s *Subject, c cipher.Cipher) (*View, error) {
	v := &View{
		ID:               s.ID,
		Name:             s.Name,
		Email:            s.Email,
		Phone:            s.Phone,
		Phone2:           s.Phone2,
		Address:          s.Address,
		City:             s.City,
		State:            s.State,
		ZipCode:          s.ZipCode,
		Status:           s.Status,
		EmergencyContact: s.EmergencyContact,
		EmergencyPhone:   s.EmergencyPhone,
		Notes:            s.Notes,
		DataConsent:      s.DataConsent,
		ConsentDate:      s.ConsentDate,
		RetentionUntil:   s.RetentionUntil,
		Anonymized:       s.Anonymized,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.BirthDate != nil {
		d := s.BirthDate.Format(DateLayout)
		v.BirthDate = &d
	}

	var firstErr error
	reveal := func(name string, f cipher.SensitiveField) *string {
		pt, err := f.Reveal(c)
		if err != nil {
			if v.FieldErrors == nil {
				v.FieldErrors = map[string]string{}
			}
			v.FieldErrors[name] = "could not be decrypted"
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}
		return pt
	}
	v.NationalID = reveal("nationalId", s.NationalID)
	v.SecondaryID = reveal("secondaryId", s.SecondaryID)
	return v, firstErr
}

// DateLayout is the wire format of birth dates.
const DateLayout = "2006-01-02"

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
