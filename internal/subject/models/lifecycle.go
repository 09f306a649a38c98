package models

import (
	"time"

	"custodian/internal/cipher"
)

const (
	anonymizedNamePrefix = "[ANONIMIZADO] "
	anonymizedNotes      = "[Dados anonimizados conforme LGPD]"
)

// Anonymize irreversibly replaces identifying attributes. Name, email, phone
// and the identity numbers become short hashes; the remaining contact fields
// are cleared. The id survives so audit history keeps resolving.
func (s *Subject) Anonymize(now time.Time) {
	s.Name = anonymizedNamePrefix + cipher.Anonymize(s.Name)
	s.Email = hashed(s.Email)
	s.Phone = hashed(s.Phone)
	s.NationalID = cipher.SensitiveField{Value: hashed(s.NationalID.Value)}
	s.SecondaryID = cipher.SensitiveField{Value: hashed(s.SecondaryID.Value)}
	s.Phone2 = nil
	s.Address = nil
	s.City = nil
	s.State = nil
	s.ZipCode = nil
	s.BirthDate = nil
	s.EmergencyContact = nil
	s.EmergencyPhone = nil
	notes := anonymizedNotes
	s.Notes = &notes
	s.DataConsent = false
	s.ConsentDate = nil
	s.Anonymized = true
	s.AnonymizedAt = &now
	s.UpdatedAt = now
}

// MarkDeleted hides the subject and schedules its purge.
func (s *Subject) MarkDeleted(now, purgeAt time.Time) {
	s.DeletedAt = &now
	s.RetentionUntil = &purgeAt
	s.UpdatedAt = now
}

// Restore reverses a soft delete, putting back the retention deadline that was
// in force before it.
func (s *Subject) Restore(previousRetention *time.Time, now time.Time) {
	s.DeletedAt = nil
	s.RetentionUntil = cloneTime(previousRetention)
	s.UpdatedAt = now
}

func hashed(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	h := cipher.Anonymize(*v)
	return &h
}
