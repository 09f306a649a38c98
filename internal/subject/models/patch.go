package models

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"custodian/internal/cipher"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/email"
)

// Optional distinguishes a field that was not supplied from one explicitly
// set to null. Set is true whenever the key was present in the payload.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Some returns a supplied, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null returns a field explicitly cleared by the caller.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Valid = false
		var zero T
		o.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// Ptr returns the value as a pointer, nil when null.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// Patch is a partial update of a subject. Absent fields leave the stored value
// untouched; null clears it.
type Patch struct {
	Name             Optional[string] `json:"name"`
	Email            Optional[string] `json:"email"`
	Phone            Optional[string] `json:"phone"`
	Phone2           Optional[string] `json:"phone2"`
	Address          Optional[string] `json:"address"`
	City             Optional[string] `json:"city"`
	State            Optional[string] `json:"state"`
	ZipCode          Optional[string] `json:"zipCode"`
	BirthDate        Optional[string] `json:"birthDate"`
	Status           Optional[string] `json:"status"`
	NationalID       Optional[string] `json:"nationalId"`
	SecondaryID      Optional[string] `json:"secondaryId"`
	EmergencyContact Optional[string] `json:"emergencyContact"`
	EmergencyPhone   Optional[string] `json:"emergencyPhone"`
	Notes            Optional[string] `json:"notes"`
}

var (
	zipPattern    = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	nationalIDLen = regexp.MustCompile(`^\d{11}$`)
)

// Normalize trims strings, turns blanks into null, strips national id
// punctuation and upper-cases the state.
func (p *Patch) Normalize() {
	for _, f := range []*Optional[string]{
		&p.Name, &p.Email, &p.Phone, &p.Phone2, &p.Address, &p.City, &p.State,
		&p.ZipCode, &p.BirthDate, &p.Status, &p.NationalID, &p.SecondaryID,
		&p.EmergencyContact, &p.EmergencyPhone, &p.Notes,
	} {
		blankToNull(f)
	}
	if p.NationalID.Valid {
		p.NationalID.Value = strings.NewReplacer(".", "", "-", "").Replace(p.NationalID.Value)
		blankToNull(&p.NationalID)
	}
	if p.State.Valid {
		p.State.Value = strings.ToUpper(p.State.Value)
	}
	if p.Email.Valid {
		p.Email.Value = email.Normalize(p.Email.Value)
	}
	if p.Status.Valid {
		p.Status.Value = strings.ToUpper(p.Status.Value)
	}
}

func blankToNull(f *Optional[string]) {
	if !f.Valid {
		return
	}
	f.Value = strings.TrimSpace(f.Value)
	if f.Value == "" {
		f.Valid = false
	}
}

// Validate checks a normalized patch and reports every problem at once.
func (p *Patch) Validate() error {
	fields := map[string]string{}
	if p.Name.Set {
		n := utf8.RuneCountInString(p.Name.Value)
		switch {
		case !p.Name.Valid:
			fields["name"] = "name is required"
		case n < 3:
			fields["name"] = "name must have at least 3 characters"
		case n > 100:
			fields["name"] = "name must have at most 100 characters"
		}
	}
	if p.Email.Valid && !email.Valid(p.Email.Value) {
		fields["email"] = "invalid email"
	}
	if p.NationalID.Valid && !nationalIDLen.MatchString(p.NationalID.Value) {
		fields["nationalId"] = "national id must have 11 digits"
	}
	if p.ZipCode.Valid && !zipPattern.MatchString(p.ZipCode.Value) {
		fields["zipCode"] = "invalid zip code"
	}
	if p.State.Valid && utf8.RuneCountInString(p.State.Value) > 2 {
		fields["state"] = "state must have 2 characters"
	}
	if p.Status.Set {
		if !p.Status.Valid {
			fields["status"] = "status is required"
		} else if !Status(p.Status.Value).IsValid() {
			fields["status"] = "unknown status"
		}
	}
	if p.BirthDate.Valid {
		if _, err := parseDate(p.BirthDate.Value); err != nil {
			fields["birthDate"] = "birth date must be YYYY-MM-DD"
		}
	}
	if len(fields) > 0 {
		return dErrors.Validation(fields)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return !(p.Name.Set || p.Email.Set || p.Phone.Set || p.Phone2.Set || p.Address.Set ||
		p.City.Set || p.State.Set || p.ZipCode.Set || p.BirthDate.Set || p.Status.Set ||
		p.NationalID.Set || p.SecondaryID.Set || p.EmergencyContact.Set ||
		p.EmergencyPhone.Set || p.Notes.Set)
}

// Apply merges a validated patch into s. Supplied sensitive values are sealed
// with c and their flag set in the same assignment. Status transitions are
// not applied here; the caller owns the retention consequences.
func (p *Patch) Apply(s *Subject, c cipher.Cipher, now time.Time) error {
	if p.Name.Valid {
		s.Name = p.Name.Value
	}
	applyString(&s.Email, p.Email)
	applyString(&s.Phone, p.Phone)
	applyString(&s.Phone2, p.Phone2)
	applyString(&s.Address, p.Address)
	applyString(&s.City, p.City)
	applyString(&s.State, p.State)
	applyString(&s.ZipCode, p.ZipCode)
	applyString(&s.EmergencyContact, p.EmergencyContact)
	applyString(&s.EmergencyPhone, p.EmergencyPhone)
	applyString(&s.Notes, p.Notes)
	if p.BirthDate.Set {
		s.BirthDate = nil
		if p.BirthDate.Valid {
			d, err := parseDate(p.BirthDate.Value)
			if err != nil {
				return dErrors.Validation(map[string]string{"birthDate": "birth date must be YYYY-MM-DD"})
			}
			s.BirthDate = &d
		}
	}
	if p.NationalID.Set {
		f, err := cipher.Seal(c, p.NationalID.Ptr())
		if err != nil {
			return err
		}
		s.NationalID = f
	}
	if p.SecondaryID.Set {
		f, err := cipher.Seal(c, p.SecondaryID.Ptr())
		if err != nil {
			return err
		}
		s.SecondaryID = f
	}
	s.UpdatedAt = now
	return nil
}

// NewStatus returns the requested status when the patch changes it.
func (p *Patch) NewStatus() (Status, bool) {
	if !p.Status.Valid {
		return "", false
	}
	return Status(p.Status.Value), true
}

func applyString(dst **string, o Optional[string]) {
	if o.Set {
		*dst = o.Ptr()
	}
}

func parseDate(v string) (time.Time, error) {
	if d, err := time.Parse(DateLayout, v); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
