package models

import (
	"time"

	"custodian/internal/cipher"
	"custodian/pkg/domain"
)

// ValidateCreate checks a normalized creation payload. A name is required,
// every other field follows the update rules.
func (p *Patch) ValidateCreate() error {
	if !p.Name.Set {
		p.Name = Null[string]()
	}
	return p.Validate()
}

// NewSubject builds a subject from a validated creation payload. Sensitive
// values are sealed with c. The status defaults to ACTIVE and is applied
// without retention consequences; the caller owns those.
func (p *Patch) NewSubject(c cipher.Cipher, now time.Time) (*Subject, error) {
	s := &Subject{
		ID:        domain.NewSubjectID(),
		Status:    StatusActive,
		CreatedAt: now,
	}
	if err := p.Apply(s, c, now); err != nil {
		return nil, err
	}
	return s, nil
}
