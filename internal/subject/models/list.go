package models

import (
	"time"

	"custodian/pkg/domain"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// EncryptedPlaceholder stands in for identity numbers in listings, which
	// never decrypt.
	EncryptedPlaceholder = "[CRIPTOGRAFADO]"
)

// ListFilter selects a page of live subjects. Page is 1-based.
type ListFilter struct {
	Page   int
	Limit  int
	Search string
}

// Window returns the clamped limit and the row offset of the page.
func (f ListFilter) Window() (limit, offset int) {
	limit = f.Limit
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// ListItem is a subject as shown in listings. Encrypted identity numbers are
// replaced by EncryptedPlaceholder.
type ListItem struct {
	ID             domain.SubjectID `json:"id"`
	Name           string           `json:"name"`
	Email          *string          `json:"email"`
	Phone          *string          `json:"phone"`
	City           *string          `json:"city"`
	Status         Status           `json:"status"`
	NationalID     *string          `json:"nationalId"`
	SecondaryID    *string          `json:"secondaryId"`
	DataConsent    bool             `json:"dataConsent"`
	Anonymized     bool             `json:"anonymized"`
	RetentionUntil *time.Time       `json:"retentionUntil"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// NewListItem masks s for a listing.
func NewListItem(s *Subject) ListItem {
	return ListItem{
		ID:             s.ID,
		Name:           s.Name,
		Email:          s.Email,
		Phone:          s.Phone,
		City:           s.City,
		Status:         s.Status,
		NationalID:     masked(s.NationalID.Value, s.NationalID.Encrypted),
		SecondaryID:    masked(s.SecondaryID.Value, s.SecondaryID.Encrypted),
		DataConsent:    s.DataConsent,
		Anonymized:     s.Anonymized,
		RetentionUntil: s.RetentionUntil,
		CreatedAt:      s.CreatedAt,
	}
}

func masked(v *string, encrypted bool) *string {
	if v == nil || !encrypted {
		return cloneString(v)
	}
	p := EncryptedPlaceholder
	return &p
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of a subject listing.
type Page struct {
	Data       []ListItem `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination derives the page count from the total.
func NewPagination(f ListFilter, total int) Pagination {
	limit, offset := f.Window()
	pages := (total + limit - 1) / limit
	return Pagination{Page: offset/limit + 1, Limit: limit, Total: total, TotalPages: pages}
}
