package store

import (
	"context"
	"sort"
	"sync"

	"custodian/internal/consent/models"
	"custodian/pkg/domain"
	"custodian/pkg/platform/sentinel"
)

// InMemory is an append-only consent ledger held in process memory.
type InMemory struct {
	mu      sync.RWMutex
	records map[domain.SubjectID][]models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[domain.SubjectID][]models.Record)}
}

func (s *InMemory) Append(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.SubjectID] = append(s.records[record.SubjectID], cloneRecord(*record))
	return nil
}

// ListBySubject returns the ledger newest first.
func (s *InMemory) ListBySubject(_ context.Context, subjectID domain.SubjectID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.records[subjectID]
	out := make([]*models.Record, 0, len(rows))
	for i := range rows {
		r := cloneRecord(rows[i])
		out = append(out, &r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Latest returns the newest row of the given type.
func (s *InMemory) Latest(ctx context.Context, subjectID domain.SubjectID, consentType models.ConsentType) (*models.Record, error) {
	rows, _ := s.ListBySubject(ctx, subjectID)
	for _, r := range rows {
		if r.Type == consentType {
			return r, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) LatestRevocation(ctx context.Context, subjectID domain.SubjectID) (*models.Record, error) {
	rows, _ := s.ListBySubject(ctx, subjectID)
	for _, r := range rows {
		if r.IsRevocation() {
			return r, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// DeleteBySubject drops the whole ledger. Only a purge calls it.
func (s *InMemory) DeleteBySubject(_ context.Context, subjectID domain.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, subjectID)
	return nil
}

func cloneRecord(r models.Record) models.Record {
	if r.RevokedAt != nil {
		t := *r.RevokedAt
		r.RevokedAt = &t
	}
	return r
}
