package store

import (
	"context"
	"sort"
	"sync"

	"custodian/internal/records/models"
	"custodian/pkg/domain"
)

// InMemory holds related collections for tests and database-less runs.
type InMemory struct {
	mu         sync.RWMutex
	donations  map[domain.SubjectID][]models.Donation
	ministries map[domain.SubjectID][]models.MinistryMembership
}

func NewInMemory() *InMemory {
	return &InMemory{
		donations:  make(map[domain.SubjectID][]models.Donation),
		ministries: make(map[domain.SubjectID][]models.MinistryMembership),
	}
}

func (s *InMemory) AddDonation(d models.Donation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations[d.SubjectID] = append(s.donations[d.SubjectID], d)
}

func (s *InMemory) AddMinistry(m models.MinistryMembership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ministries[m.SubjectID] = append(s.ministries[m.SubjectID], m)
}

// ListDonations returns the subject's donations, newest first.
func (s *InMemory) ListDonations(_ context.Context, subjectID domain.SubjectID) ([]models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Donation(nil), s.donations[subjectID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DonatedAt.After(out[j].DonatedAt)
	})
	return out, nil
}

func (s *InMemory) ListMinistries(_ context.Context, subjectID domain.SubjectID) ([]models.MinistryMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MinistryMembership(nil), s.ministries[subjectID]...), nil
}
