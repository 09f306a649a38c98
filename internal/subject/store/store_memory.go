package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"custodian/internal/subject/models"
	"custodian/pkg/domain"
	"custodian/pkg/platform/sentinel"
)

// InMemory is the subject store used by tests and database-less runs.
// Every read and write copies the record, so callers never alias stored state.
type InMemory struct {
	mu       sync.RWMutex
	subjects map[domain.SubjectID]*models.Subject
}

func NewInMemory() *InMemory {
	return &InMemory{subjects: make(map[domain.SubjectID]*models.Subject)}
}

// FindByID returns the subject including tombstones; callers filter deletions.
func (s *InMemory) FindByID(_ context.Context, id domain.SubjectID) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subjects[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return sub.Clone(), nil
}

// FindByIDForUpdate is FindByID. Callers running under tx.ShardedRunner are
// already serialized per subject.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, id domain.SubjectID) (*models.Subject, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemory) FindByIDs(_ context.Context, ids []domain.SubjectID) ([]*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Subject, 0, len(ids))
	for _, id := range ids {
		if sub, ok := s.subjects[id]; ok {
			out = append(out, sub.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) Create(_ context.Context, sub *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subjects[sub.ID]; exists {
		return sentinel.ErrConflict
	}
	s.subjects[sub.ID] = sub.Clone()
	return nil
}

// Save replaces the stored row in one step.
func (s *InMemory) Save(_ context.Context, sub *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subjects[sub.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.subjects[sub.ID] = sub.Clone()
	return nil
}

// ListLive pages through subjects that are not soft deleted, newest first.
func (s *InMemory) ListLive(_ context.Context, filter models.ListFilter) ([]*models.Subject, int, error) {
	search := strings.ToLower(filter.Search)
	live := s.filter(func(sub *models.Subject) bool {
		if sub.IsDeleted() {
			return false
		}
		if search == "" {
			return true
		}
		return strings.Contains(strings.ToLower(sub.Name), search) ||
			(sub.Email != nil && strings.Contains(strings.ToLower(*sub.Email), search))
	})
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].CreatedAt.After(live[j].CreatedAt)
	})

	limit, offset := filter.Window()
	total := len(live)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return live[offset:end], total, nil
}

func (s *InMemory) ListPendingConsent(_ context.Context) ([]*models.Subject, error) {
	return s.filter(func(sub *models.Subject) bool {
		return !sub.DataConsent && !sub.IsDeleted() && !sub.Anonymized
	}), nil
}

// ListExpiredInactive returns live INACTIVE subjects whose retention deadline has passed.
func (s *InMemory) ListExpiredInactive(_ context.Context, now time.Time) ([]*models.Subject, error) {
	return s.filter(func(sub *models.Subject) bool {
		return sub.Status == models.StatusInactive &&
			!sub.IsDeleted() &&
			!sub.Anonymized &&
			sub.RetentionUntil != nil &&
			!sub.RetentionUntil.After(now)
	}), nil
}

func (s *InMemory) ListLegacyPlaintext(_ context.Context, limit int) ([]*models.Subject, error) {
	out := s.filter(func(sub *models.Subject) bool {
		return sub.HasLegacyPlaintext()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) filter(keep func(*models.Subject) bool) []*models.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Subject
	for _, sub := range s.subjects {
		if keep(sub) {
			out = append(out, sub.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
