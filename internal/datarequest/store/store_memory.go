package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"custodian/internal/datarequest/models"
	"custodian/pkg/domain"
	"custodian/pkg/platform/sentinel"
)

// InMemory mirrors the postgres store's guarantees: at most one pending
// DELETE per subject, and transitions out of PENDING happen once.
type InMemory struct {
	mu       sync.RWMutex
	requests map[domain.DataRequestID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[domain.DataRequestID]*models.Request)}
}

func (s *InMemory) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	if req.Type == models.RequestTypeDelete && req.IsPending() {
		for _, r := range s.requests {
			if r.SubjectID == req.SubjectID && r.Type == models.RequestTypeDelete && r.IsPending() {
				return sentinel.ErrConflict
			}
		}
	}
	s.requests[req.ID] = clone(req)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.DataRequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemory) FindPendingDelete(_ context.Context, subjectID domain.SubjectID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.SubjectID == subjectID && r.Type == models.RequestTypeDelete && r.IsPending() {
			return clone(r), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ListBySubject returns the subject's requests, newest first.
func (s *InMemory) ListBySubject(_ context.Context, subjectID domain.SubjectID) ([]*models.Request, error) {
	return s.filter(func(r *models.Request) bool {
		return r.SubjectID == subjectID
	}), nil
}

// ListDueDeletions returns pending deletions whose grace period ended at or before now.
func (s *InMemory) ListDueDeletions(_ context.Context, now time.Time) ([]*models.Request, error) {
	out := s.filter(func(r *models.Request) bool {
		return r.Type == models.RequestTypeDelete &&
			r.IsPending() &&
			r.ScheduledDeletionAt != nil &&
			!r.ScheduledDeletionAt.After(now)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledDeletionAt.Before(*out[j].ScheduledDeletionAt)
	})
	return out, nil
}

// TransitionFromPending moves a PENDING request to the given status. It
// returns sentinel.ErrConflict when the request already left PENDING, which
// is how concurrent sweeps detect they lost the claim.
func (s *InMemory) TransitionFromPending(_ context.Context, id domain.DataRequestID, to models.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !r.IsPending() {
		return sentinel.ErrConflict
	}
	r.Status = to
	r.UpdatedAt = at
	if to == models.StatusCompleted {
		r.CompletedAt = &at
	}
	return nil
}

func (s *InMemory) filter(keep func(*models.Request) bool) []*models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, clone(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func clone(r *models.Request) *models.Request {
	c := *r
	c.ScheduledDeletionAt = cloneTime(r.ScheduledDeletionAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	c.PreviousRetentionUntil = cloneTime(r.PreviousRetentionUntil)
	if r.Notes != nil {
		n := *r.Notes
		c.Notes = &n
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
