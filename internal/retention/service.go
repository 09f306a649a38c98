// Package retention owns the subject lifecycle after creation: the inactive
// retention window, soft deletion with its grace period, cancellation, and
// the sweep that anonymizes subjects whose deadline has passed.
package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	datarequest "custodian/internal/datarequest/models"
	"custodian/internal/notify"
	"custodian/internal/platform/metrics"
	"custodian/internal/platform/tracing"
	subjectmodels "custodian/internal/subject/models"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	audit "custodian/pkg/platform/audit"
	"custodian/pkg/platform/sentinel"
	"custodian/pkg/platform/tx"
	"custodian/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks SubjectStore,RequestStore,ConsentPurger,AuditPublisher,Notifier

type SubjectStore interface {
	FindByIDForUpdate(ctx context.Context, id domain.SubjectID) (*subjectmodels.Subject, error)
	FindByIDs(ctx context.Context, ids []domain.SubjectID) ([]*subjectmodels.Subject, error)
	Save(ctx context.Context, subject *subjectmodels.Subject) error
	ListExpiredInactive(ctx context.Context, now time.Time) ([]*subjectmodels.Subject, error)
}

type RequestStore interface {
	Create(ctx context.Context, req *datarequest.Request) error
	FindPendingDelete(ctx context.Context, subjectID domain.SubjectID) (*datarequest.Request, error)
	ListDueDeletions(ctx context.Context, now time.Time) ([]*datarequest.Request, error)
	TransitionFromPending(ctx context.Context, id domain.DataRequestID, to datarequest.Status, at time.Time) error
}

// ConsentPurger removes a purged subject's consent ledger.
type ConsentPurger interface {
	DeleteBySubject(ctx context.Context, subjectID domain.SubjectID) error
}

type AuditPublisher interface {
	Record(ctx context.Context, event audit.Event) error
}

type Notifier interface {
	DeletionScheduled(ctx context.Context, ev notify.DeletionScheduled) error
}

// SweepResult counts what one sweep did. Skipped counts claims lost to a
// concurrent sweep; those are expected and not errors.
type SweepResult struct {
	Purged     int `json:"purgedCount"`
	Anonymized int `json:"anonymized"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

var (
	errClaimLost = dErrors.New(dErrors.CodeConcurrentModification, "retention claim lost")

	// errPendingRace reports that another SoftDelete inserted the pending
	// request first.
	errPendingRace = errors.New("pending deletion created concurrently")
)

type Service struct {
	subjects SubjectStore
	requests RequestStore
	consents ConsentPurger
	audit    AuditPublisher
	notifier Notifier
	policy   Policy
	tx       tx.Runner
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithPolicy(p Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(subjects SubjectStore, requests RequestStore, consents ConsentPurger, auditPublisher AuditPublisher, opts ...Option) *Service {
	s := &Service{
		subjects: subjects,
		requests: requests,
		consents: consents,
		audit:    auditPublisher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewShardedRunner(0)
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger)
	}
	return s
}

// Policy exposes the windows so callers applying status changes use the same
// configuration as the sweep.
func (s *Service) Policy() Policy {
	return s.policy
}

// SoftDelete hides the subject and opens a DELETE request that the sweep will
// complete once the grace period ends. Deleting a subject that already has a
// pending deletion changes nothing and returns the existing deadline.
func (s *Service) SoftDelete(ctx context.Context, subjectID domain.SubjectID, actor domain.Actor, notes *string) (time.Time, error) {
	now := requestcontext.Now(ctx)

	var (
		sub            *subjectmodels.Subject
		req            *datarequest.Request
		alreadyPending bool
	)
	err := s.tx.RunInTx(tx.WithShardKey(ctx, subjectID.String()), func(txCtx context.Context) error {
		loaded, err := s.subjects.FindByIDForUpdate(txCtx, subjectID)
		if err != nil {
			return err
		}
		if loaded.Anonymized {
			return sentinel.ErrNotFound
		}
		if loaded.IsDeleted() {
			pending, err := s.requests.FindPendingDelete(txCtx, subjectID)
			if err != nil {
				return err
			}
			sub, req, alreadyPending = loaded, pending, true
			return nil
		}

		previous := cloneTime(loaded.RetentionUntil)
		purgeAt := s.policy.PurgeAt(now)
		created := &datarequest.Request{
			ID:                     domain.NewDataRequestID(),
			SubjectID:              subjectID,
			Type:                   datarequest.RequestTypeDelete,
			Status:                 datarequest.StatusPending,
			ScheduledDeletionAt:    &purgeAt,
			PreviousRetentionUntil: previous,
			IPAddress:              valueOr(requestcontext.ClientIP(ctx), "unknown"),
			UserAgent:              valueOr(requestcontext.UserAgent(ctx), "unknown"),
			Notes:                  notes,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		if err := s.requests.Create(txCtx, created); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return errPendingRace
			}
			return fmt.Errorf("create deletion request: %w", err)
		}
		loaded.MarkDeleted(now, purgeAt)
		if err := s.subjects.Save(txCtx, loaded); err != nil {
			return fmt.Errorf("save soft delete: %w", err)
		}
		sub, req = loaded, created
		return nil
	})
	if errors.Is(err, errPendingRace) {
		sub, req, err = s.existingDeletion(ctx, subjectID)
		alreadyPending = err == nil
	}
	if err != nil {
		return time.Time{}, wrapErr(err, "failed to delete subject")
	}
	scheduled := *req.ScheduledDeletionAt

	if !alreadyPending {
		s.metrics.IncSoftDelete()
		s.logger.InfoContext(ctx, "subject soft deleted",
			"subject_id", subjectID.String(),
			"data_request_id", req.ID.String(),
			"scheduled_deletion_at", scheduled,
			"request_id", requestcontext.RequestID(ctx),
		)
		if err := s.notifier.DeletionScheduled(ctx, notify.DeletionScheduled{
			SubjectID:           subjectID,
			RequestID:           req.ID,
			ScheduledDeletionAt: scheduled,
			SelfService:         actor.SelfService(),
			RequestedAt:         now,
		}); err != nil {
			s.logger.WarnContext(ctx, "deletion notification failed",
				"subject_id", subjectID.String(),
				"error", err,
			)
		}
	}

	action := audit.ActionDelete
	description := "Exclusão de membro (soft delete): " + sub.Name
	if actor.SelfService() {
		action = audit.ActionDeleteRequest
		description = "Solicitação de exclusão de dados (LGPD) por " + sub.Name
	}
	metadata := map[string]any{
		"softDelete":                 true,
		"scheduledPermanentDeletion": scheduled.Format(time.RFC3339),
		"dataRequestId":              req.ID.String(),
	}
	if alreadyPending {
		metadata["alreadyPending"] = true
	}
	if err := s.record(ctx, actor, sub, action, description, metadata); err != nil {
		return time.Time{}, err
	}
	return scheduled, nil
}

// CancelDeletion restores a soft-deleted subject while its grace period is
// still running. The retention deadline captured at deletion time comes back.
func (s *Service) CancelDeletion(ctx context.Context, subjectID domain.SubjectID, actor domain.Actor) error {
	now := requestcontext.Now(ctx)

	var (
		sub *subjectmodels.Subject
		req *datarequest.Request
	)
	err := s.tx.RunInTx(tx.WithShardKey(ctx, subjectID.String()), func(txCtx context.Context) error {
		loaded, err := s.subjects.FindByIDForUpdate(txCtx, subjectID)
		if err != nil {
			return err
		}
		if loaded.Anonymized {
			return sentinel.ErrNotFound
		}
		pending, err := s.requests.FindPendingDelete(txCtx, subjectID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "no pending deletion for subject")
			}
			return fmt.Errorf("load pending deletion: %w", err)
		}
		if !pending.Cancellable(now) {
			return dErrors.New(dErrors.CodeConflict, "grace period has ended")
		}
		if err := s.requests.TransitionFromPending(txCtx, pending.ID, datarequest.StatusCancelled, now); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConcurrentModification, "deletion request already processed")
			}
			return fmt.Errorf("cancel deletion request: %w", err)
		}
		loaded.Restore(pending.PreviousRetentionUntil, now)
		if err := s.subjects.Save(txCtx, loaded); err != nil {
			return fmt.Errorf("restore subject: %w", err)
		}
		sub, req = loaded, pending
		return nil
	})
	if err != nil {
		return wrapErr(err, "failed to cancel deletion")
	}

	s.logger.InfoContext(ctx, "subject deletion cancelled",
		"subject_id", subjectID.String(),
		"data_request_id", req.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.record(ctx, actor, sub, audit.ActionDeleteCancelled,
		"Exclusão cancelada para o membro: "+sub.Name,
		map[string]any{"dataRequestId": req.ID.String()})
}

// Anonymize replaces the subject's identifying data immediately. A subject
// already anonymized is rejected.
func (s *Service) Anonymize(ctx context.Context, subjectID domain.SubjectID, actor domain.Actor) error {
	now := requestcontext.Now(ctx)

	var name string
	var sub *subjectmodels.Subject
	err := s.tx.RunInTx(tx.WithShardKey(ctx, subjectID.String()), func(txCtx context.Context) error {
		loaded, err := s.subjects.FindByIDForUpdate(txCtx, subjectID)
		if err != nil {
			return err
		}
		if loaded.Anonymized {
			return dErrors.New(dErrors.CodeBadRequest, "subject already anonymized")
		}
		name = loaded.Name
		loaded.Anonymize(now)
		if err := s.subjects.Save(txCtx, loaded); err != nil {
			return fmt.Errorf("save anonymized subject: %w", err)
		}
		sub = loaded
		return nil
	})
	if err != nil {
		return wrapErr(err, "failed to anonymize subject")
	}

	s.logger.InfoContext(ctx, "subject anonymized",
		"subject_id", subjectID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.record(ctx, actor, sub, audit.ActionAnonymize,
		"Anonimização de dados do membro: "+name,
		map[string]any{"manual": true})
}

// Sweep purges every subject whose grace period ended and anonymizes INACTIVE
// subjects whose retention window expired. Each purge is claimed by moving
// its request out of PENDING, so overlapping sweeps never purge twice.
// Per-subject failures are counted and logged; only listing failures abort.
func (s *Service) Sweep(ctx context.Context, now time.Time) (result SweepResult, err error) {
	ctx, end := tracing.StartSpan(ctx, "retention.Sweep",
		attribute.String("sweep.now", now.Format(time.RFC3339)))
	defer func() { end(err) }()

	ctx = requestcontext.WithTime(ctx, now)
	if !requestcontext.HasActor(ctx) {
		ctx = requestcontext.WithActor(ctx, domain.System)
	}

	due, err := s.requests.ListDueDeletions(ctx, now)
	if err != nil {
		return result, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list due deletions")
	}
	present, err := s.presentSubjects(ctx, due)
	if err != nil {
		return result, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load due subjects")
	}
	for _, req := range due {
		if !present[req.SubjectID] {
			result.Failed++
			s.logger.ErrorContext(ctx, "purge failed: subject missing",
				"subject_id", req.SubjectID.String(),
				"data_request_id", req.ID.String(),
			)
			continue
		}
		err := s.purge(ctx, req, now)
		switch {
		case err == nil:
			result.Purged++
		case dErrors.HasCode(err, dErrors.CodeConcurrentModification):
			result.Skipped++
			s.logger.DebugContext(ctx, "purge already claimed",
				"subject_id", req.SubjectID.String(),
				"data_request_id", req.ID.String(),
			)
		default:
			result.Failed++
			s.logger.ErrorContext(ctx, "purge failed",
				"subject_id", req.SubjectID.String(),
				"data_request_id", req.ID.String(),
				"error", err,
			)
		}
	}

	expired, err := s.subjects.ListExpiredInactive(ctx, now)
	if err != nil {
		return result, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expired subjects")
	}
	for _, sub := range expired {
		err := s.anonymizeExpired(ctx, sub.ID, now)
		switch {
		case err == nil:
			result.Anonymized++
		case dErrors.HasCode(err, dErrors.CodeConcurrentModification):
			result.Skipped++
		default:
			result.Failed++
			s.logger.ErrorContext(ctx, "retention anonymization failed",
				"subject_id", sub.ID.String(),
				"error", err,
			)
		}
	}

	s.logger.InfoContext(ctx, "retention sweep finished",
		"purged", result.Purged,
		"anonymized", result.Anonymized,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *Service) purge(ctx context.Context, req *datarequest.Request, now time.Time) error {
	var sub *subjectmodels.Subject
	err := s.tx.RunInTx(tx.WithShardKey(ctx, req.SubjectID.String()), func(txCtx context.Context) error {
		loaded, err := s.subjects.FindByIDForUpdate(txCtx, req.SubjectID)
		if err != nil {
			return fmt.Errorf("load subject: %w", err)
		}
		if !loaded.IsDeleted() {
			return fmt.Errorf("subject %s not soft deleted: %w", req.SubjectID, sentinel.ErrInvalidState)
		}
		if err := s.requests.TransitionFromPending(txCtx, req.ID, datarequest.StatusCompleted, now); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return errClaimLost
			}
			return fmt.Errorf("claim deletion request: %w", err)
		}
		if !loaded.Anonymized {
			loaded.Anonymize(now)
			if err := s.subjects.Save(txCtx, loaded); err != nil {
				return fmt.Errorf("save purged subject: %w", err)
			}
		}
		if err := s.consents.DeleteBySubject(txCtx, req.SubjectID); err != nil {
			return fmt.Errorf("delete consent records: %w", err)
		}
		sub = loaded
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "subject purged",
		"subject_id", req.SubjectID.String(),
		"data_request_id", req.ID.String(),
	)
	metadata := map[string]any{"dataRequestId": req.ID.String()}
	if req.ScheduledDeletionAt != nil {
		metadata["scheduledDeletionAt"] = req.ScheduledDeletionAt.Format(time.RFC3339)
	}
	// The sweep reports its own totals; a failed audit write must not make a
	// completed purge look failed.
	_ = s.record(ctx, domain.System, sub, audit.ActionPurge,
		"Exclusão definitiva após período de carência", metadata)
	return nil
}

func (s *Service) anonymizeExpired(ctx context.Context, subjectID domain.SubjectID, now time.Time) error {
	var sub *subjectmodels.Subject
	err := s.tx.RunInTx(tx.WithShardKey(ctx, subjectID.String()), func(txCtx context.Context) error {
		loaded, err := s.subjects.FindByIDForUpdate(txCtx, subjectID)
		if err != nil {
			return fmt.Errorf("load subject: %w", err)
		}
		if loaded.Anonymized || loaded.IsDeleted() ||
			loaded.Status != subjectmodels.StatusInactive ||
			loaded.RetentionUntil == nil || loaded.RetentionUntil.After(now) {
			return errClaimLost
		}
		loaded.Anonymize(now)
		if err := s.subjects.Save(txCtx, loaded); err != nil {
			return fmt.Errorf("save anonymized subject: %w", err)
		}
		sub = loaded
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.record(ctx, domain.System, sub, audit.ActionAnonymize,
		"Anonimização por término do período de retenção",
		map[string]any{"retentionExpired": true})
	return nil
}

// existingDeletion reads back the deletion a concurrent SoftDelete committed.
func (s *Service) existingDeletion(ctx context.Context, subjectID domain.SubjectID) (*subjectmodels.Subject, *datarequest.Request, error) {
	pending, err := s.requests.FindPendingDelete(ctx, subjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("load concurrent deletion: %w", err)
	}
	found, err := s.subjects.FindByIDs(ctx, []domain.SubjectID{subjectID})
	if err != nil {
		return nil, nil, fmt.Errorf("load subject: %w", err)
	}
	if len(found) == 0 {
		return nil, nil, sentinel.ErrNotFound
	}
	return found[0], pending, nil
}

// presentSubjects batch-loads the subjects of due requests so a request whose
// subject row is gone fails without opening a transaction.
func (s *Service) presentSubjects(ctx context.Context, due []*datarequest.Request) (map[domain.SubjectID]bool, error) {
	if len(due) == 0 {
		return nil, nil
	}
	ids := make([]domain.SubjectID, 0, len(due))
	for _, req := range due {
		ids = append(ids, req.SubjectID)
	}
	found, err := s.subjects.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	present := make(map[domain.SubjectID]bool, len(found))
	for _, sub := range found {
		present[sub.ID] = true
	}
	return present, nil
}

// record writes the audit entry. Self-service actors carry no operator id and
// fall back to the subject's email.
func (s *Service) record(ctx context.Context, actor domain.Actor, sub *subjectmodels.Subject, action audit.Action, description string, metadata map[string]any) error {
	actorEmail := actor.Email
	if actorEmail == "" && sub.Email != nil && !sub.Anonymized {
		actorEmail = *sub.Email
	}
	return s.audit.Record(ctx, audit.Event{
		ActorID:     actor.ActorUserID(),
		ActorEmail:  actorEmail,
		Action:      action,
		EntityType:  audit.EntityMember,
		EntityID:    sub.ID.String(),
		Description: description,
		Metadata:    metadata,
	})
}

func wrapErr(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "subject not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
