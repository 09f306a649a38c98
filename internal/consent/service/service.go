package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"custodian/internal/consent/models"
	"custodian/internal/platform/metrics"
	subjectmodels "custodian/internal/subject/models"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	audit "custodian/pkg/platform/audit"
	"custodian/pkg/platform/sentinel"
	"custodian/pkg/platform/tx"
	"custodian/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,SubjectStore,AuditPublisher

// Store is the append-only consent ledger.
type Store interface {
	Append(ctx context.Context, record *models.Record) error
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*models.Record, error)
	Latest(ctx context.Context, subjectID domain.SubjectID, consentType models.ConsentType) (*models.Record, error)
	LatestRevocation(ctx context.Context, subjectID domain.SubjectID) (*models.Record, error)
}

type SubjectStore interface {
	FindByID(ctx context.Context, id domain.SubjectID) (*subjectmodels.Subject, error)
	FindByIDForUpdate(ctx context.Context, id domain.SubjectID) (*subjectmodels.Subject, error)
	Save(ctx context.Context, subject *subjectmodels.Subject) error
	ListPendingConsent(ctx context.Context) ([]*subjectmodels.Subject, error)
}

type AuditPublisher interface {
	Record(ctx context.Context, event audit.Event) error
}

// Service maintains the consent flag on the subject together with its ledger.
// Consent is informational: nothing here gates access to the subject's data.
type Service struct {
	ledger   Store
	subjects SubjectStore
	tx       tx.Runner
	audit    AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

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

func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func New(ledger Store, subjects SubjectStore, auditPublisher AuditPublisher, opts ...Option) *Service {
	s := &Service{ledger: ledger, subjects: subjects, audit: auditPublisher}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewShardedRunner(0)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Grant sets the subject's consent flag and date. A ledger row is appended
// only when the newest row is not already an open grant.
func (s *Service) Grant(ctx context.Context, subjectID domain.SubjectID, consentType models.ConsentType) (*models.Status, error) {
	if err := requireType(consentType); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var subject *subjectmodels.Subject
	err := s.tx.RunInTx(tx.WithShardKey(ctx, subjectID.String()), func(txCtx context.Context) error {
		sub, err := live(s.subjects.FindByIDForUpdate(txCtx, subjectID))
		if err != nil {
			return err
		}
		latest, err := s.ledger.Latest(txCtx, subjectID, consentType)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("load consent ledger: %w", err)
		}

		sub.DataConsent = true
		sub.ConsentDate = &now
		sub.UpdatedAt = now
		if err := s.subjects.Save(txCtx, sub); err != nil {
			return fmt.Errorf("save subject consent: %w", err)
		}
		if !latest.IsOpenGrant() {
			if err := s.ledger.Append(txCtx, &models.Record{
				ID:        domain.NewConsentID(),
				SubjectID: subjectID,
				Type:      consentType,
				CreatedAt: now,
			}); err != nil {
				return fmt.Errorf("append consent grant: %w", err)
			}
		}
		subject = sub
		return nil
	})
	if err != nil {
		return nil, wrapErr(err, "failed to grant consent")
	}

	s.metrics.IncConsentChange("granted")
	s.logger.InfoContext(ctx, "consent granted",
		"subject_id", subjectID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	if err := s.record(ctx, subject, audit.ActionConsentGranted,
		"Consentimento para tratamento de dados pessoais concedido por "+subject.Name); err != nil {
		return nil, err
	}
	return &models.Status{Granted: true, GrantedAt: &now}, nil
}

// Revoke clears the consent flag and appends a revocation row. Earlier rows
// are left as they are.
func (s *Service) Revoke(ctx context.Context, subjectID domain.SubjectID, consentType models.ConsentType) (*models.Status, error) {
	if err := requireType(consentType); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var subject *subjectmodels.Subject
	err := s.tx.RunInTx(tx.WithShardKey(ctx, subjectID.String()), func(txCtx context.Context) error {
		sub, err := live(s.subjects.FindByIDForUpdate(txCtx, subjectID))
		if err != nil {
			return err
		}
		sub.DataConsent = false
		sub.ConsentDate = nil
		sub.UpdatedAt = now
		if err := s.subjects.Save(txCtx, sub); err != nil {
			return fmt.Errorf("save subject consent: %w", err)
		}
		if err := s.ledger.Append(txCtx, &models.Record{
			ID:        domain.NewConsentID(),
			SubjectID: subjectID,
			Type:      consentType,
			CreatedAt: now,
			RevokedAt: &now,
		}); err != nil {
			return fmt.Errorf("append consent revocation: %w", err)
		}
		subject = sub
		return nil
	})
	if err != nil {
		return nil, wrapErr(err, "failed to revoke consent")
	}

	s.metrics.IncConsentChange("revoked")
	s.logger.InfoContext(ctx, "consent revoked",
		"subject_id", subjectID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	if err := s.record(ctx, subject, audit.ActionConsentRevoked,
		"Consentimento para tratamento de dados pessoais revogado por "+subject.Name); err != nil {
		return nil, err
	}
	return &models.Status{Granted: false, RevokedAt: &now}, nil
}

// CurrentStatus combines the subject's own flag with the newest revocation in
// the ledger.
func (s *Service) CurrentStatus(ctx context.Context, subjectID domain.SubjectID) (*models.Status, error) {
	sub, err := s.loadLive(ctx, subjectID)
	if err != nil {
		return nil, wrapErr(err, "failed to load consent status")
	}
	status := &models.Status{Granted: sub.DataConsent, GrantedAt: sub.ConsentDate}

	rev, err := s.ledger.LatestRevocation(ctx, subjectID)
	switch {
	case err == nil:
		status.RevokedAt = rev.RevokedAt
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consent history")
	}
	return status, nil
}

// History returns the ledger newest first.
func (s *Service) History(ctx context.Context, subjectID domain.SubjectID) ([]*models.Record, error) {
	if _, err := s.loadLive(ctx, subjectID); err != nil {
		return nil, wrapErr(err, "failed to load consent history")
	}
	records, err := s.ledger.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consent history")
	}
	return records, nil
}

// PendingReport lists live subjects that have not confirmed consent.
func (s *Service) PendingReport(ctx context.Context) ([]models.PendingSubject, error) {
	subjects, err := s.subjects.ListPendingConsent(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build pending consent report")
	}
	out := make([]models.PendingSubject, 0, len(subjects))
	for _, sub := range subjects {
		out = append(out, models.PendingSubject{
			ID:        sub.ID,
			Name:      sub.Name,
			Email:     sub.Email,
			Phone:     sub.Phone,
			CreatedAt: sub.CreatedAt,
		})
	}

	actor := requestcontext.Actor(ctx)
	if err := s.audit.Record(ctx, audit.Event{
		ActorID:     actor.ActorUserID(),
		ActorEmail:  actor.Email,
		Action:      audit.ActionView,
		EntityType:  audit.EntityMemberPendingConsentReport,
		Description: fmt.Sprintf("Relatório de membros com consentimento pendente (%d membros)", len(out)),
		Metadata:    map[string]any{"count": len(out)},
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) loadLive(ctx context.Context, subjectID domain.SubjectID) (*subjectmodels.Subject, error) {
	return live(s.subjects.FindByID(ctx, subjectID))
}

// live hides soft-deleted subjects.
func live(sub *subjectmodels.Subject, err error) (*subjectmodels.Subject, error) {
	if err != nil {
		return nil, err
	}
	if sub.IsDeleted() {
		return nil, sentinel.ErrNotFound
	}
	return sub, nil
}

// record writes the audit entry for a subject-initiated consent change. The
// subject acts for themself, so no operator id is attached.
func (s *Service) record(ctx context.Context, sub *subjectmodels.Subject, action audit.Action, description string) error {
	actor := requestcontext.Actor(ctx)
	actorEmail := actor.Email
	if actorEmail == "" && sub.Email != nil {
		actorEmail = *sub.Email
	}
	return s.audit.Record(ctx, audit.Event{
		ActorID:     actor.ActorUserID(),
		ActorEmail:  actorEmail,
		Action:      action,
		EntityType:  audit.EntityMember,
		EntityID:    sub.ID.String(),
		Description: description,
	})
}

func requireType(t models.ConsentType) error {
	if t != models.ConsentTypeDataProcessing {
		return dErrors.Validation(map[string]string{"consentType": "unknown consent type"})
	}
	return nil
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
