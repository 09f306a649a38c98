package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"custodian/internal/cipher"
	consentmodels "custodian/internal/consent/models"
	"custodian/internal/datarequest/models"
	"custodian/internal/platform/metrics"
	"custodian/internal/platform/tracing"
	recordmodels "custodian/internal/records/models"
	subjectmodels "custodian/internal/subject/models"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	audit "custodian/pkg/platform/audit"
	"custodian/pkg/platform/sentinel"
	"custodian/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,SubjectReader,ConsentReader,RecordsReader,AuditPublisher

type Store interface {
	Create(ctx context.Context, req *models.Request) error
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*models.Request, error)
}

type SubjectReader interface {
	FindByID(ctx context.Context, id domain.SubjectID) (*subjectmodels.Subject, error)
}

type ConsentReader interface {
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*consentmodels.Record, error)
}

type RecordsReader interface {
	ListDonations(ctx context.Context, subjectID domain.SubjectID) ([]recordmodels.Donation, error)
	ListMinistries(ctx context.Context, subjectID domain.SubjectID) ([]recordmodels.MinistryMembership, error)
}

type AuditPublisher interface {
	Record(ctx context.Context, event audit.Event) error
}

// Service assembles personal-data exports and lists a subject's requests.
type Service struct {
	requests Store
	subjects SubjectReader
	consents ConsentReader
	records  RecordsReader
	cipher   cipher.Cipher
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

func New(
	requests Store,
	subjects SubjectReader,
	consents ConsentReader,
	records RecordsReader,
	c cipher.Cipher,
	auditPublisher AuditPublisher,
	opts ...Option,
) *Service {
	s := &Service{
		requests: requests,
		subjects: subjects,
		consents: consents,
		records:  records,
		cipher:   c,
		audit:    auditPublisher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export gathers the subject's record and every related collection, decrypts
// the sensitive fields and records a COMPLETED EXPORT request. Export is not
// gated by consent. A failure while gathering persists nothing and returns a
// CodeDataRequest error; a partial bundle is never returned. Once the bundle
// is assembled the audit entry is written before the request, so a failed
// request write leaves an audited attempt and no COMPLETED request.
func (s *Service) Export(ctx context.Context, subjectID domain.SubjectID) (bundle *models.Bundle, err error) {
	ctx, end := tracing.StartSpan(ctx, "datarequest.Export",
		attribute.String("subject.id", subjectID.String()))
	defer func() { end(err) }()

	now := requestcontext.Now(ctx)

	sub, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return nil, s.exportFailed(ctx, subjectID, err)
	}
	if sub.Anonymized {
		return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
	}

	view, err := subjectmodels.Reveal(sub, s.cipher)
	if err != nil {
		s.metrics.IncCipherFailure("decrypt")
		return nil, s.exportFailed(ctx, subjectID, err)
	}

	var (
		donations  []recordmodels.Donation
		ministries []recordmodels.MinistryMembership
		consents   []*consentmodels.Record
		prior      []*models.Request
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		donations, err = s.records.ListDonations(gctx, subjectID)
		return wrapCollection("donations", err)
	})
	g.Go(func() error {
		var err error
		ministries, err = s.records.ListMinistries(gctx, subjectID)
		return wrapCollection("ministries", err)
	})
	g.Go(func() error {
		var err error
		consents, err = s.consents.ListBySubject(gctx, subjectID)
		return wrapCollection("consents", err)
	})
	g.Go(func() error {
		var err error
		prior, err = s.requests.ListBySubject(gctx, subjectID)
		return wrapCollection("data requests", err)
	})
	if err := g.Wait(); err != nil {
		return nil, s.exportFailed(ctx, subjectID, err)
	}

	bundle = &models.Bundle{
		ExportedAt:   now,
		Warning:      models.ExportWarning,
		Subject:      view,
		Donations:    nonNil(donations),
		Ministries:   nonNil(ministries),
		Consents:     make([]consentmodels.RecordResponse, 0, len(consents)),
		DataRequests: models.ToResponses(prior),
	}
	for _, c := range consents {
		bundle.Consents = append(bundle.Consents, consentmodels.ToRecordResponse(c))
	}

	if err := s.audit.Record(ctx, audit.Event{
		ActorID:     requestcontext.Actor(ctx).ActorUserID(),
		ActorEmail:  actorEmail(ctx, sub),
		Action:      audit.ActionExport,
		EntityType:  audit.EntityMember,
		EntityID:    subjectID.String(),
		Description: "Exportação de dados pessoais (LGPD) por " + sub.Name,
		Metadata: map[string]any{
			"donations":    len(donations),
			"ministries":   len(ministries),
			"consents":     len(consents),
			"dataRequests": len(prior),
		},
	}); err != nil {
		s.metrics.IncExport("failure")
		return nil, err
	}

	completedAt := now
	if err := s.requests.Create(ctx, &models.Request{
		ID:          domain.NewDataRequestID(),
		SubjectID:   subjectID,
		Type:        models.RequestTypeExport,
		Status:      models.StatusCompleted,
		CompletedAt: &completedAt,
		IPAddress:   valueOr(requestcontext.ClientIP(ctx), "unknown"),
		UserAgent:   valueOr(requestcontext.UserAgent(ctx), "unknown"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return nil, s.exportFailed(ctx, subjectID, fmt.Errorf("record export request: %w", err))
	}

	s.metrics.IncExport("success")
	return bundle, nil
}

// List returns the subject's data requests, newest first.
func (s *Service) List(ctx context.Context, subjectID domain.SubjectID) ([]*models.Request, error) {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subject")
	}
	reqs, err := s.requests.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list data requests")
	}
	return reqs, nil
}

func (s *Service) exportFailed(ctx context.Context, subjectID domain.SubjectID, err error) error {
	s.metrics.IncExport("failure")
	s.logger.ErrorContext(ctx, "personal data export failed",
		"subject_id", subjectID.String(),
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
	return dErrors.Wrap(err, dErrors.CodeDataRequest, "personal data export failed")
}

func wrapCollection(name string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

func actorEmail(ctx context.Context, sub *subjectmodels.Subject) string {
	if email := requestcontext.Actor(ctx).Email; email != "" {
		return email
	}
	if sub.Email != nil {
		return *sub.Email
	}
	return ""
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
