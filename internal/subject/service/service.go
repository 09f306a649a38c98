package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"custodian/internal/cipher"
	consentmodels "custodian/internal/consent/models"
	datarequest "custodian/internal/datarequest/models"
	"custodian/internal/notify"
	"custodian/internal/platform/metrics"
	recordmodels "custodian/internal/records/models"
	"custodian/internal/retention"
	"custodian/internal/subject/models"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/email"
	audit "custodian/pkg/platform/audit"
	"custodian/pkg/platform/sentinel"
	"custodian/pkg/platform/tx"
	"custodian/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,ConsentLedger,RequestReader,RecordsReader,Lifecycle,AuditPublisher,Notifier

type Store interface {
	FindByID(ctx context.Context, id domain.SubjectID) (*models.Subject, error)
	FindByIDForUpdate(ctx context.Context, id domain.SubjectID) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Save(ctx context.Context, subject *models.Subject) error
	ListLive(ctx context.Context, filter models.ListFilter) ([]*models.Subject, int, error)
	ListLegacyPlaintext(ctx context.Context, limit int) ([]*models.Subject, error)
}

type ConsentLedger interface {
	Append(ctx context.Context, record *consentmodels.Record) error
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*consentmodels.Record, error)
	LatestRevocation(ctx context.Context, subjectID domain.SubjectID) (*consentmodels.Record, error)
}

type RequestReader interface {
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*datarequest.Request, error)
}

type RecordsReader interface {
	ListDonations(ctx context.Context, subjectID domain.SubjectID) ([]recordmodels.Donation, error)
	ListMinistries(ctx context.Context, subjectID domain.SubjectID) ([]recordmodels.MinistryMembership, error)
}

// Lifecycle is the retention service: deletion, cancellation and
// anonymization go through it so the grace-period rules live in one place.
type Lifecycle interface {
	Policy() retention.Policy
	SoftDelete(ctx context.Context, subjectID domain.SubjectID, actor domain.Actor, notes *string) (time.Time, error)
	CancelDeletion(ctx context.Context, subjectID domain.SubjectID, actor domain.Actor) error
	Anonymize(ctx context.Context, subjectID domain.SubjectID, actor domain.Actor) error
}

type AuditPublisher interface {
	Record(ctx context.Context, event audit.Event) error
}

type Notifier interface {
	ConsentRequired(ctx context.Context, ev notify.ConsentRequired) error
}

// Service is the operator and self-service entry point for a subject's
// personal record.
type Service struct {
	subjects  Store
	consents  ConsentLedger
	requests  RequestReader
	records   RecordsReader
	lifecycle Lifecycle
	cipher    cipher.Cipher
	audit     AuditPublisher
	notifier  Notifier
	tx        tx.Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
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

// Deps groups the collaborators. All fields except Notifier are required;
// without one, consent requests are only logged.
type Deps struct {
	Subjects  Store
	Consents  ConsentLedger
	Requests  RequestReader
	Records   RecordsReader
	Lifecycle Lifecycle
	Cipher    cipher.Cipher
	Audit     AuditPublisher
	Notifier  Notifier
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		subjects:  deps.Subjects,
		consents:  deps.Consents,
		requests:  deps.Requests,
		records:   deps.Records,
		lifecycle: deps.Lifecycle,
		cipher:    deps.Cipher,
		audit:     deps.Audit,
		notifier:  deps.Notifier,
		logger:    slog.Default(),
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

// Create registers a subject on an operator's word. Sensitive values are
// sealed before the first write. The subject has not confirmed consent yet:
// the ledger records the registration under legitimate interest and the
// subject is asked to confirm. Creating an INACTIVE subject starts the
// inactive retention window.
func (s *Service) Create(ctx context.Context, patch models.Patch) (*models.View, error) {
	patch.Normalize()
	if err := patch.ValidateCreate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	sub, err := patch.NewSubject(s.cipher, now)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) {
			return nil, err
		}
		s.metrics.IncCipherFailure("encrypt")
		return nil, dErrors.Wrap(err, dErrors.CodeCrypto, "failed to encrypt sensitive field")
	}
	if status, ok := patch.NewStatus(); ok {
		s.lifecycle.Policy().OnStatusChange(sub, status, now)
	}

	err = s.tx.RunInTx(tx.WithShardKey(ctx, sub.ID.String()), func(txCtx context.Context) error {
		if err := s.subjects.Create(txCtx, sub); err != nil {
			return fmt.Errorf("create subject: %w", err)
		}
		if err := s.consents.Append(txCtx, &consentmodels.Record{
			ID:        domain.NewConsentID(),
			SubjectID: sub.ID,
			Type:      consentmodels.ConsentTypeDataProcessing,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("append registration consent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr(err, "failed to create subject")
	}

	s.logger.InfoContext(ctx, "subject created",
		"subject_id", sub.ID.String(),
		"status", string(sub.Status),
		"request_id", requestcontext.RequestID(ctx),
	)
	if err := s.record(ctx, sub, audit.ActionCreate, audit.EntityMember,
		"Criação de membro: "+sub.Name+" (cadastrado por admin - base legal: legítimo interesse)",
		map[string]any{
			"registeredByAdmin":           true,
			"legalBasis":                  "LEGITIMATE_INTEREST",
			"memberNeedsToConfirmConsent": true,
		}); err != nil {
		return nil, err
	}
	if sub.Email != nil {
		if err := s.notifier.ConsentRequired(ctx, notify.ConsentRequired{SubjectID: sub.ID, RegisteredAt: now}); err != nil {
			s.logger.WarnContext(ctx, "consent notification failed",
				"subject_id", sub.ID.String(),
				"error", err,
			)
		}
	}
	return s.reveal(ctx, sub), nil
}

// List pages through live subjects. Identity numbers are never decrypted
// here; encrypted ones are masked.
func (s *Service) List(ctx context.Context, filter models.ListFilter) (*models.Page, error) {
	subjects, total, err := s.subjects.ListLive(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list subjects")
	}
	items := make([]models.ListItem, 0, len(subjects))
	for _, sub := range subjects {
		items = append(items, models.NewListItem(sub))
	}

	actor := requestcontext.Actor(ctx)
	if err := s.publish(ctx, audit.Event{
		ActorID:     actor.ActorUserID(),
		ActorEmail:  actor.Email,
		Action:      audit.ActionView,
		EntityType:  audit.EntityMemberList,
		Description: fmt.Sprintf("Visualização de lista de membros (%d membros)", len(items)),
		Metadata:    map[string]any{"count": len(items), "total": total},
	}); err != nil {
		return nil, err
	}
	return &models.Page{Data: items, Pagination: models.NewPagination(filter, total)}, nil
}

// View returns the decrypted record. A field that fails to decrypt is left
// out and named in FieldErrors; the rest of the view is still returned.
func (s *Service) View(ctx context.Context, subjectID domain.SubjectID) (*models.View, error) {
	sub, err := s.loadLive(ctx, subjectID)
	if err != nil {
		return nil, wrapErr(err, "failed to load subject")
	}
	view := s.reveal(ctx, sub)

	rev, err := s.consents.LatestRevocation(ctx, subjectID)
	switch {
	case err == nil:
		view.ConsentRevokedAt = rev.RevokedAt
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consent history")
	}

	if err := s.record(ctx, sub, audit.ActionView, audit.EntityMember,
		"Visualização de dados do membro: "+sub.Name, nil); err != nil {
		return nil, err
	}
	return view, nil
}

// Update applies a partial change. Sensitive values are re-encrypted with
// their flag in the same write, and a move into INACTIVE starts the inactive
// retention window.
func (s *Service) Update(ctx context.Context, subjectID domain.SubjectID, patch models.Patch) (*models.View, error) {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, dErrors.Validation(map[string]string{"body": "no fields to update"})
	}
	now := requestcontext.Now(ctx)
	policy := s.lifecycle.Policy()

	var (
		sub              *models.Subject
		retentionChanged bool
	)
	err := s.tx.RunInTx(tx.WithShardKey(ctx, subjectID.String()), func(txCtx context.Context) error {
		loaded, err := live(s.subjects.FindByIDForUpdate(txCtx, subjectID))
		if err != nil {
			return err
		}
		if err := patch.Apply(loaded, s.cipher, now); err != nil {
			if dErrors.Is(err, dErrors.CodeValidation) {
				return err
			}
			s.metrics.IncCipherFailure("encrypt")
			return dErrors.Wrap(err, dErrors.CodeCrypto, "failed to encrypt sensitive field")
		}
		if status, ok := patch.NewStatus(); ok {
			retentionChanged = policy.OnStatusChange(loaded, status, now)
		}
		if err := s.subjects.Save(txCtx, loaded); err != nil {
			return fmt.Errorf("save subject: %w", err)
		}
		sub = loaded
		return nil
	})
	if err != nil {
		return nil, wrapErr(err, "failed to update subject")
	}

	s.logger.InfoContext(ctx, "subject updated",
		"subject_id", subjectID.String(),
		"fields", changedFields(&patch),
		"retention_changed", retentionChanged,
		"request_id", requestcontext.RequestID(ctx),
	)
	metadata := map[string]any{"fields": changedFields(&patch)}
	if retentionChanged {
		metadata["retentionUntil"] = sub.RetentionUntil.Format(time.RFC3339)
	}
	if err := s.record(ctx, sub, audit.ActionUpdate, audit.EntityMember,
		"Atualização de membro: "+sub.Name, metadata); err != nil {
		return nil, err
	}
	return s.reveal(ctx, sub), nil
}

// SoftDelete is the operator deletion. It returns when the purge will happen.
func (s *Service) SoftDelete(ctx context.Context, subjectID domain.SubjectID) (time.Time, error) {
	return s.lifecycle.SoftDelete(ctx, subjectID, requestcontext.Actor(ctx), nil)
}

func (s *Service) CancelDeletion(ctx context.Context, subjectID domain.SubjectID) error {
	return s.lifecycle.CancelDeletion(ctx, subjectID, requestcontext.Actor(ctx))
}

func (s *Service) Anonymize(ctx context.Context, subjectID domain.SubjectID) error {
	return s.lifecycle.Anonymize(ctx, subjectID, requestcontext.Actor(ctx))
}

// RequestDeletion is the subject asking for their own erasure. A reason is
// required and kept on the deletion request.
func (s *Service) RequestDeletion(ctx context.Context, subjectID domain.SubjectID, reason string) (time.Time, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return time.Time{}, dErrors.Validation(map[string]string{"reason": "reason is required"})
	}
	return s.lifecycle.SoftDelete(ctx, subjectID, requestcontext.Actor(ctx), &reason)
}

// AccessSummary tells the subject what is held about them. A subject with a
// pending deletion can still ask.
func (s *Service) AccessSummary(ctx context.Context, subjectID domain.SubjectID) (*models.AccessSummary, error) {
	sub, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, wrapErr(err, "failed to load subject")
	}
	if sub.Anonymized {
		return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
	}

	var (
		donations  []recordmodels.Donation
		ministries []recordmodels.MinistryMembership
		consents   []*consentmodels.Record
		requests   []*datarequest.Request
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		donations, err = s.records.ListDonations(gctx, subjectID)
		return err
	})
	g.Go(func() (err error) {
		ministries, err = s.records.ListMinistries(gctx, subjectID)
		return err
	})
	g.Go(func() (err error) {
		consents, err = s.consents.ListBySubject(gctx, subjectID)
		return err
	})
	g.Go(func() (err error) {
		requests, err = s.requests.ListBySubject(gctx, subjectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build access summary")
	}

	member := models.MemberSummary{
		ID:                sub.ID,
		Name:              sub.Name,
		Email:             sub.Email,
		Phone:             sub.Phone,
		Status:            sub.Status,
		DataConsent:       sub.DataConsent,
		ConsentDate:       sub.ConsentDate,
		DonationsCount:    len(donations),
		MinistriesCount:   len(ministries),
		ConsentsCount:     len(consents),
		DataRequestsCount: len(requests),
		RetentionUntil:    sub.RetentionUntil,
	}
	for _, rec := range consents {
		if rec.IsRevocation() {
			member.ConsentRevokedAt = rec.RevokedAt
			break
		}
	}
	if sub.IsDeleted() {
		member.ScheduledDeletionAt = sub.RetentionUntil
	}

	if err := s.record(ctx, sub, audit.ActionAccess, audit.EntityUserData,
		"Acesso aos dados pessoais (LGPD) por "+sub.Name, nil); err != nil {
		return nil, err
	}
	return &models.AccessSummary{Member: member, AccessDate: requestcontext.Now(ctx)}, nil
}

// MigrationResult counts what MigrateLegacyFields did. Flagged values were
// already ciphertext and only needed their flag; Encrypted values were
// plaintext.
type MigrationResult struct {
	Scanned   int
	Flagged   int
	Encrypted int
	Failed    int
}

const migrationBatch = 500

// MigrateLegacyFields brings rows written before field encryption up to date.
// With dryRun only the first batch is inspected and nothing is written.
func (s *Service) MigrateLegacyFields(ctx context.Context, dryRun bool) (MigrationResult, error) {
	var result MigrationResult
	for {
		batch, err := s.subjects.ListLegacyPlaintext(ctx, migrationBatch)
		if err != nil {
			return result, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list legacy rows")
		}
		if len(batch) == 0 {
			return result, nil
		}

		progressed := false
		for _, sub := range batch {
			result.Scanned++
			flagged, encrypted, err := s.migrateOne(ctx, sub.ID, dryRun)
			if err != nil {
				result.Failed++
				s.logger.ErrorContext(ctx, "legacy field migration failed",
					"subject_id", sub.ID.String(),
					"error", err,
				)
				continue
			}
			result.Flagged += flagged
			result.Encrypted += encrypted
			progressed = true
		}
		// Failed rows stay legacy and would come back in the next batch.
		if dryRun || !progressed || len(batch) < migrationBatch {
			return result, nil
		}
	}
}

func (s *Service) migrateOne(ctx context.Context, subjectID domain.SubjectID, dryRun bool) (flagged, encrypted int, err error) {
	err = s.tx.RunInTx(tx.WithShardKey(ctx, subjectID.String()), func(txCtx context.Context) error {
		sub, err := s.subjects.FindByIDForUpdate(txCtx, subjectID)
		if err != nil {
			return err
		}
		for _, f := range []*cipher.SensitiveField{&sub.NationalID, &sub.SecondaryID} {
			if f.IsZero() || f.Encrypted {
				continue
			}
			if cipher.LooksEncrypted(*f.Value) {
				f.Encrypted = true
				flagged++
				continue
			}
			sealed, err := cipher.Seal(s.cipher, f.Value)
			if err != nil {
				s.metrics.IncCipherFailure("encrypt")
				return dErrors.Wrap(err, dErrors.CodeCrypto, "failed to encrypt legacy field")
			}
			*f = sealed
			encrypted++
		}
		if dryRun || flagged+encrypted == 0 {
			return nil
		}
		sub.UpdatedAt = requestcontext.Now(ctx)
		return s.subjects.Save(txCtx, sub)
	})
	return flagged, encrypted, err
}

func (s *Service) loadLive(ctx context.Context, subjectID domain.SubjectID) (*models.Subject, error) {
	return live(s.subjects.FindByID(ctx, subjectID))
}

// live hides soft-deleted subjects.
func live(sub *models.Subject, err error) (*models.Subject, error) {
	if err != nil {
		return nil, err
	}
	if sub.IsDeleted() {
		return nil, sentinel.ErrNotFound
	}
	return sub, nil
}

func (s *Service) reveal(ctx context.Context, sub *models.Subject) *models.View {
	view, err := models.Reveal(sub, s.cipher)
	if err != nil {
		s.metrics.IncCipherFailure("decrypt")
		fields := make([]string, 0, len(view.FieldErrors))
		for name := range view.FieldErrors {
			fields = append(fields, name)
		}
		s.logger.WarnContext(ctx, "sensitive field could not be decrypted",
			"subject_id", sub.ID.String(),
			"fields", fields,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return view
}

// record writes one audit entry. Self-service callers have no operator id and
// are identified by the subject's own email.
func (s *Service) record(ctx context.Context, sub *models.Subject, action audit.Action, entityType, description string, metadata map[string]any) error {
	actor := requestcontext.Actor(ctx)
	actorEmail := actor.Email
	if actorEmail == "" && sub.Email != nil {
		actorEmail = *sub.Email
	}
	return s.publish(ctx, audit.Event{
		ActorID:     actor.ActorUserID(),
		ActorEmail:  actorEmail,
		Action:      action,
		EntityType:  entityType,
		EntityID:    sub.ID.String(),
		Description: description,
		Metadata:    metadata,
	})
}

func (s *Service) publish(ctx context.Context, event audit.Event) error {
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit write rejected",
			"action", event.Action,
			"actor", email.Mask(event.ActorEmail),
			"request_id", requestcontext.RequestID(ctx),
		)
		return err
	}
	return nil
}

func changedFields(p *models.Patch) []string {
	fields := []struct {
		name string
		set  bool
	}{
		{"name", p.Name.Set},
		{"email", p.Email.Set},
		{"phone", p.Phone.Set},
		{"phone2", p.Phone2.Set},
		{"address", p.Address.Set},
		{"city", p.City.Set},
		{"state", p.State.Set},
		{"zipCode", p.ZipCode.Set},
		{"birthDate", p.BirthDate.Set},
		{"status", p.Status.Set},
		{"nationalId", p.NationalID.Set},
		{"secondaryId", p.SecondaryID.Set},
		{"emergencyContact", p.EmergencyContact.Set},
		{"emergencyPhone", p.EmergencyPhone.Set},
		{"notes", p.Notes.Set},
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
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
