package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custodian/internal/consent/models"
	"custodian/internal/consent/service/mocks"
	consentstore "custodian/internal/consent/store"
	subjectmodels "custodian/internal/subject/models"
	subjectstore "custodian/internal/subject/store"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	audit "custodian/pkg/platform/audit"
	"custodian/pkg/platform/audit/publisher"
	auditmemory "custodian/pkg/platform/audit/store/memory"
	"custodian/pkg/requestcontext"
)

type ConsentServiceSuite struct {
	suite.Suite
	ledger   *consentstore.InMemory
	subjects *subjectstore.InMemory
	audits   *auditmemory.InMemoryStore
	service  *Service
	now      time.Time
	subject  *subjectmodels.Subject
}

func TestConsentServiceSuite(t *testing.T) {
	suite.Run(t, new(ConsentServiceSuite))
}

func (s *ConsentServiceSuite) SetupTest() {
	s.ledger = consentstore.NewInMemory()
	s.subjects = subjectstore.NewInMemory()
	s.audits = auditmemory.NewInMemoryStore()
	s.service = New(s.ledger, s.subjects, publisher.NewPublisher(s.audits))
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	email := "maria@example.org"
	s.subject = &subjectmodels.Subject{
		ID:        domain.NewSubjectID(),
		Name:      "Maria Silva",
		Email:     &email,
		Status:    subjectmodels.StatusActive,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
	s.Require().NoError(s.subjects.Create(context.Background(), s.subject))
}

func (s *ConsentServiceSuite) ctxAt(t time.Time) context.Context {
	ctx := requestcontext.WithTime(context.Background(), t)
	return requestcontext.WithActor(ctx, domain.Actor{SubjectID: s.subject.ID, Role: domain.RoleSubject})
}

func (s *ConsentServiceSuite) auditActions() []audit.Action {
	events, err := s.audits.ListByEntity(context.Background(), audit.EntityMember, s.subject.ID.String())
	s.Require().NoError(err)
	actions := make([]audit.Action, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}

func (s *ConsentServiceSuite) TestGrantSetsFlagAndAppendsOnce() {
	status, err := s.service.Grant(s.ctxAt(s.now), s.subject.ID, models.ConsentTypeDataProcessing)
	s.Require().NoError(err)
	s.True(status.Granted)
	s.Equal(s.now, *status.GrantedAt)

	_, err = s.service.Grant(s.ctxAt(s.now.Add(time.Hour)), s.subject.ID, models.ConsentTypeDataProcessing)
	s.Require().NoError(err)

	history, err := s.service.History(context.Background(), s.subject.ID)
	s.Require().NoError(err)
	s.Len(history, 1, "an open grant is not duplicated")

	sub, err := s.subjects.FindByID(context.Background(), s.subject.ID)
	s.Require().NoError(err)
	s.True(sub.DataConsent)
	s.Equal(s.now.Add(time.Hour), *sub.ConsentDate)

	s.Equal([]audit.Action{audit.ActionConsentGranted, audit.ActionConsentGranted}, s.auditActions())
}

func (s *ConsentServiceSuite) TestRevokeAppendsWithoutEditingHistory() {
	_, err := s.service.Grant(s.ctxAt(s.now), s.subject.ID, models.ConsentTypeDataProcessing)
	s.Require().NoError(err)

	revokedAt := s.now.Add(24 * time.Hour)
	status, err := s.service.Revoke(s.ctxAt(revokedAt), s.subject.ID, models.ConsentTypeDataProcessing)
	s.Require().NoError(err)
	s.False(status.Granted)

	history, err := s.service.History(context.Background(), s.subject.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.True(history[0].IsRevocation(), "newest first")
	s.Nil(history[1].RevokedAt, "the original grant is not mutated")

	current, err := s.service.CurrentStatus(context.Background(), s.subject.ID)
	s.Require().NoError(err)
	s.False(current.Granted)
	s.Nil(current.GrantedAt)
	s.Equal(revokedAt, *current.RevokedAt)

	// Granting again after a revocation opens a new row.
	_, err = s.service.Grant(s.ctxAt(revokedAt.Add(time.Hour)), s.subject.ID, models.ConsentTypeDataProcessing)
	s.Require().NoError(err)
	history, err = s.service.History(context.Background(), s.subject.ID)
	s.Require().NoError(err)
	s.Len(history, 3)

	current, err = s.service.CurrentStatus(context.Background(), s.subject.ID)
	s.Require().NoError(err)
	s.True(current.Granted)
	s.Equal(revokedAt, *current.RevokedAt, "last revocation still reported")
}

func (s *ConsentServiceSuite) TestSelfServiceAuditCarriesNoOperator() {
	_, err := s.service.Grant(s.ctxAt(s.now), s.subject.ID, models.ConsentTypeDataProcessing)
	s.Require().NoError(err)

	events, err := s.audits.ListByEntity(context.Background(), audit.EntityMember, s.subject.ID.String())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Nil(events[0].ActorID)
	s.Equal("maria@example.org", events[0].ActorEmail)
	s.Contains(events[0].Description, "Maria Silva")
}

func (s *ConsentServiceSuite) TestDeletedSubjectIsNotFound() {
	deletedAt := s.now
	s.subject.DeletedAt = &deletedAt
	s.Require().NoError(s.subjects.Save(context.Background(), s.subject))

	_, err := s.service.Grant(s.ctxAt(s.now), s.subject.ID, models.ConsentTypeDataProcessing)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.CurrentStatus(context.Background(), s.subject.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ConsentServiceSuite) TestUnknownConsentType() {
	_, err := s.service.Grant(s.ctxAt(s.now), s.subject.ID, "MARKETING")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ConsentServiceSuite) TestPendingReport() {
	other := &subjectmodels.Subject{ID: domain.NewSubjectID(), Name: "João Souza", DataConsent: true, Status: subjectmodels.StatusActive}
	s.Require().NoError(s.subjects.Create(context.Background(), other))

	operator := domain.Actor{UserID: domain.UserID(uuid.New()), Email: "op@example.org", Role: domain.RoleAdmin}
	ctx := requestcontext.WithActor(context.Background(), operator)
	report, err := s.service.PendingReport(ctx)
	s.Require().NoError(err)
	s.Require().Len(report, 1)
	s.Equal(s.subject.ID, report[0].ID)

	events, err := s.audits.ListRecent(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionView, events[0].Action)
	s.Equal(audit.EntityMemberPendingConsentReport, events[0].EntityType)
	s.Equal(1, events[0].Metadata["count"])
}

func (s *ConsentServiceSuite) TestLedgerFailureIsInternal() {
	ctrl := gomock.NewController(s.T())
	ledger := mocks.NewMockStore(ctrl)
	auditPublisher := mocks.NewMockAuditPublisher(ctrl)
	svc := New(ledger, s.subjects, auditPublisher)

	ledger.EXPECT().Latest(gomock.Any(), s.subject.ID, models.ConsentTypeDataProcessing).
		Return(nil, errors.New("connection reset"))
	auditPublisher.EXPECT().Record(gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.Grant(s.ctxAt(s.now), s.subject.ID, models.ConsentTypeDataProcessing)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	stored, err := s.subjects.FindByID(context.Background(), s.subject.ID)
	s.Require().NoError(err)
	s.False(stored.DataConsent, "a failed ledger read must not leave the flag set")
}

func (s *ConsentServiceSuite) TestStrictAuditFailureSurfaces() {
	ctrl := gomock.NewController(s.T())
	auditPublisher := mocks.NewMockAuditPublisher(ctrl)
	svc := New(s.ledger, s.subjects, auditPublisher)

	auditPublisher.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeAuditWrite, "audit write failed"))

	_, err := svc.Revoke(s.ctxAt(s.now), s.subject.ID, models.ConsentTypeDataProcessing)
	s.True(dErrors.HasCode(err, dErrors.CodeAuditWrite))
}
