package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custodian/internal/cipher"
	ciphermocks "custodian/internal/cipher/mocks"
	consentmodels "custodian/internal/consent/models"
	consentstore "custodian/internal/consent/store"
	requeststore "custodian/internal/datarequest/store"
	recordmodels "custodian/internal/records/models"
	recordstore "custodian/internal/records/store"
	"custodian/internal/notify"
	"custodian/internal/retention"
	"custodian/internal/subject/models"
	"custodian/internal/subject/service/mocks"
	subjectstore "custodian/internal/subject/store"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	audit "custodian/pkg/platform/audit"
	"custodian/pkg/platform/audit/publisher"
	auditmemory "custodian/pkg/platform/audit/store/memory"
	"custodian/pkg/requestcontext"
)

type SubjectSuite struct {
	suite.Suite
	cipher   cipher.Cipher
	subjects *subjectstore.InMemory
	consents *consentstore.InMemory
	requests *requeststore.InMemory
	records  *recordstore.InMemory
	audits   *auditmemory.InMemoryStore
	notifier *recordingNotifier
	service  *Service
	operator domain.Actor
	subject  *models.Subject
	now      time.Time
}

func TestSubjectSuite(t *testing.T) {
	suite.Run(t, new(SubjectSuite))
}

func (s *SubjectSuite) SetupSuite() {
	c, err := cipher.NewAESGCM("subject-service-secret")
	s.Require().NoError(err)
	s.cipher = c
}

func (s *SubjectSuite) SetupTest() {
	s.subjects = subjectstore.NewInMemory()
	s.consents = consentstore.NewInMemory()
	s.requests = requeststore.NewInMemory()
	s.records = recordstore.NewInMemory()
	s.audits = auditmemory.NewInMemoryStore()
	pub := publisher.NewPublisher(s.audits)

	lifecycle := retention.New(s.subjects, s.requests, s.consents, pub)
	s.notifier = &recordingNotifier{}
	s.service = New(Deps{
		Subjects:  s.subjects,
		Consents:  s.consents,
		Requests:  s.requests,
		Records:   s.records,
		Lifecycle: lifecycle,
		Cipher:    s.cipher,
		Audit:     pub,
		Notifier:  s.notifier,
	})
	s.operator = domain.Actor{UserID: domain.UserID(uuid.New()), Email: "secretaria@igreja.org", Role: domain.RoleOperator}
	s.now = time.Date(2026, 5, 20, 14, 0, 0, 0, time.UTC)

	nationalID := "98765432100"
	sealed, err := cipher.Seal(s.cipher, &nationalID)
	s.Require().NoError(err)
	email := "ana@example.org"
	s.subject = &models.Subject{
		ID:          domain.NewSubjectID(),
		Name:        "Ana Costa",
		Email:       &email,
		Status:      models.StatusActive,
		NationalID:  sealed,
		DataConsent: true,
		CreatedAt:   s.now.AddDate(-2, 0, 0),
		UpdatedAt:   s.now.AddDate(-2, 0, 0),
	}
	s.Require().NoError(s.subjects.Create(context.Background(), s.subject))
}

type recordingNotifier struct {
	events []notify.ConsentRequired
}

func (n *recordingNotifier) ConsentRequired(_ context.Context, ev notify.ConsentRequired) error {
	n.events = append(n.events, ev)
	return nil
}

func (s *SubjectSuite) as(actor domain.Actor) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithActor(ctx, actor)
}

func (s *SubjectSuite) self() domain.Actor {
	return domain.Actor{Role: domain.RoleSubject, SubjectID: s.subject.ID}
}

func (s *SubjectSuite) events() []audit.Event {
	events, err := s.audits.ListRecent(context.Background(), 50)
	s.Require().NoError(err)
	return events
}

func (s *SubjectSuite) TestViewDecryptsAndAudits() {
	revoked := s.now.Add(-time.Hour)
	s.Require().NoError(s.consents.Append(context.Background(), &consentmodels.Record{
		ID: domain.NewConsentID(), SubjectID: s.subject.ID, Type: consentmodels.ConsentTypeDataProcessing,
		CreatedAt: revoked, RevokedAt: &revoked,
	}))

	view, err := s.service.View(s.as(s.operator), s.subject.ID)
	s.Require().NoError(err)
	s.Equal("98765432100", *view.NationalID)
	s.Equal(revoked, *view.ConsentRevokedAt)
	s.Empty(view.FieldErrors)

	events := s.events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionView, events[0].Action)
	s.Equal("Visualização de dados do membro: Ana Costa", events[0].Description)
}

func (s *SubjectSuite) TestViewIsolatesUndecryptableField() {
	sub, err := s.subjects.FindByID(context.Background(), s.subject.ID)
	s.Require().NoError(err)
	garbage := "00:11:22"
	sub.SecondaryID = cipher.SensitiveField{Value: &garbage, Encrypted: true}
	s.Require().NoError(s.subjects.Save(context.Background(), sub))

	view, err := s.service.View(s.as(s.operator), s.subject.ID)
	s.Require().NoError(err)
	s.Nil(view.SecondaryID)
	s.Contains(view.FieldErrors, "secondaryId")
	s.Equal("98765432100", *view.NationalID)
}

func (s *SubjectSuite) TestSoftDeletedSubjectIsHidden() {
	_, err := s.service.SoftDelete(s.as(s.operator), s.subject.ID)
	s.Require().NoError(err)

	_, err = s.service.View(s.as(s.operator), s.subject.ID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))

	_, err = s.service.Update(s.as(s.operator), s.subject.ID, models.Patch{Name: models.Some("Ana Maria")})
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *SubjectSuite) TestUpdateEncryptsAndStartsInactiveWindow() {
	patch := models.Patch{
		NationalID: models.Some("111.222.333-44"),
		Status:     models.Some("inactive"),
		City:       models.Some("  Recife "),
	}
	view, err := s.service.Update(s.as(s.operator), s.subject.ID, patch)
	s.Require().NoError(err)
	s.Equal("11122233344", *view.NationalID)
	s.Equal("Recife", *view.City)

	stored, err := s.subjects.FindByID(context.Background(), s.subject.ID)
	s.Require().NoError(err)
	s.True(stored.NationalID.Encrypted)
	s.True(cipher.LooksEncrypted(*stored.NationalID.Value))
	s.Equal(models.StatusInactive, stored.Status)
	s.Equal(s.now.AddDate(5, 0, 0), *stored.RetentionUntil)

	events := s.events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionUpdate, events[0].Action)
	s.ElementsMatch([]string{"nationalId", "status", "city"}, events[0].Metadata["fields"])
}

func (s *SubjectSuite) TestUpdateBetweenActiveStatusesKeepsRetention() {
	_, err := s.service.Update(s.as(s.operator), s.subject.ID, models.Patch{Status: models.Some("LEADER")})
	s.Require().NoError(err)

	stored, err := s.subjects.FindByID(context.Background(), s.subject.ID)
	s.Require().NoError(err)
	s.Nil(stored.RetentionUntil)
}

func (s *SubjectSuite) TestUpdateValidation() {
	_, err := s.service.Update(s.as(s.operator), s.subject.ID, models.Patch{ZipCode: models.Some("123")})
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	_, err = s.service.Update(s.as(s.operator), s.subject.ID, models.Patch{})
	s.True(dErrors.Is(err, dErrors.CodeValidation))
	s.Empty(s.events())
}

func (s *SubjectSuite) TestRequestDeletionRequiresReason() {
	_, err := s.service.RequestDeletion(s.as(s.self()), s.subject.ID, "   ")
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	scheduled, err := s.service.RequestDeletion(s.as(s.self()), s.subject.ID, "Não frequento mais")
	s.Require().NoError(err)
	s.Equal(s.now.Add(30*24*time.Hour), scheduled)

	events := s.events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionDeleteRequest, events[0].Action)
	s.Nil(events[0].ActorID)
}

func (s *SubjectSuite) TestCancelDeletionRestoresVisibility() {
	_, err := s.service.SoftDelete(s.as(s.operator), s.subject.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.service.CancelDeletion(s.as(s.operator), s.subject.ID))

	_, err = s.service.View(s.as(s.operator), s.subject.ID)
	s.NoError(err)
}

func (s *SubjectSuite) TestAccessSummary() {
	s.records.AddDonation(recordmodels.Donation{ID: uuid.New(), SubjectID: s.subject.ID, Kind: "OFFERING", AmountCents: 5000, DonatedAt: s.now})
	s.records.AddMinistry(recordmodels.MinistryMembership{ID: uuid.New(), SubjectID: s.subject.ID, Ministry: "Diaconia", JoinedAt: s.now})
	s.records.AddMinistry(recordmodels.MinistryMembership{ID: uuid.New(), SubjectID: s.subject.ID, Ministry: "Louvor", JoinedAt: s.now})

	summary, err := s.service.AccessSummary(s.as(s.self()), s.subject.ID)
	s.Require().NoError(err)
	s.Equal(1, summary.Member.DonationsCount)
	s.Equal(2, summary.Member.MinistriesCount)
	s.True(summary.Member.DataConsent)
	s.Equal(s.now, summary.AccessDate)

	events := s.events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionAccess, events[0].Action)
	s.Equal(audit.EntityUserData, events[0].EntityType)
	s.Nil(events[0].ActorID)
	s.Equal("ana@example.org", events[0].ActorEmail)
}

func (s *SubjectSuite) TestMigrateLegacyFields() {
	plain := "12345678901"
	already, err := s.cipher.Encrypt("MG-1.234.567")
	s.Require().NoError(err)
	legacy := &models.Subject{
		ID:          domain.NewSubjectID(),
		Name:        "Carlos Lima",
		Status:      models.StatusActive,
		NationalID:  cipher.SensitiveField{Value: &plain},
		SecondaryID: cipher.SensitiveField{Value: &already},
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
	s.Require().NoError(s.subjects.Create(context.Background(), legacy))

	dry, err := s.service.MigrateLegacyFields(s.as(domain.System), true)
	s.Require().NoError(err)
	s.Equal(MigrationResult{Scanned: 1, Flagged: 1, Encrypted: 1}, dry)
	unchanged, err := s.subjects.FindByID(context.Background(), legacy.ID)
	s.Require().NoError(err)
	s.False(unchanged.NationalID.Encrypted)

	result, err := s.service.MigrateLegacyFields(s.as(domain.System), false)
	s.Require().NoError(err)
	s.Equal(MigrationResult{Scanned: 1, Flagged: 1, Encrypted: 1}, result)

	migrated, err := s.subjects.FindByID(context.Background(), legacy.ID)
	s.Require().NoError(err)
	s.True(migrated.NationalID.Encrypted)
	s.True(migrated.SecondaryID.Encrypted)
	s.Equal(already, *migrated.SecondaryID.Value)
	nationalID, err := migrated.NationalID.Reveal(s.cipher)
	s.Require().NoError(err)
	s.Equal(plain, *nationalID)

	again, err := s.service.MigrateLegacyFields(s.as(domain.System), false)
	s.Require().NoError(err)
	s.Zero(again.Scanned)
}

func TestUpdateCipherFailureIsCryptoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	lifecycle := mocks.NewMockLifecycle(ctrl)
	c := ciphermocks.NewMockCipher(ctrl)

	id := domain.NewSubjectID()
	store.EXPECT().FindByIDForUpdate(gomock.Any(), id).Return(&models.Subject{ID: id, Name: "Pedro", Status: models.StatusActive}, nil)
	lifecycle.EXPECT().Policy().Return(retention.Policy{})
	c.EXPECT().Encrypt("12345678901").Return("", errors.New("entropy exhausted"))

	svc := New(Deps{
		Subjects:  store,
		Consents:  mocks.NewMockConsentLedger(ctrl),
		Requests:  mocks.NewMockRequestReader(ctrl),
		Records:   mocks.NewMockRecordsReader(ctrl),
		Lifecycle: lifecycle,
		Cipher:    c,
		Audit:     mocks.NewMockAuditPublisher(ctrl),
	})
	_, err := svc.Update(context.Background(), id, models.Patch{NationalID: models.Some("12345678901")})
	if !dErrors.Is(err, dErrors.CodeCrypto) {
		t.Fatalf("expected crypto error, got %v", err)
	}
}

func TestSoftDeletePassesActorFromContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	lifecycle := mocks.NewMockLifecycle(ctrl)
	id := domain.NewSubjectID()
	actor := domain.Actor{UserID: domain.UserID(uuid.New()), Role: domain.RoleAdmin}
	at := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	lifecycle.EXPECT().SoftDelete(gomock.Any(), id, actor, (*string)(nil)).Return(at, nil)

	svc := New(Deps{Lifecycle: lifecycle})
	got, err := svc.SoftDelete(requestcontext.WithActor(context.Background(), actor), id)
	if err != nil || !got.Equal(at) {
		t.Fatalf("SoftDelete = %v, %v", got, err)
	}
}

func (s *SubjectSuite) TestCreateEncryptsOnWriteAndRecordsRegistration() {
	view, err := s.service.Create(s.as(s.operator), models.Patch{
		Name:        models.Some("  Carlos Mendes "),
		Email:       models.Some("Carlos@Example.org"),
		NationalID:  models.Some("111.222.333-44"),
		SecondaryID: models.Some("MG1234567"),
	})
	s.Require().NoError(err)
	s.Equal("Carlos Mendes", view.Name)
	s.Equal(models.StatusActive, view.Status)
	s.Equal("11122233344", *view.NationalID)
	s.False(view.DataConsent)
	s.Nil(view.RetentionUntil)

	stored, err := s.subjects.FindByID(context.Background(), view.ID)
	s.Require().NoError(err)
	s.True(stored.NationalID.Encrypted)
	s.True(stored.SecondaryID.Encrypted)
	s.True(cipher.LooksEncrypted(*stored.NationalID.Value))
	s.NotEqual("MG1234567", *stored.SecondaryID.Value)

	ledger, err := s.consents.ListBySubject(context.Background(), view.ID)
	s.Require().NoError(err)
	s.Require().Len(ledger, 1)
	s.Nil(ledger[0].RevokedAt)

	events := s.events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionCreate, events[0].Action)
	s.Equal(audit.EntityMember, events[0].EntityType)
	s.Equal("LEGITIMATE_INTEREST", events[0].Metadata["legalBasis"])

	s.Require().Len(s.notifier.events, 1)
	s.Equal(view.ID, s.notifier.events[0].SubjectID)
}

func (s *SubjectSuite) TestCreateInactiveStartsRetentionWindow() {
	view, err := s.service.Create(s.as(s.operator), models.Patch{
		Name:   models.Some("Helena Dias"),
		Status: models.Some("inactive"),
	})
	s.Require().NoError(err)
	s.Equal(models.StatusInactive, view.Status)
	s.Require().NotNil(view.RetentionUntil)
	s.Equal(s.now.AddDate(5, 0, 0), *view.RetentionUntil)
	s.Empty(s.notifier.events, "no email, no consent request")
}

func (s *SubjectSuite) TestCreateRequiresName() {
	_, err := s.service.Create(s.as(s.operator), models.Patch{Email: models.Some("x@example.org")})
	s.True(dErrors.Is(err, dErrors.CodeValidation))
	s.Empty(s.events())
}

func (s *SubjectSuite) TestListHidesDeletedAndMasksIdentityNumbers() {
	plain := "12345678901"
	legacy := &models.Subject{
		ID:         domain.NewSubjectID(),
		Name:       "Beatriz Legado",
		Status:     models.StatusActive,
		NationalID: cipher.SensitiveField{Value: &plain},
		CreatedAt:  s.now.AddDate(-1, 0, 0),
	}
	deletedAt := s.now.Add(-time.Hour)
	gone := &models.Subject{
		ID:        domain.NewSubjectID(),
		Name:      "Removido",
		Status:    models.StatusActive,
		DeletedAt: &deletedAt,
		CreatedAt: s.now,
	}
	s.Require().NoError(s.subjects.Create(context.Background(), legacy))
	s.Require().NoError(s.subjects.Create(context.Background(), gone))

	page, err := s.service.List(s.as(s.operator), models.ListFilter{})
	s.Require().NoError(err)
	s.Equal(2, page.Pagination.Total)
	s.Equal(1, page.Pagination.TotalPages)
	s.Require().Len(page.Data, 2)

	byID := map[domain.SubjectID]models.ListItem{}
	for _, item := range page.Data {
		byID[item.ID] = item
	}
	s.NotContains(byID, gone.ID)
	s.Equal(models.EncryptedPlaceholder, *byID[s.subject.ID].NationalID)
	s.Equal(plain, *byID[legacy.ID].NationalID)

	events := s.events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionView, events[0].Action)
	s.Equal(audit.EntityMemberList, events[0].EntityType)
	s.Equal("Visualização de lista de membros (2 membros)", events[0].Description)
}
