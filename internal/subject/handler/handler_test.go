package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custodian/internal/subject/handler/mocks"
	"custodian/internal/subject/models"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/testutil"
)

type SubjectHandlerSuite struct {
	suite.Suite
	service   *mocks.MockService
	router    chi.Router
	subjectID domain.SubjectID
	operator  string
}

func TestSubjectHandlerSuite(t *testing.T) {
	suite.Run(t, new(SubjectHandlerSuite))
}

func (s *SubjectHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.subjectID = domain.NewSubjectID()
	s.operator = uuid.NewString()

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.RegisterOperator(s.router)
	h.RegisterAdmin(s.router)
	h.RegisterSelfService(s.router)
}

func (s *SubjectHandlerSuite) path(suffix string) string {
	return "/subjects/" + s.subjectID.String() + suffix
}

func (s *SubjectHandlerSuite) TestView() {
	nationalID := "12345678901"
	s.service.EXPECT().View(gomock.Any(), s.subjectID).Return(&models.View{
		ID: s.subjectID, Name: "Maria Silva", NationalID: &nationalID, Status: models.StatusActive,
	}, nil)

	req := testutil.WithOperator(testutil.NewRequest(s.T(), http.MethodGet, s.path("")), s.operator)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "nationalId", "12345678901")
	testutil.AssertJSONContains(s.T(), rr, "status", "ACTIVE")
}

func (s *SubjectHandlerSuite) TestViewNotFound() {
	s.service.EXPECT().View(gomock.Any(), s.subjectID).Return(nil, dErrors.New(dErrors.CodeNotFound, "subject not found"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, s.path("")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}

func (s *SubjectHandlerSuite) TestUpdateDistinguishesNullFromAbsent() {
	s.service.EXPECT().Update(gomock.Any(), s.subjectID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.SubjectID, p models.Patch) (*models.View, error) {
			s.True(p.City.Set)
			s.True(p.City.Valid)
			s.Equal("Olinda", p.City.Value)
			s.True(p.Phone2.Set)
			s.False(p.Phone2.Valid)
			s.False(p.Email.Set)
			return &models.View{ID: s.subjectID, Name: "Maria Silva"}, nil
		})

	req := testutil.NewRequestWithBody(s.T(), http.MethodPatch, s.path(""), `{"city":"Olinda","phone2":null}`)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *SubjectHandlerSuite) TestUpdateRejectsUnknownFields() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPatch, s.path(""), `{"cpf":"123"}`)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *SubjectHandlerSuite) TestUpdateValidationFields() {
	s.service.EXPECT().Update(gomock.Any(), s.subjectID, gomock.Any()).
		Return(nil, dErrors.Validation(map[string]string{"zipCode": "invalid zip code"}))

	req := testutil.NewRequestWithBody(s.T(), http.MethodPatch, s.path(""), `{"zipCode":"1"}`)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	testutil.AssertFieldError(s.T(), rr, "zipCode")
}

func (s *SubjectHandlerSuite) TestDeleteReturnsSchedule() {
	scheduled := time.Date(2026, 4, 9, 9, 0, 0, 0, time.UTC)
	s.service.EXPECT().SoftDelete(gomock.Any(), s.subjectID).Return(scheduled, nil)

	req := testutil.WithOperator(testutil.NewRequest(s.T(), http.MethodDelete, s.path("")), s.operator)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "scheduledDeletionAt", "2026-04-09T09:00:00Z")
}

func (s *SubjectHandlerSuite) TestCancelDeletionAfterGracePeriod() {
	s.service.EXPECT().CancelDeletion(gomock.Any(), s.subjectID).
		Return(dErrors.New(dErrors.CodeConflict, "grace period has ended"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, s.path("/cancel-deletion")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
}

func (s *SubjectHandlerSuite) TestAnonymizeTwice() {
	s.service.EXPECT().Anonymize(gomock.Any(), s.subjectID).
		Return(dErrors.New(dErrors.CodeBadRequest, "subject already anonymized"))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, s.path("/anonymize")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func (s *SubjectHandlerSuite) TestSelfServiceDeleteRequestTrimsReason() {
	scheduled := time.Date(2026, 4, 9, 9, 0, 0, 0, time.UTC)
	s.service.EXPECT().RequestDeletion(gomock.Any(), s.subjectID, "Mudança de igreja").Return(scheduled, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/privacy/delete-request", map[string]string{"reason": "  Mudança de igreja  "})
	rr := testutil.DoRequest(s.router, testutil.WithSubject(req, s.subjectID))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "success", true)
}

func (s *SubjectHandlerSuite) TestSelfServiceCancelUsesOwnSubject() {
	s.service.EXPECT().CancelDeletion(gomock.Any(), s.subjectID).Return(nil)

	req := testutil.WithSubject(testutil.NewRequest(s.T(), http.MethodPost, "/privacy/cancel-deletion"), s.subjectID)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *SubjectHandlerSuite) TestAccessSummary() {
	s.service.EXPECT().AccessSummary(gomock.Any(), s.subjectID).Return(&models.AccessSummary{
		Member:     models.MemberSummary{ID: s.subjectID, Name: "Maria Silva", DonationsCount: 3},
		AccessDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}, nil)

	req := testutil.WithSubject(testutil.NewRequest(s.T(), http.MethodGet, "/privacy/access"), s.subjectID)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONHasKey(s.T(), rr, "member")
	testutil.AssertJSONHasKey(s.T(), rr, "accessDate")
}

func (s *SubjectHandlerSuite) TestBadSubjectID() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/subjects/not-a-uuid"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func TestSanitize(t *testing.T) {
	blank := "   "
	note := "  ok "
	body := struct {
		Reason string
		Blank  *string
		Note   *string
		Count  int
	}{Reason: " why ", Blank: &blank, Note: &note, Count: 2}

	sanitize(&body)

	if body.Reason != "why" || body.Blank != nil || *body.Note != "ok" || body.Count != 2 {
		t.Fatalf("unexpected sanitize result: %+v", body)
	}
}

func (s *SubjectHandlerSuite) TestListPassesPagingAndSearch() {
	masked := models.EncryptedPlaceholder
	s.service.EXPECT().List(gomock.Any(), models.ListFilter{Page: 2, Limit: 10, Search: "ana"}).
		Return(&models.Page{
			Data:       []models.ListItem{{ID: s.subjectID, Name: "Ana Costa", NationalID: &masked}},
			Pagination: models.Pagination{Page: 2, Limit: 10, Total: 11, TotalPages: 2},
		}, nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/subjects?page=2&limit=10&search=%20ana%20")
	rr := testutil.DoRequest(s.router, testutil.WithOperator(req, s.operator))

	testutil.AssertStatusOK(s.T(), rr)
	page := testutil.UnmarshalResponse[models.Page](s.T(), rr)
	s.Require().Len(page.Data, 1)
	s.Equal("[CRIPTOGRAFADO]", *page.Data[0].NationalID)
	s.Equal(11, page.Pagination.Total)
}

func (s *SubjectHandlerSuite) TestListIgnoresBadPaging() {
	s.service.EXPECT().List(gomock.Any(), models.ListFilter{}).Return(&models.Page{Data: []models.ListItem{}}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/subjects?page=abc&limit="))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *SubjectHandlerSuite) TestCreate() {
	s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p models.Patch) (*models.View, error) {
			s.Equal("Carlos Mendes", p.Name.Value)
			s.True(p.NationalID.Valid)
			return &models.View{ID: s.subjectID, Name: p.Name.Value, Status: models.StatusActive}, nil
		})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/subjects", map[string]any{
		"name":       "Carlos Mendes",
		"nationalId": "11122233344",
	})
	rr := testutil.DoRequest(s.router, testutil.WithOperator(req, s.operator))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertJSONContains(s.T(), rr, "id", s.subjectID.String())
}

func (s *SubjectHandlerSuite) TestCreateValidationError() {
	s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Validation(map[string]string{"name": "name is required"}))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/subjects", map[string]any{"email": "x@example.org"})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertFieldError(s.T(), rr, "name")
}
