package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custodian/internal/datarequest/handler/mocks"
	"custodian/internal/datarequest/models"
	subjectmodels "custodian/internal/subject/models"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/testutil"
)

type DataRequestHandlerSuite struct {
	suite.Suite
	service   *mocks.MockService
	router    chi.Router
	subjectID domain.SubjectID
}

func TestDataRequestHandlerSuite(t *testing.T) {
	suite.Run(t, new(DataRequestHandlerSuite))
}

func (s *DataRequestHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.subjectID = domain.NewSubjectID()

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.RegisterSelfService(s.router)
	h.RegisterOperator(s.router)
}

func (s *DataRequestHandlerSuite) TestExportIsAnAttachment() {
	exportedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.service.EXPECT().Export(gomock.Any(), s.subjectID).Return(&models.Bundle{
		ExportedAt: exportedAt,
		Warning:    models.ExportWarning,
		Subject:    &subjectmodels.View{ID: s.subjectID, Name: "Maria Silva"},
	}, nil)

	req := testutil.WithSubject(testutil.NewRequest(s.T(), http.MethodGet, "/privacy/export"), s.subjectID)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertAttachment(s.T(), rr, "meus-dados-2025-03-01.json")
	testutil.AssertJSONHasKey(s.T(), rr, "_warning")
}

func (s *DataRequestHandlerSuite) TestExportFailure() {
	s.service.EXPECT().Export(gomock.Any(), s.subjectID).
		Return(nil, dErrors.New(dErrors.CodeDataRequest, "personal data export failed"))

	req := testutil.WithSubject(testutil.NewRequest(s.T(), http.MethodGet, "/privacy/export"), s.subjectID)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeDataRequest))
}

func (s *DataRequestHandlerSuite) TestListForSubject() {
	scheduled := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	s.service.EXPECT().List(gomock.Any(), s.subjectID).Return([]*models.Request{{
		ID:                  domain.NewDataRequestID(),
		SubjectID:           s.subjectID,
		Type:                models.RequestTypeDelete,
		Status:              models.StatusPending,
		ScheduledDeletionAt: &scheduled,
	}}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/subjects/"+s.subjectID.String()+"/data-requests"))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[struct {
		DataRequests []models.Response `json:"dataRequests"`
	}](s.T(), rr)
	s.Require().Len(resp.DataRequests, 1)
	s.Equal("PENDING", resp.DataRequests[0].Status)
}

func (s *DataRequestHandlerSuite) TestListRejectsBadID() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/subjects/not-a-uuid/data-requests"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}
