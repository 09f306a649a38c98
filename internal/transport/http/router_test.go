package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	consenthandler "custodian/internal/consent/handler"
	consentmocks "custodian/internal/consent/handler/mocks"
	consentmodels "custodian/internal/consent/models"
	drhandler "custodian/internal/datarequest/handler"
	drmocks "custodian/internal/datarequest/handler/mocks"
	jwttoken "custodian/internal/jwt_token"
	"custodian/internal/platform/metrics"
	"custodian/internal/retention"
	subjecthandler "custodian/internal/subject/handler"
	subjectmocks "custodian/internal/subject/handler/mocks"
	subjectmodels "custodian/internal/subject/models"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/testutil"
)

const adminToken = "test-admin-token"

type fakeSweeper struct {
	result retention.SweepResult
	err    error
	calls  int
}

func (f *fakeSweeper) RunOnce(context.Context) (retention.SweepResult, error) {
	f.calls++
	return f.result, f.err
}

type RouterSuite struct {
	suite.Suite
	jwt      *jwttoken.JWTService
	subjects *subjectmocks.MockService
	consents *consentmocks.MockService
	requests *drmocks.MockService
	sweeper  *fakeSweeper
	checks   map[string]HealthCheck
	router   http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.jwt = jwttoken.NewJWTService("router-test-signing-key", "custodian")
	s.subjects = subjectmocks.NewMockService(ctrl)
	s.consents = consentmocks.NewMockService(ctrl)
	s.requests = drmocks.NewMockService(ctrl)
	s.sweeper = &fakeSweeper{}
	s.checks = map[string]HealthCheck{}

	reg := prometheus.NewRegistry()
	s.router = NewRouter(Deps{
		Logger:       logger,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Validator:    s.jwt,
		AdminToken:   adminToken,
		Clock:        func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		Subjects:     subjecthandler.New(s.subjects, logger),
		Consents:     consenthandler.New(s.consents, logger),
		DataRequests: drhandler.New(s.requests, logger),
		Sweeper:      s.sweeper,
		HealthChecks: s.checks,
	})
}

func (s *RouterSuite) token(actor domain.Actor) string {
	token, err := s.jwt.GenerateToken(actor, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) operatorToken(role domain.Role) string {
	userID, err := domain.ParseUserID(uuid.NewString())
	s.Require().NoError(err)
	return s.token(domain.Actor{UserID: userID, Email: "op@example.org", Role: role})
}

func (s *RouterSuite) do(req *http.Request, bearer string) int {
	if bearer != "" {
		testutil.WithBearer(req, bearer)
	}
	return testutil.DoRequest(s.router, req).Code
}

func (s *RouterSuite) TestHealth() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")
}

func (s *RouterSuite) TestHealthDegraded() {
	s.checks["postgres"] = func(context.Context) error { return errors.New("connection refused") }

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	testutil.AssertJSONContains(s.T(), rr, "status", "degraded")
}

func (s *RouterSuite) TestMetricsExposed() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *RouterSuite) TestRequestIDEchoed() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/health")
	req.Header.Set("X-Request-ID", "req-123")
	rr := testutil.DoRequest(s.router, req)
	s.Equal("req-123", rr.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestOperatorRoutesRequireToken() {
	path := "/subjects/" + domain.NewSubjectID().String()
	s.Equal(http.StatusUnauthorized, s.do(testutil.NewRequest(s.T(), http.MethodGet, path), ""))
	s.Equal(http.StatusUnauthorized, s.do(testutil.NewRequest(s.T(), http.MethodGet, path), "garbage"))
}

func (s *RouterSuite) TestSubjectTokenCannotReachOperatorRoutes() {
	subjectToken := s.token(domain.Actor{SubjectID: domain.NewSubjectID(), Role: domain.RoleSubject})
	path := "/subjects/" + domain.NewSubjectID().String()
	s.Equal(http.StatusForbidden, s.do(testutil.NewRequest(s.T(), http.MethodGet, path), subjectToken))
}

func (s *RouterSuite) TestOperatorViewsSubject() {
	subjectID := domain.NewSubjectID()
	s.subjects.EXPECT().View(gomock.Any(), subjectID).Return(&subjectmodels.View{ID: subjectID, Name: "Maria Silva"}, nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/subjects/"+subjectID.String())
	s.Equal(http.StatusOK, s.do(req, s.operatorToken(domain.RoleOperator)))
}

func (s *RouterSuite) TestAnonymizeIsAdminOnly() {
	subjectID := domain.NewSubjectID()
	path := "/subjects/" + subjectID.String() + "/anonymize"
	s.Equal(http.StatusForbidden, s.do(testutil.NewRequest(s.T(), http.MethodPost, path), s.operatorToken(domain.RoleOperator)))

	s.subjects.EXPECT().Anonymize(gomock.Any(), subjectID).Return(nil)
	s.Equal(http.StatusOK, s.do(testutil.NewRequest(s.T(), http.MethodPost, path), s.operatorToken(domain.RoleAdmin)))
}

func (s *RouterSuite) TestPendingConsentReportIsAdminOnly() {
	s.Equal(http.StatusForbidden,
		s.do(testutil.NewRequest(s.T(), http.MethodGet, "/reports/pending-consent"), s.operatorToken(domain.RoleOperator)))

	s.consents.EXPECT().PendingReport(gomock.Any()).Return([]consentmodels.PendingSubject{}, nil)
	s.Equal(http.StatusOK,
		s.do(testutil.NewRequest(s.T(), http.MethodGet, "/reports/pending-consent"), s.operatorToken(domain.RoleAdmin)))
}

func (s *RouterSuite) TestSelfServiceActsOnTokenSubject() {
	subjectID := domain.NewSubjectID()
	s.subjects.EXPECT().AccessSummary(gomock.Any(), subjectID).Return(&subjectmodels.AccessSummary{
		Member: subjectmodels.MemberSummary{ID: subjectID, Name: "Maria Silva"},
	}, nil)

	token := s.token(domain.Actor{SubjectID: subjectID, Role: domain.RoleSubject})
	s.Equal(http.StatusOK, s.do(testutil.NewRequest(s.T(), http.MethodGet, "/privacy/access"), token))
}

func (s *RouterSuite) TestOperatorCannotUseSelfServiceRoutes() {
	s.Equal(http.StatusForbidden,
		s.do(testutil.NewRequest(s.T(), http.MethodGet, "/privacy/access"), s.operatorToken(domain.RoleAdmin)))
}

func (s *RouterSuite) TestWriteRoutesRequireJSON() {
	subjectID := domain.NewSubjectID()
	req := testutil.NewRequestWithBody(s.T(), http.MethodPatch, "/subjects/"+subjectID.String(), `{"city":"Recife"}`)
	req.Header.Set("Content-Type", "text/plain")
	s.Equal(http.StatusBadRequest, s.do(req, s.operatorToken(domain.RoleOperator)))
}

func (s *RouterSuite) TestSweepRequiresAdminToken() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/admin/retention/sweep"))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	s.Zero(s.sweeper.calls)
}

func (s *RouterSuite) TestSweepReturnsCounts() {
	s.sweeper.result = retention.SweepResult{Purged: 2, Anonymized: 1}
	req := testutil.NewRequest(s.T(), http.MethodPost, "/admin/retention/sweep")
	req.Header.Set("X-Admin-Token", adminToken)

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "purgedCount", float64(2))
	s.Equal(1, s.sweeper.calls)
}

func (s *RouterSuite) TestSweepInProgress() {
	s.sweeper.err = retention.ErrSweepInProgress
	req := testutil.NewRequest(s.T(), http.MethodPost, "/admin/retention/sweep")
	req.Header.Set("X-Admin-Token", adminToken)

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
}
