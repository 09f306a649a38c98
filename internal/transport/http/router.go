// Package httptransport composes the domain handlers into one chi router.
// Handlers stay thin and delegate to their services; this package only
// decides which middleware guards which route group.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custodian/internal/platform/metrics"
	"custodian/internal/platform/middleware"
	"custodian/pkg/domain"
	"custodian/pkg/platform/middleware/admin"
	"custodian/pkg/platform/middleware/auth"
	"custodian/pkg/platform/middleware/metadata"
	"custodian/pkg/platform/middleware/requesttime"
)

const defaultRequestTimeout = 30 * time.Second

type operatorRoutes interface {
	RegisterOperator(r chi.Router)
}

type adminRoutes interface {
	RegisterAdmin(r chi.Router)
}

type selfServiceRoutes interface {
	RegisterSelfService(r chi.Router)
}

// SubjectRoutes is implemented by the subject handler, which serves all
// three audiences.
type SubjectRoutes interface {
	operatorRoutes
	adminRoutes
	selfServiceRoutes
}

// ConsentRoutes is implemented by the consent handler.
type ConsentRoutes interface {
	adminRoutes
	selfServiceRoutes
}

// DataRequestRoutes is implemented by the data request handler.
type DataRequestRoutes interface {
	operatorRoutes
	selfServiceRoutes
}

// Deps lists what the router mounts. Gatherer, Sweeper and HealthChecks are
// optional.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Validator      auth.ActorValidator
	AdminToken     string
	RequestTimeout time.Duration
	Clock          func() time.Time

	Subjects     SubjectRoutes
	Consents     ConsentRoutes
	DataRequests DataRequestRoutes

	Sweeper      Sweeper
	HealthChecks map[string]HealthCheck
}

// NewRouter wires every public endpoint.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(d.Metrics))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.MiddlewareWithClock(clock))
	r.Use(middleware.Timeout(timeout))

	ops := newOpsHandler(d.Sweeper, d.HealthChecks, logger)
	r.Get("/health", ops.handleHealth)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(d.AdminToken, logger))
		r.Post("/admin/retention/sweep", ops.handleSweep)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(auth.RequireAuth(d.Validator, logger))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(logger, domain.RoleOperator, domain.RoleAdmin))
			d.Subjects.RegisterOperator(r)
			d.DataRequests.RegisterOperator(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(logger, domain.RoleAdmin))
			d.Subjects.RegisterAdmin(r)
			d.Consents.RegisterAdmin(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(logger, domain.RoleSubject))
			d.Consents.RegisterSelfService(r)
			d.DataRequests.RegisterSelfService(r)
			d.Subjects.RegisterSelfService(r)
		})
	})

	return r
}
