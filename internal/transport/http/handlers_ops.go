package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"custodian/internal/retention"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/platform/httputil"
	"custodian/pkg/requestcontext"
)

// Sweeper runs one retention sweep on demand.
type Sweeper interface {
	RunOnce(ctx context.Context) (retention.SweepResult, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

type opsHandler struct {
	sweeper Sweeper
	checks  map[string]HealthCheck
	logger  *slog.Logger
}

func newOpsHandler(sweeper Sweeper, checks map[string]HealthCheck, logger *slog.Logger) *opsHandler {
	return &opsHandler{sweeper: sweeper, checks: checks, logger: logger}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *opsHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	status := http.StatusOK
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(names))
		}
		if err := h.checks[name](ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				"component", name,
				"error", err.Error(),
			)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}

func (h *opsHandler) handleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sweeper == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "retention sweep is not configured"))
		return
	}

	result, err := h.sweeper.RunOnce(ctx)
	if errors.Is(err, retention.ErrSweepInProgress) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "retention sweep already running"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "manual retention sweep failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "manual retention sweep completed",
		"request_id", requestcontext.RequestID(ctx),
		"purged", result.Purged,
		"anonymized", result.Anonymized,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}
