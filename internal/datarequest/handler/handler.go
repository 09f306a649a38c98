package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custodian/internal/datarequest/models"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/platform/httputil"
	"custodian/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/datarequest-mocks.go -package=mocks Service

type Service interface {
	Export(ctx context.Context, subjectID domain.SubjectID) (*models.Bundle, error)
	List(ctx context.Context, subjectID domain.SubjectID) ([]*models.Request, error)
}

type Handler struct {
	requests Service
	logger   *slog.Logger
}

func New(requests Service, logger *slog.Logger) *Handler {
	return &Handler{requests: requests, logger: logger}
}

// RegisterSelfService mounts the export and request history for the subject.
func (h *Handler) RegisterSelfService(r chi.Router) {
	r.Get("/privacy/export", h.handleExport)
	r.Get("/privacy/data-requests", h.handleListOwn)
}

// RegisterOperator mounts the request history of any subject.
func (h *Handler) RegisterOperator(r chi.Router) {
	r.Get("/subjects/{id}/data-requests", h.handleListForSubject)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.Actor(ctx).SubjectID

	bundle, err := h.requests.Export(ctx, subjectID)
	if err != nil {
		h.fail(ctx, w, "export failed", err)
		return
	}

	body, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		h.fail(ctx, w, "encode export", dErrors.Wrap(err, dErrors.CodeDataRequest, "failed to encode export"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="meus-dados-%s.json"`, bundle.ExportedAt.Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) handleListOwn(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, requestcontext.Actor(r.Context()).SubjectID)
}

func (h *Handler) handleListForSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := domain.ParseSubjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.list(w, r, subjectID)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, subjectID domain.SubjectID) {
	ctx := r.Context()
	reqs, err := h.requests.List(ctx, subjectID)
	if err != nil {
		h.fail(ctx, w, "failed to list data requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"dataRequests": models.ToResponses(reqs),
	})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeDataRequest {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
