package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"custodian/internal/subject/models"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/platform/httputil"
	"custodian/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/subject-mocks.go -package=mocks Service

type Service interface {
	Create(ctx context.Context, patch models.Patch) (*models.View, error)
	List(ctx context.Context, filter models.ListFilter) (*models.Page, error)
	View(ctx context.Context, subjectID domain.SubjectID) (*models.View, error)
	Update(ctx context.Context, subjectID domain.SubjectID, patch models.Patch) (*models.View, error)
	SoftDelete(ctx context.Context, subjectID domain.SubjectID) (time.Time, error)
	CancelDeletion(ctx context.Context, subjectID domain.SubjectID) error
	Anonymize(ctx context.Context, subjectID domain.SubjectID) error
	RequestDeletion(ctx context.Context, subjectID domain.SubjectID, reason string) (time.Time, error)
	AccessSummary(ctx context.Context, subjectID domain.SubjectID) (*models.AccessSummary, error)
}

// Handler serves the operator subject routes and the self-service privacy
// routes that act on the subject record itself.
type Handler struct {
	subjects Service
	logger   *slog.Logger
}

func New(subjects Service, logger *slog.Logger) *Handler {
	return &Handler{subjects: subjects, logger: logger}
}

func (h *Handler) RegisterOperator(r chi.Router) {
	r.Get("/subjects", h.handleList)
	r.Post("/subjects", h.handleCreate)
	r.Get("/subjects/{id}", h.handleView)
	r.Patch("/subjects/{id}", h.handleUpdate)
	r.Delete("/subjects/{id}", h.handleDelete)
	r.Post("/subjects/{id}/cancel-deletion", h.handleCancelDeletion)
}

// RegisterAdmin mounts routes restricted to administrators.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/subjects/{id}/anonymize", h.handleAnonymize)
}

func (h *Handler) RegisterSelfService(r chi.Router) {
	r.Get("/privacy/access", h.handleAccess)
	r.Post("/privacy/delete-request", h.handleDeleteRequest)
	r.Post("/privacy/cancel-deletion", h.handleSelfCancelDeletion)
}

type deletionResponse struct {
	Success             bool      `json:"success"`
	Message             string    `json:"message"`
	ScheduledDeletionAt time.Time `json:"scheduledDeletionAt"`
}

type deletionRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := models.ListFilter{
		Page:   queryInt(q.Get("page")),
		Limit:  queryInt(q.Get("limit")),
		Search: strings.TrimSpace(q.Get("search")),
	}
	page, err := h.subjects.List(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list subjects", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var patch models.Patch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		h.logger.WarnContext(ctx, "invalid subject create",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	view, err := h.subjects.Create(ctx, patch)
	if err != nil {
		h.fail(ctx, w, "failed to create subject", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subjectID(w, r)
	if !ok {
		return
	}
	view, err := h.subjects.View(ctx, subjectID)
	if err != nil {
		h.fail(ctx, w, "failed to view subject", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subjectID(w, r)
	if !ok {
		return
	}
	var patch models.Patch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		h.logger.WarnContext(ctx, "invalid subject update",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	view, err := h.subjects.Update(ctx, subjectID, patch)
	if err != nil {
		h.fail(ctx, w, "failed to update subject", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subjectID(w, r)
	if !ok {
		return
	}
	scheduled, err := h.subjects.SoftDelete(ctx, subjectID)
	if err != nil {
		h.fail(ctx, w, "failed to delete subject", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deletionResponse{
		Success:             true,
		Message:             "Membro marcado para exclusão. Exclusão permanente agendada.",
		ScheduledDeletionAt: scheduled,
	})
}

func (h *Handler) handleCancelDeletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subjectID(w, r)
	if !ok {
		return
	}
	h.cancel(ctx, w, subjectID)
}

func (h *Handler) handleSelfCancelDeletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.cancel(ctx, w, requestcontext.Actor(ctx).SubjectID)
}

func (h *Handler) cancel(ctx context.Context, w http.ResponseWriter, subjectID domain.SubjectID) {
	if err := h.subjects.CancelDeletion(ctx, subjectID); err != nil {
		h.fail(ctx, w, "failed to cancel deletion", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Exclusão cancelada",
	})
}

func (h *Handler) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subjectID(w, r)
	if !ok {
		return
	}
	if err := h.subjects.Anonymize(ctx, subjectID); err != nil {
		h.fail(ctx, w, "failed to anonymize subject", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Dados anonimizados com sucesso",
	})
}

func (h *Handler) handleAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.subjects.AccessSummary(ctx, requestcontext.Actor(ctx).SubjectID)
	if err != nil {
		h.fail(ctx, w, "failed to build access summary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req deletionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sanitize(&req)

	scheduled, err := h.subjects.RequestDeletion(ctx, requestcontext.Actor(ctx).SubjectID, req.Reason)
	if err != nil {
		h.fail(ctx, w, "failed to request deletion", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deletionResponse{
		Success:             true,
		Message:             "Solicitação de exclusão registrada. Seus dados serão excluídos após o período de carência.",
		ScheduledDeletionAt: scheduled,
	})
}

func (h *Handler) subjectID(w http.ResponseWriter, r *http.Request) (domain.SubjectID, bool) {
	id, err := domain.ParseSubjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.SubjectID{}, false
	}
	return id, true
}

// queryInt reads a paging parameter. Anything unparsable falls back to the
// default page window.
func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
