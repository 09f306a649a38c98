package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custodian/internal/consent/models"
	"custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/platform/httputil"
	"custodian/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/consent-mocks.go -package=mocks Service

// Service defines the consent operations the handler exposes.
type Service interface {
	Grant(ctx context.Context, subjectID domain.SubjectID, consentType models.ConsentType) (*models.Status, error)
	Revoke(ctx context.Context, subjectID domain.SubjectID, consentType models.ConsentType) (*models.Status, error)
	CurrentStatus(ctx context.Context, subjectID domain.SubjectID) (*models.Status, error)
	History(ctx context.Context, subjectID domain.SubjectID) ([]*models.Record, error)
	PendingReport(ctx context.Context) ([]models.PendingSubject, error)
}

// Handler serves the self-service consent endpoints and the operator report.
type Handler struct {
	consent Service
	logger  *slog.Logger
}

func New(consent Service, logger *slog.Logger) *Handler {
	return &Handler{consent: consent, logger: logger}
}

// RegisterSelfService mounts routes for the authenticated subject.
func (h *Handler) RegisterSelfService(r chi.Router) {
	r.Get("/privacy/consent", h.handleGetConsent)
	r.Post("/privacy/consent", h.handleSetConsent)
}

// RegisterAdmin mounts the operator report.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/reports/pending-consent", h.handlePendingReport)
}

type consentResponse struct {
	DataConsent bool                    `json:"dataConsent"`
	ConsentDate *time.Time              `json:"consentDate"`
	RevokedAt   *time.Time              `json:"revokedAt"`
	Consents    []models.RecordResponse `json:"consents"`
}

func (h *Handler) handleGetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.Actor(ctx).SubjectID

	status, err := h.consent.CurrentStatus(ctx, subjectID)
	if err != nil {
		h.fail(ctx, w, "failed to load consent status", err)
		return
	}
	history, err := h.consent.History(ctx, subjectID)
	if err != nil {
		h.fail(ctx, w, "failed to load consent history", err)
		return
	}

	resp := consentResponse{
		DataConsent: status.Granted,
		ConsentDate: status.GrantedAt,
		RevokedAt:   status.RevokedAt,
		Consents:    make([]models.RecordResponse, 0, len(history)),
	}
	for _, rec := range history {
		resp.Consents = append(resp.Consents, models.ToRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.Actor(ctx).SubjectID

	var req models.GrantRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid consent request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	if req.Granted == nil {
		httputil.WriteError(w, dErrors.Validation(map[string]string{"granted": "granted must be true or false"}))
		return
	}

	var (
		status  *models.Status
		err     error
		message string
	)
	if *req.Granted {
		status, err = h.consent.Grant(ctx, subjectID, models.ConsentTypeDataProcessing)
		message = "consent granted"
	} else {
		status, err = h.consent.Revoke(ctx, subjectID, models.ConsentTypeDataProcessing)
		message = "consent revoked"
	}
	if err != nil {
		h.fail(ctx, w, "failed to update consent", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     message,
		"dataConsent": status.Granted,
		"consentDate": status.GrantedAt,
	})
}

func (h *Handler) handlePendingReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.consent.PendingReport(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to build pending consent report", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"members": report,
		"total":   len(report),
	})
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
