package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"jobportal/internal/application/models"
	id "jobportal/pkg/domain"
	dErrors "jobportal/pkg/domain-errors"
	"jobportal/pkg/platform/httputil"
	"jobportal/pkg/requestcontext"
)

// Service defines the application operations exposed over HTTP.
type Service interface {
	Apply(ctx context.Context, applicantID id.UserID, jobID id.JobID) (*models.ApplyResult, error)
	ListAppliedJobs(ctx context.Context, applicantID id.UserID) ([]*models.AppliedJob, error)
	ListApplicants(ctx context.Context, jobID id.JobID) (*models.JobApplicants, error)
	UpdateStatus(ctx context.Context, applicationID id.ApplicationID, status string) (*models.Application, error)
}

// Handler handles application lifecycle endpoints.
type Handler struct {
	logger     *slog.Logger
	service    Service
	applyGuard []func(http.Handler) http.Handler
}

// New creates a Handler. applyGuard middleware wraps only the apply route.
func New(service Service, logger *slog.Logger, applyGuard ...func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		applyGuard: applyGuard,
	}
}

// Register mounts the routes on r. Callers install authentication first.
func (h *Handler) Register(r chi.Router) {
	r.Get("/applications", h.handleListApplied)
	r.With(h.applyGuard...).Post("/applications/jobs/{jobID}/apply", h.handleApply)
	r.Get("/applications/jobs/{jobID}/applicants", h.handleListApplicants)
	r.Post("/applications/{applicationID}/status", h.handleUpdateStatus)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	rawJobID := chi.URLParam(r, "jobID")
	if rawJobID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Job ID is required"))
		return
	}
	jobID, err := id.ParseJobID(rawJobID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Apply(ctx, userID, jobID)
	if err != nil {
		h.logFailure(ctx, "apply failed", err, "job_id", rawJobID, "user_id", userID.String())

		var dup *models.DuplicateApplicationError
		if errors.As(err, &dup) {
			httputil.WriteErrorWith(w, http.StatusBadRequest, err, httputil.Envelope{
				"applicationId": dup.ApplicationID,
			})
			return
		}
		var elig *models.EligibilityError
		if errors.As(err, &elig) {
			var userCGPA any
			if s := elig.UserCGPA(); s != "" {
				userCGPA = s
			}
			httputil.WriteErrorWith(w, http.StatusForbidden, err, httputil.Envelope{
				"requiredCGPA": elig.RequiredCGPA(),
				"userCGPA":     userCGPA,
			})
			return
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Application submitted successfully!", httputil.Envelope{
		"application": result.Application,
		"jobTitle":    result.JobTitle,
	})
}

func (h *Handler) handleListApplied(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	applied, err := h.service.ListAppliedJobs(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "list applied jobs failed", err, "user_id", userID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", httputil.Envelope{
		"application": applied,
	})
}

func (h *Handler) handleListApplicants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.ListApplicants(ctx, jobID)
	if err != nil {
		h.logFailure(ctx, "list applicants failed", err, "job_id", jobID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", httputil.Envelope{
		"job": view,
	})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := httputil.DecodeJSON[updateStatusRequest](w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid update status request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	if _, err := h.service.UpdateStatus(ctx, applicationID, req.Status); err != nil {
		h.logFailure(ctx, "update status failed", err, "application_id", applicationID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Status updated successfully.", nil)
}

// requireUser reads the authenticated user set by the auth middleware.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		// Only reachable when the route is registered without RequireAuth.
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append([]any{"request_id", requestcontext.RequestID(ctx), "error", err.Error()}, attrs...)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
