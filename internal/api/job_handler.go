// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daystart-app/daystart-api/internal/api/shared"
	"github.com/daystart-app/daystart-api/internal/platform/logger"
	"github.com/daystart-app/daystart-api/internal/service"
	"github.com/daystart-app/daystart-api/internal/store"
)

// JobHandler handles briefing-job HTTP requests.
type JobHandler struct {
	briefingService *service.BriefingService
	logger          *slog.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(briefingService *service.BriefingService, logger *slog.Logger) *JobHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for JobHandler")
	}

	return &JobHandler{
		briefingService: briefingService,
		logger:          logger.With(slog.String("component", "job_handler")),
	}
}

// CreateOrResetJob handles POST /jobs requests. It schedules the caller's
// briefing for one local day, or resets the existing one; the response is
// 201 for a fresh job and 200 for a reset.
func (h *JobHandler) CreateOrResetJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}

	var req CreateJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	job, created, err := h.briefingService.CreateOrResetJob(r.Context(), service.CreateBriefingRequest{
		UserID:      userID,
		LocalDate:   req.LocalDate,
		ScheduledAt: req.ScheduledAt,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		Snapshot:    snapshotFromRequest(req.Snapshot),
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	log.Debug("briefing job upserted",
		slog.String("job_id", job.ID.String()),
		slog.Bool("created", created))
	shared.RespondWithJSON(w, r, status, jobToResponse(job))
}

// GetJob handles GET /jobs/{id} requests. Callers may only read their own
// jobs; a foreign job reads as not found.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.briefingService.GetJob(r.Context(), jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if job.UserID != userID {
		shared.RespondWithError(w, r, http.StatusNotFound, "Briefing job not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// GetJobForDate handles GET /jobs?local_date=YYYY-MM-DD requests, returning
// the caller's job for that local calendar day.
func (h *JobHandler) GetJobForDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}

	localDate := r.URL.Query().Get("local_date")
	if localDate == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "local_date query parameter required")
		return
	}
	if _, err := time.Parse("2006-01-02", localDate); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "local_date must be a YYYY-MM-DD date")
		return
	}

	job, err := h.briefingService.GetJobForUserDate(r.Context(), userID, localDate)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// ListJobsInRange handles GET /jobs/range?from=...&to=... requests from the
// re-sync scheduler. Timestamps are RFC 3339; the range is half-open [from, to).
func (h *JobHandler) ListJobsInRange(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticatedUser(w, r); !ok {
		return
	}

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
		return
	}

	summaries, err := h.briefingService.ListJobsInRange(r.Context(), from, to)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"jobs": summaries,
	})
}

// MarkDownloaded handles POST /jobs/{id}/downloaded requests, recording that
// the client fetched the finished briefing audio.
func (h *JobHandler) MarkDownloaded(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	// Ownership check before the stamp; a foreign job reads as not found.
	job, err := h.briefingService.GetJob(r.Context(), jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if job.UserID != userID {
		shared.RespondWithError(w, r, http.StatusNotFound, "Briefing job not found")
		return
	}

	if err := h.briefingService.MarkDownloaded(r.Context(), jobID); err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusConflict, "Briefing is not ready for download")
			return
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetJobLogs handles GET /jobs/{id}/logs requests, returning the job's audit
// trail for troubleshooting a briefing that failed or stalled. Ownership rules
// match GetJob.
func (h *JobHandler) GetJobLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.briefingService.GetJob(r.Context(), jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if job.UserID != userID {
		shared.RespondWithError(w, r, http.StatusNotFound, "Briefing job not found")
		return
	}

	entries, err := h.briefingService.ListJobLogs(r.Context(), jobID, jobLogLimit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"logs": jobLogsToResponse(entries),
	})
}

// authenticatedUser pulls the user ID the auth middleware stored on the
// context, writing a 401 if it is missing.
func (h *JobHandler) authenticatedUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		h.logger.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}
