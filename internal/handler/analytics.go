package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jobshare/sharetrack/internal/handler/dto"
	"github.com/jobshare/sharetrack/internal/middleware"
	"github.com/jobshare/sharetrack/internal/model"
	"github.com/jobshare/sharetrack/internal/sharing"
)

// AnalyticsHandler serves the read-only share analytics.
type AnalyticsHandler struct {
	registry *sharing.Registry
	urls     sharing.URLBuilder
	now      func() time.Time
	logger   *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(registry *sharing.Registry, urls sharing.URLBuilder, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		registry: registry,
		urls:     urls,
		now:      time.Now,
		logger:   logger.With("component", "handler.analytics"),
	}
}

func (h *AnalyticsHandler) tracker(r *http.Request) *sharing.Tracker {
	return h.registry.For(r.Context(), middleware.GetProfileID(r.Context()))
}

// UserAnalytics handles GET /api/v1/analytics.
func (h *AnalyticsHandler) UserAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker(r).UserAnalytics())
}

// Index handles GET /api/v1/analytics/index.
func (h *AnalyticsHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker(r).Index())
}

// OptimalHours handles GET /api/v1/analytics/optimal-hours.
func (h *AnalyticsHandler) OptimalHours(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.OptimalHoursResponse{Data: h.tracker(r).OptimalSharingHours()})
}

// JobStats handles GET /api/v1/jobs/{jobID}/share-stats.
func (h *AnalyticsHandler) JobStats(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.tracker(r).JobStats(jobID))
}

// Suggestions handles POST /api/v1/jobs/{jobID}/suggestions.
func (h *AnalyticsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}

	var req dto.SuggestionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	suggestions := h.tracker(r).Suggestions(req.ToJob(jobID), h.now())
	writeJSON(w, http.StatusOK, dto.SuggestionsResponse{Data: suggestions})
}

// TrackingURL handles GET /api/v1/jobs/{jobID}/tracking-url?platform=&sharer=.
func (h *AnalyticsHandler) TrackingURL(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	platform := model.Platform(query.Get("platform"))
	if platform == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PLATFORM", "platform query parameter is required")
		return
	}

	writeJSON(w, http.StatusOK, dto.TrackingURLResponse{
		URL:      h.urls.Build(jobID, platform, query.Get("sharer")),
		JobID:    jobID,
		Platform: platform,
	})
}

func (h *AnalyticsHandler) jobID(w http.ResponseWriter, r *http.Request) (model.JobID, bool) {
	id := chi.URLParam(r, "jobID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_JOB_ID", "Job ID is required")
		return "", false
	}
	return model.JobID(id), true
}
