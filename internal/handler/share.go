package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jobshare/sharetrack/internal/analytics"
	"github.com/jobshare/sharetrack/internal/emailshare"
	"github.com/jobshare/sharetrack/internal/handler/dto"
	"github.com/jobshare/sharetrack/internal/middleware"
	"github.com/jobshare/sharetrack/internal/model"
	"github.com/jobshare/sharetrack/internal/sharing"
)

// ShareHandler handles recording, listing, exporting and clearing shares.
type ShareHandler struct {
	registry *sharing.Registry
	email    *emailshare.Service
	now      func() time.Time
	logger   *slog.Logger
}

// NewShareHandler creates a new ShareHandler. email may be nil when direct
// email sharing is disabled.
func NewShareHandler(registry *sharing.Registry, email *emailshare.Service, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		registry: registry,
		email:    email,
		now:      time.Now,
		logger:   logger.With("component", "handler.share"),
	}
}

func (h *ShareHandler) tracker(r *http.Request) *sharing.Tracker {
	return h.registry.For(r.Context(), middleware.GetProfileID(r.Context()))
}

// Record handles POST /api/v1/shares.
// Storage problems never fail the request; the share is always recorded in memory.
func (h *ShareHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	event := h.tracker(r).Record(r.Context(), sharing.RecordInput{
		JobID:          req.JobID,
		Platform:       req.Platform,
		CustomMessage:  req.CustomMessage,
		RecipientCount: req.RecipientCount,
		Context:        requestContext(r, req.Context),
	})

	writeJSON(w, http.StatusCreated, event)
}

// History handles GET /api/v1/shares?limit=N.
func (h *ShareHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	history := h.tracker(r).History(limit)
	writeJSON(w, http.StatusOK, dto.HistoryResponse{Data: history, Count: len(history)})
}

// Clear handles DELETE /api/v1/shares.
func (h *ShareHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.tracker(r).Clear(r.Context())

	h.logger.Info("share_history_cleared", "profile_id", middleware.GetProfileID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/v1/shares/export as a JSON file download.
func (h *ShareHandler) Export(w http.ResponseWriter, r *http.Request) {
	t := h.tracker(r)
	now := h.now()
	doc := t.Export(now)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sharing.ExportFilename(now, t.Location())+`"`)
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		h.logger.Warn("failed to write export", "error", err)
	}
}

// EmailShare handles POST /api/v1/shares/email.
func (h *ShareHandler) EmailShare(w http.ResponseWriter, r *http.Request) {
	if h.email == nil {
		writeError(w, http.StatusServiceUnavailable, "EMAIL_NOT_CONFIGURED", "Email sharing is not configured")
		return
	}

	var req dto.EmailShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.email.Share(r.Context(), h.tracker(r), emailshare.Input{
		JobID:         req.JobID,
		Recipients:    req.Recipients,
		CustomMessage: req.CustomMessage,
		Context:       requestContext(r, req.Context),
	})
	if err != nil {
		h.handleEmailError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *ShareHandler) handleEmailError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, emailshare.ErrNoRecipients):
		writeError(w, http.StatusBadRequest, "NO_RECIPIENTS", "At least one recipient is required")
	case errors.Is(err, emailshare.ErrInvalidRecipient):
		writeError(w, http.StatusBadRequest, "INVALID_RECIPIENT", err.Error())
	case errors.Is(err, emailshare.ErrTooManyRecipients):
		writeError(w, http.StatusBadRequest, "TOO_MANY_RECIPIENTS", err.Error())
	case errors.Is(err, emailshare.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "EMAIL_NOT_CONFIGURED", "Email sharing is not configured")
	default:
		h.logger.Error("email_share_failed", "error", err)
		writeError(w, http.StatusBadGateway, "EMAIL_SEND_FAILED", "Failed to send email")
	}
}

// requestContext fills share context gaps from the request and strips
// query strings from URLs.
func requestContext(r *http.Request, c model.ShareContext) model.ShareContext {
	if c.UserAgent == "" {
		c.UserAgent = r.UserAgent()
	}
	if c.Referrer == "" {
		c.Referrer = r.Referer()
	}
	return analytics.SanitizeContext(c)
}
