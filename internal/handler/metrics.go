package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/jobshare/sharetrack/internal/metrics"
)

// MetricsHandler exposes in-memory metrics in Prometheus text format.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeLabeled(w, "sharetrack_shares_recorded_total", "platform", snap.SharesByPlatform)
	writeMetric(w, "sharetrack_share_recipients_total %d\n", snap.Recipients)
	writeMetric(w, "sharetrack_record_duration_seconds_count %d\n", snap.RecordDurationCount)
	writeMetric(w, "sharetrack_record_duration_seconds_sum %.6f\n", float64(snap.RecordDurationTotalNs)/1e9)
	writeMetric(w, "sharetrack_history_cleared_total %d\n", snap.HistoryCleared)
	writeLabeled(w, "sharetrack_storage_errors_total", "op", snap.StorageErrors)
	writeMetric(w, "sharetrack_tracked_profiles %d\n", snap.TrackedProfiles)

	writeMetric(w, "sharetrack_analytics_events_published_total{status=\"success\"} %d\n", snap.AnalyticsEventsPublished)
	writeMetric(w, "sharetrack_analytics_events_published_total{status=\"dropped\"} %d\n", snap.AnalyticsEventsDropped)

	writeLabeled(w, "sharetrack_email_shares_total", "status", snap.EmailShares)
}

func writeLabeled(w http.ResponseWriter, name, label string, counts map[string]uint64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, counts[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
