package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	sharesRecorded  *prometheus.CounterVec
	recipients      prometheus.Counter
	recordDuration  prometheus.Histogram
	historyCleared  prometheus.Counter
	storageErrors   *prometheus.CounterVec
	trackedProfiles prometheus.Gauge
	analyticsEvents *prometheus.CounterVec
	emailShares     *prometheus.CounterVec
}

// NewPrometheus registers the share-tracking collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		sharesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharetrack_shares_recorded_total",
			Help: "Share events recorded, by platform",
		}, []string{"platform"}),
		recipients: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sharetrack_share_recipients_total",
			Help: "Sum of recipientCount across recorded shares",
		}),
		recordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sharetrack_record_duration_seconds",
			Help:    "Duration of Record including local persistence",
			Buckets: prometheus.DefBuckets,
		}),
		historyCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sharetrack_history_cleared_total",
			Help: "Number of profile clears",
		}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharetrack_storage_errors_total",
			Help: "Blob persistence failures, by operation",
		}, []string{"op"}),
		trackedProfiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sharetrack_tracked_profiles",
			Help: "Profiles currently loaded in memory",
		}),
		analyticsEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharetrack_analytics_events_published_total",
			Help: "Remote analytics publish attempts, by status",
		}, []string{"status"}),
		emailShares: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sharetrack_email_shares_total",
			Help: "Direct email shares, by status",
		}, []string{"status"}),
	}

	reg.MustRegister(
		p.sharesRecorded,
		p.recipients,
		p.recordDuration,
		p.historyCleared,
		p.storageErrors,
		p.trackedProfiles,
		p.analyticsEvents,
		p.emailShares,
	)
	return p
}

// IncShareRecorded increments the per-platform share counter.
func (p *PrometheusRecorder) IncShareRecorded(platform string) {
	p.sharesRecorded.WithLabelValues(platform).Inc()
}

// AddRecipients adds to the recipient counter.
func (p *PrometheusRecorder) AddRecipients(n int64) {
	p.recipients.Add(float64(n))
}

// ObserveRecordDuration records Record latency.
func (p *PrometheusRecorder) ObserveRecordDuration(duration time.Duration) {
	p.recordDuration.Observe(duration.Seconds())
}

// IncHistoryCleared increments the clear counter.
func (p *PrometheusRecorder) IncHistoryCleared() {
	p.historyCleared.Inc()
}

// IncStorageError counts a persistence failure.
func (p *PrometheusRecorder) IncStorageError(op string) {
	p.storageErrors.WithLabelValues(op).Inc()
}

// SetTrackedProfiles sets the loaded profile gauge.
func (p *PrometheusRecorder) SetTrackedProfiles(n int) {
	p.trackedProfiles.Set(float64(n))
}

// IncAnalyticsEventPublished counts remote publish outcomes.
func (p *PrometheusRecorder) IncAnalyticsEventPublished(status string) {
	p.analyticsEvents.WithLabelValues(status).Inc()
}

// IncEmailShare counts direct email share outcomes.
func (p *PrometheusRecorder) IncEmailShare(status string) {
	p.emailShares.WithLabelValues(status).Inc()
}
