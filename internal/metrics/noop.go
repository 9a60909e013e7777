package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncShareRecorded is a no-op.
func (n *NoopRecorder) IncShareRecorded(platform string) {}

// AddRecipients is a no-op.
func (n *NoopRecorder) AddRecipients(count int64) {}

// ObserveRecordDuration is a no-op.
func (n *NoopRecorder) ObserveRecordDuration(duration time.Duration) {}

// IncHistoryCleared is a no-op.
func (n *NoopRecorder) IncHistoryCleared() {}

// IncStorageError is a no-op.
func (n *NoopRecorder) IncStorageError(op string) {}

// SetTrackedProfiles is a no-op.
func (n *NoopRecorder) SetTrackedProfiles(count int) {}

// IncAnalyticsEventPublished is a no-op.
func (n *NoopRecorder) IncAnalyticsEventPublished(status string) {}

// IncEmailShare is a no-op.
func (n *NoopRecorder) IncEmailShare(status string) {}
