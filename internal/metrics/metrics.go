// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, tests, etc.
type Recorder interface {
	// Share tracking
	IncShareRecorded(platform string)
	AddRecipients(n int64)
	ObserveRecordDuration(duration time.Duration)
	IncHistoryCleared()
	IncStorageError(op string) // op: "load", "save", "delete", "decode"
	SetTrackedProfiles(n int)

	// Remote analytics publishing
	IncAnalyticsEventPublished(status string) // status: "success" or "dropped"

	// Direct email shares
	IncEmailShare(status string) // status: "sent", "failed_recorded", "failed"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
