package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	m := NewInMemory()

	m.IncShareRecorded("linkedin")
	m.IncShareRecorded("linkedin")
	m.IncShareRecorded("mastodon")
	m.AddRecipients(7)
	m.ObserveRecordDuration(2 * time.Millisecond)
	m.IncStorageError("save")
	m.IncAnalyticsEventPublished("success")
	m.IncAnalyticsEventPublished("dropped")
	m.IncEmailShare("failed_recorded")
	m.SetTrackedProfiles(3)
	m.IncHistoryCleared()

	snap := m.Snapshot()

	if snap.SharesRecorded != 3 {
		t.Errorf("SharesRecorded = %d, want 3", snap.SharesRecorded)
	}
	if snap.SharesByPlatform["linkedin"] != 2 {
		t.Errorf("linkedin = %d, want 2", snap.SharesByPlatform["linkedin"])
	}
	if snap.Recipients != 7 {
		t.Errorf("Recipients = %d, want 7", snap.Recipients)
	}
	if snap.RecordDurationCount != 1 || snap.RecordDurationTotalNs != int64(2*time.Millisecond) {
		t.Errorf("record duration = %d/%d", snap.RecordDurationCount, snap.RecordDurationTotalNs)
	}
	if snap.StorageErrors["save"] != 1 {
		t.Errorf("storage save errors = %d, want 1", snap.StorageErrors["save"])
	}
	if snap.AnalyticsEventsPublished != 1 || snap.AnalyticsEventsDropped != 1 {
		t.Errorf("analytics = %d/%d", snap.AnalyticsEventsPublished, snap.AnalyticsEventsDropped)
	}
	if snap.EmailShares["failed_recorded"] != 1 {
		t.Errorf("email shares = %v", snap.EmailShares)
	}
	if snap.TrackedProfiles != 3 || snap.HistoryCleared != 1 {
		t.Errorf("profiles=%d cleared=%d", snap.TrackedProfiles, snap.HistoryCleared)
	}
}

func TestInMemoryRecorder_SnapshotIsCopy(t *testing.T) {
	m := NewInMemory()
	m.IncShareRecorded("twitter")

	snap := m.Snapshot()
	snap.SharesByPlatform["twitter"] = 99

	if m.Snapshot().SharesByPlatform["twitter"] != 1 {
		t.Error("mutating a snapshot changed the recorder")
	}
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.IncShareRecorded("whatsapp")
	p.AddRecipients(5)
	p.IncStorageError("load")
	p.IncAnalyticsEventPublished("dropped")

	if got := testutil.ToFloat64(p.sharesRecorded.WithLabelValues("whatsapp")); got != 1 {
		t.Errorf("shares_recorded{whatsapp} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.recipients); got != 5 {
		t.Errorf("recipients = %v, want 5", got)
	}

	expected := `
# HELP sharetrack_storage_errors_total Blob persistence failures, by operation
# TYPE sharetrack_storage_errors_total counter
sharetrack_storage_errors_total{op="load"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "sharetrack_storage_errors_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoop()
	r.IncShareRecorded("linkedin")
	r.IncStorageError("save")
	r.SetTrackedProfiles(1)
}
