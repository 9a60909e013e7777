package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SharesRecorded           uint64
	SharesByPlatform         map[string]uint64
	Recipients               int64
	RecordDurationCount      uint64
	RecordDurationTotalNs    int64
	HistoryCleared           uint64
	StorageErrors            map[string]uint64
	TrackedProfiles          int64
	AnalyticsEventsPublished uint64
	AnalyticsEventsDropped   uint64
	EmailShares              map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests and the plain /metrics page.
type InMemoryRecorder struct {
	sharesRecorded        uint64
	recipients            int64
	recordDurationCount   uint64
	recordDurationTotalNs int64
	historyCleared        uint64
	trackedProfiles       int64
	analyticsPublished    uint64
	analyticsDropped      uint64

	mu          sync.Mutex
	byPlatform  map[string]uint64
	storageErrs map[string]uint64
	emailShares map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		byPlatform:  make(map[string]uint64),
		storageErrs: make(map[string]uint64),
		emailShares: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		SharesRecorded:           atomic.LoadUint64(&m.sharesRecorded),
		SharesByPlatform:         copyCounts(m.byPlatform),
		Recipients:               atomic.LoadInt64(&m.recipients),
		RecordDurationCount:      atomic.LoadUint64(&m.recordDurationCount),
		RecordDurationTotalNs:    atomic.LoadInt64(&m.recordDurationTotalNs),
		HistoryCleared:           atomic.LoadUint64(&m.historyCleared),
		StorageErrors:            copyCounts(m.storageErrs),
		TrackedProfiles:          atomic.LoadInt64(&m.trackedProfiles),
		AnalyticsEventsPublished: atomic.LoadUint64(&m.analyticsPublished),
		AnalyticsEventsDropped:   atomic.LoadUint64(&m.analyticsDropped),
		EmailShares:              copyCounts(m.emailShares),
	}
}

// IncShareRecorded increments the recorded share counter.
func (m *InMemoryRecorder) IncShareRecorded(platform string) {
	atomic.AddUint64(&m.sharesRecorded, 1)
	m.mu.Lock()
	m.byPlatform[platform]++
	m.mu.Unlock()
}

// AddRecipients adds to the recipient total.
func (m *InMemoryRecorder) AddRecipients(n int64) {
	atomic.AddInt64(&m.recipients, n)
}

// ObserveRecordDuration records how long Record took.
func (m *InMemoryRecorder) ObserveRecordDuration(duration time.Duration) {
	atomic.AddUint64(&m.recordDurationCount, 1)
	atomic.AddInt64(&m.recordDurationTotalNs, duration.Nanoseconds())
}

// IncHistoryCleared increments the clear counter.
func (m *InMemoryRecorder) IncHistoryCleared() {
	atomic.AddUint64(&m.historyCleared, 1)
}

// IncStorageError counts a persistence failure by operation.
func (m *InMemoryRecorder) IncStorageError(op string) {
	m.mu.Lock()
	m.storageErrs[op]++
	m.mu.Unlock()
}

// SetTrackedProfiles sets the number of loaded profiles.
func (m *InMemoryRecorder) SetTrackedProfiles(n int) {
	atomic.StoreInt64(&m.trackedProfiles, int64(n))
}

// IncAnalyticsEventPublished counts remote publish outcomes.
func (m *InMemoryRecorder) IncAnalyticsEventPublished(status string) {
	if status == "success" {
		atomic.AddUint64(&m.analyticsPublished, 1)
		return
	}
	atomic.AddUint64(&m.analyticsDropped, 1)
}

// IncEmailShare counts direct email share outcomes.
func (m *InMemoryRecorder) IncEmailShare(status string) {
	m.mu.Lock()
	m.emailShares[status]++
	m.mu.Unlock()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
