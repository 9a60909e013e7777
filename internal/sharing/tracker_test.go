package sharing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobshare/sharetrack/internal/metrics"
	"github.com/jobshare/sharetrack/internal/model"
	"github.com/jobshare/sharetrack/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ShareEvent
}

func (p *recordingPublisher) PublishAsync(event model.ShareEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []model.ShareEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ShareEvent(nil), p.events...)
}

// failingStore fails every operation.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Load(context.Context, string) ([]byte, error) { return nil, errStoreDown }
func (failingStore) Save(context.Context, string, []byte) error   { return errStoreDown }
func (failingStore) Delete(context.Context, ...string) error      { return errStoreDown }
func (failingStore) Ping(context.Context) error                   { return errStoreDown }

var baseTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T, store storage.BlobStore, clock *fakeClock) *Tracker {
	t.Helper()
	return NewTracker(context.Background(), store, Options{
		Location: time.UTC,
		Now:      clock.Now,
	})
}

func record(tr *Tracker, jobID string, platform model.Platform) model.ShareEvent {
	return tr.Record(context.Background(), RecordInput{JobID: model.JobID(jobID), Platform: platform})
}

func TestTracker_RecordSameJobTwice(t *testing.T) {
	t.Parallel()

	tr := newTestTracker(t, storage.NewMemory(), newFakeClock(baseTime))

	record(tr, "job-1", model.PlatformLinkedIn)
	record(tr, "job-1", model.PlatformLinkedIn)

	stats := tr.JobStats("job-1")
	assert.Equal(t, int64(2), stats.TotalShares)
	assert.Equal(t, int64(2), stats.PlatformStats["linkedin"])
	assert.Len(t, stats.History, 2)
}

func TestTracker_RecipientCountWeightsTotals(t *testing.T) {
	t.Parallel()

	tr := newTestTracker(t, storage.NewMemory(), newFakeClock(baseTime))
	record(tr, "job-1", model.PlatformTwitter)

	before := tr.Index().TotalShares
	event := tr.Record(context.Background(), RecordInput{
		JobID:          "job-9",
		Platform:       model.PlatformDirectEmail,
		CustomMessage:  "hi",
		RecipientCount: 5,
	})

	assert.Equal(t, int64(5), event.RecipientCount)
	assert.Equal(t, before+5, tr.Index().TotalShares)
	assert.Equal(t, int64(5), tr.Index().SharesByJob.Get("job-9"))
}

func TestTracker_RecordDefaults(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tr := newTestTracker(t, storage.NewMemory(), clock)

	event := tr.Record(context.Background(), RecordInput{JobID: "job-1", RecipientCount: -3})

	assert.Equal(t, model.PlatformCustom, event.Platform)
	assert.Equal(t, int64(1), event.RecipientCount)
	assert.True(t, event.Timestamp.Equal(baseTime))
	assert.NotEmpty(t, event.ID)

	other := record(tr, "job-1", "mastodon")
	assert.NotEqual(t, event.ID, other.ID)
	assert.Equal(t, model.Platform("mastodon"), other.Platform)
	assert.Equal(t, int64(1), tr.Index().SharesByPlatform.Get("mastodon"))
}

func TestTracker_RecipientCountIsCapped(t *testing.T) {
	t.Parallel()

	tr := newTestTracker(t, storage.NewMemory(), newFakeClock(baseTime))

	huge := tr.Record(context.Background(), RecordInput{JobID: "job-1", RecipientCount: math.MaxInt64})
	tr.Record(context.Background(), RecordInput{JobID: "job-1", RecipientCount: 2})

	assert.Equal(t, int64(MaxRecipientCount), huge.RecipientCount)

	state := tr.Index()
	assert.Equal(t, int64(MaxRecipientCount+2), state.TotalShares)
	assert.Equal(t, int64(MaxRecipientCount+2), state.SharesByJob.Get("job-1"))
	assert.Equal(t, int64(MaxRecipientCount+2), state.SharesByPlatform.Get(string(model.PlatformCustom)))
}

func TestTracker_LogBoundedIndexLifetime(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tr := newTestTracker(t, storage.NewMemory(), clock)

	var events []model.ShareEvent
	var total int64
	for i := 1; i <= 150; i++ {
		clock.Advance(time.Minute)
		e := tr.Record(context.Background(), RecordInput{
			JobID:          model.JobID(fmt.Sprintf("job-%d", i)),
			Platform:       model.PlatformLinkedIn,
			RecipientCount: int64(i%3 + 1),
		})
		events = append(events, e)
		total += e.RecipientCount
	}

	history := tr.History(0)
	require.Len(t, history, DefaultCapacity)
	for i, e := range history {
		assert.Equal(t, events[len(events)-1-i].ID, e.ID, "position %d", i)
	}

	index := tr.Index()
	assert.Equal(t, total, index.TotalShares)
	assert.Equal(t, total, index.SharesByPlatform.Get("linkedin"))
	assert.Equal(t, total, index.SharesByJob.Sum())
	assert.Equal(t, total, index.SharesByDate.Sum())
	assert.Equal(t, 150, index.SharesByJob.Len())
	assert.Equal(t, events[0].RecipientCount, index.SharesByJob.Get("job-1"))

	// The oldest job has rolled out of the log but not out of the index.
	assert.Empty(t, tr.JobStats("job-1").History)
}

func TestTracker_HundredAndFirstEvictsFirst(t *testing.T) {
	t.Parallel()

	tr := newTestTracker(t, storage.NewMemory(), newFakeClock(baseTime))

	var first, last model.ShareEvent
	for i := 1; i <= 101; i++ {
		e := record(tr, fmt.Sprintf("job-%d", i), model.PlatformTwitter)
		if i == 1 {
			first = e
		}
		last = e
	}

	history := tr.History(0)
	require.Len(t, history, 100)
	assert.Equal(t, last.ID, history[0].ID)
	for _, e := range history {
		assert.NotEqual(t, first.ID, e.ID)
	}
	assert.Equal(t, int64(101), tr.Index().TotalShares)
	assert.Equal(t, int64(1), tr.Index().SharesByJob.Get("job-1"))
}

func TestTracker_HistoryLimit(t *testing.T) {
	t.Parallel()

	tr := newTestTracker(t, storage.NewMemory(), newFakeClock(baseTime))
	for i := 0; i < 5; i++ {
		record(tr, "job-1", model.PlatformClipboard)
	}

	assert.Len(t, tr.History(2), 2)
	assert.Len(t, tr.History(0), 5)
	assert.Len(t, tr.History(50), 5)

	h := tr.History(0)
	h[0].JobID = "mutated"
	assert.Equal(t, model.JobID("job-1"), tr.History(1)[0].JobID)
}

func TestTracker_JobStatsIdempotent(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(baseTime)
	tr := newTestTracker(t, storage.NewMemory(), clock)
	record(tr, "job-1", model.PlatformLinkedIn)
	clock.Advance(time.Hour)
	record(tr, "job-1", model.PlatformFacebook)
	record(tr, "job-2", model.PlatformFacebook)

	first := tr.JobStats("job-1")
	second := tr.JobStats("job-1")
	assert.Equal(t, first, second)
	require.NotNil(t, first.LastSharedAt)
	assert.True(t, first.LastSharedAt.Equal(baseTime.Add(time.Hour)))

	empty := tr.JobStats("missing")
	assert.Nil(t, empty.LastSharedAt)
	assert.Empty(t, empty.History)
	assert.Zero(t, empty.TotalShares)
}

func TestTracker_ClearResetsEverything(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	rec := metrics.NewInMemory()
	tr := NewTracker(context.Background(), store, Options{Location: time.UTC, Metrics: rec})

	record(tr, "job-1", model.PlatformLinkedIn)
	record(tr, "job-2", model.PlatformTwitter)
	require.Equal(t, 2, store.Len())

	tr.Clear(context.Background())

	index := tr.Index()
	assert.Zero(t, index.TotalShares)
	assert.Zero(t, index.SharesByPlatform.Len())
	assert.Zero(t, index.SharesByJob.Len())
	assert.Zero(t, index.SharesByDate.Len())
	assert.Empty(t, tr.History(0))
	assert.Zero(t, store.Len())
	assert.Equal(t, uint64(1), rec.Snapshot().HistoryCleared)
}

func TestTracker_ReloadFromStore(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	clock := newFakeClock(baseTime)
	tr := newTestTracker(t, store, clock)
	record(tr, "job-1", model.PlatformTwitter)
	record(tr, "job-2", model.PlatformLinkedIn)
	record(tr, "job-2", model.PlatformTwitter)

	reloaded := newTestTracker(t, store, clock)

	assert.Equal(t, tr.History(0), reloaded.History(0))
	index := reloaded.Index()
	assert.Equal(t, int64(3), index.TotalShares)
	assert.Equal(t, []string{"twitter", "linkedin"}, index.SharesByPlatform.Keys())
}

func TestTracker_IndexNotRebuiltFromLog(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	tr := newTestTracker(t, store, newFakeClock(baseTime))
	record(tr, "job-1", model.PlatformTwitter)
	record(tr, "job-1", model.PlatformTwitter)

	require.NoError(t, store.Delete(context.Background(), AnalyticsKey))

	reloaded := newTestTracker(t, store, newFakeClock(baseTime))
	assert.Len(t, reloaded.History(0), 2)
	assert.Zero(t, reloaded.Index().TotalShares)
	assert.Zero(t, reloaded.Index().SharesByPlatform.Len())
}

func TestTracker_CorruptBlobsStartEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Save(ctx, HistoryKey, []byte(`[{"id":"x",`)))
	require.NoError(t, store.Save(ctx, AnalyticsKey, []byte(`not json`)))

	rec := metrics.NewInMemory()
	tr := NewTracker(ctx, store, Options{Location: time.UTC, Metrics: rec})

	assert.Empty(t, tr.History(0))
	assert.Zero(t, tr.Index().TotalShares)
	assert.Equal(t, uint64(2), rec.Snapshot().StorageErrors["decode"])

	record(tr, "job-1", model.PlatformLinkedIn)
	assert.Equal(t, int64(1), tr.Index().TotalShares)
}

func TestTracker_PersistedBlobShape(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemory()
	tr := newTestTracker(t, store, newFakeClock(baseTime))
	record(tr, "job-1", model.PlatformWhatsApp)

	raw, err := store.Load(ctx, AnalyticsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"totalShares": 1,
		"sharesByPlatform": {"whatsapp": 1},
		"sharesByJob": {"job-1": 1},
		"sharesByDate": {"2026-03-02": 1}
	}`, string(raw))

	raw, err = store.Load(ctx, HistoryKey)
	require.NoError(t, err)
	var log []map[string]any
	require.NoError(t, json.Unmarshal(raw, &log))
	require.Len(t, log, 1)
	assert.Equal(t, "whatsapp", log[0]["platform"])
	assert.Equal(t, "job-1", log[0]["jobId"])
}

func TestTracker_StorageFailureNeverSurfaces(t *testing.T) {
	t.Parallel()

	rec := metrics.NewInMemory()
	pub := &recordingPublisher{}
	tr := NewTracker(context.Background(), failingStore{}, Options{
		Location:  time.UTC,
		Metrics:   rec,
		Publisher: pub,
	})

	event := record(tr, "job-1", model.PlatformLinkedIn)
	record(tr, "job-1", model.PlatformLinkedIn)

	assert.Len(t, tr.History(0), 2)
	assert.Equal(t, int64(2), tr.JobStats("job-1").TotalShares)
	assert.Equal(t, int64(2), tr.Index().TotalShares)

	tr.Clear(context.Background())
	assert.Empty(t, tr.History(0))

	snap := rec.Snapshot()
	assert.Equal(t, uint64(2), snap.StorageErrors["load"])
	assert.Equal(t, uint64(4), snap.StorageErrors["save"])
	assert.Equal(t, uint64(1), snap.StorageErrors["delete"])

	require.Len(t, pub.Events(), 2)
	assert.Equal(t, event.ID, pub.Events()[0].ID)
}

func TestTracker_ConcurrentRecords(t *testing.T) {
	t.Parallel()

	tr := newTestTracker(t, storage.NewMemory(), newFakeClock(baseTime))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				record(tr, fmt.Sprintf("job-%d", i), model.PlatformTelegram)
				_ = tr.UserAnalytics()
			}
		}(i)
	}
	wg.Wait()

	index := tr.Index()
	assert.Equal(t, int64(200), index.TotalShares)
	assert.Equal(t, index.TotalShares, index.SharesByJob.Sum())
	assert.Len(t, tr.History(0), DefaultCapacity)
}
