// Package sharing records job share events and derives share analytics.
//
// A Tracker owns one profile's bounded share log and its lifetime aggregate
// index. The log keeps only the newest Capacity events; the index keeps
// running totals that are never decremented when the log drops old events.
// Both are persisted as separate blobs, and persistence failures never
// surface to callers: the in-memory state stays authoritative.
package sharing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jobshare/sharetrack/internal/metrics"
	"github.com/jobshare/sharetrack/internal/model"
	"github.com/jobshare/sharetrack/internal/storage"
)

const (
	// DefaultCapacity is the number of share events retained in the log.
	DefaultCapacity = 100

	// DefaultRecentWindow bounds "recent" statistics.
	DefaultRecentWindow = 30 * 24 * time.Hour

	// DefaultPersistTimeout caps a single blob write.
	DefaultPersistTimeout = 2 * time.Second

	// MaxRecipientCount caps the weight of a single share event.
	MaxRecipientCount = 10_000

	// HistoryKey and AnalyticsKey are the default blob keys.
	HistoryKey   = "job_share_history"
	AnalyticsKey = "job_share_analytics"
)

// EventPublisher forwards recorded events to a remote collector.
// PublishAsync must return immediately.
type EventPublisher interface {
	PublishAsync(event model.ShareEvent)
}

// Options configures a Tracker. Zero values fall back to defaults.
type Options struct {
	Capacity       int
	RecentWindow   time.Duration
	PersistTimeout time.Duration
	Location       *time.Location // client-local zone for day and hour buckets
	Now            func() time.Time
	HistoryKey     string
	AnalyticsKey   string
	Publisher      EventPublisher
	Logger         *slog.Logger
	Metrics        metrics.Recorder
}

func (o Options) withDefaults() Options {
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	if o.RecentWindow <= 0 {
		o.RecentWindow = DefaultRecentWindow
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = DefaultPersistTimeout
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.HistoryKey == "" {
		o.HistoryKey = HistoryKey
	}
	if o.AnalyticsKey == "" {
		o.AnalyticsKey = AnalyticsKey
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewNoop()
	}
	return o
}

// RecordInput describes a share to record. Missing values are defaulted, never rejected.
type RecordInput struct {
	JobID          model.JobID
	Platform       model.Platform
	CustomMessage  string
	RecipientCount int64
	Context        model.ShareContext
}

// Tracker is the share event store for one profile.
type Tracker struct {
	store   storage.BlobStore
	opts    Options
	logger  *slog.Logger
	metrics metrics.Recorder
	entropy io.Reader

	mu    sync.RWMutex
	log   model.ShareEventList // newest first, len <= opts.Capacity
	index *Index
}

// NewTracker loads persisted state from store and returns a ready Tracker.
// Absent or unreadable blobs start empty; the index is never rebuilt from the log.
func NewTracker(ctx context.Context, store storage.BlobStore, opts Options) *Tracker {
	opts = opts.withDefaults()
	t := &Tracker{
		store:   store,
		opts:    opts,
		logger:  opts.Logger.With("component", "sharing.tracker", "history_key", opts.HistoryKey),
		metrics: opts.Metrics,
		entropy: ulid.DefaultEntropy(),
		log:     model.ShareEventList{},
		index:   NewIndex(opts.Location),
	}
	t.load(ctx)
	return t
}

// Record appends a share event, updates the index, persists both, and
// hands the event to the publisher. It never fails.
func (t *Tracker) Record(ctx context.Context, in RecordInput) model.ShareEvent {
	start := time.Now()
	now := t.opts.Now()

	event := model.ShareEvent{
		ID:             ulid.MustNew(ulid.Timestamp(now), t.entropy).String(),
		JobID:          in.JobID,
		Platform:       in.Platform,
		CustomMessage:  in.CustomMessage,
		RecipientCount: in.RecipientCount,
		Timestamp:      now,
		Context:        in.Context,
	}
	if event.Platform == "" {
		event.Platform = model.PlatformCustom
	}
	event.RecipientCount = max(1, min(event.RecipientCount, MaxRecipientCount))

	t.mu.Lock()
	log := make(model.ShareEventList, 0, min(len(t.log)+1, t.opts.Capacity))
	log = append(log, event)
	log = append(log, t.log...)
	if len(log) > t.opts.Capacity {
		log = log[:t.opts.Capacity]
	}
	t.log = log
	t.index.Update(event)
	t.persistLocked(ctx)
	t.mu.Unlock()

	if t.opts.Publisher != nil {
		t.opts.Publisher.PublishAsync(event)
	}

	t.metrics.IncShareRecorded(string(event.Platform))
	t.metrics.AddRecipients(event.RecipientCount)
	t.metrics.ObserveRecordDuration(time.Since(start))

	t.logger.Debug("share recorded",
		"event_id", event.ID,
		"job_id", event.JobID,
		"platform", event.Platform,
		"recipient_count", event.RecipientCount,
	)

	return event
}

// History returns up to limit retained events, newest first.
// A limit <= 0 returns the whole retained log.
func (t *Tracker) History(limit int) model.ShareEventList {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := t.log.Clone()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Clear empties the log and the index and removes both persisted blobs.
func (t *Tracker) Clear(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.log = model.ShareEventList{}
	t.index.Clear()

	ctx, cancel := t.persistContext(ctx)
	defer cancel()

	if err := t.store.Delete(ctx, t.opts.HistoryKey, t.opts.AnalyticsKey); err != nil {
		t.logger.Error("failed to delete persisted share state", "error", err)
		t.metrics.IncStorageError("delete")
	}
	t.metrics.IncHistoryCleared()
	t.logger.Info("share history cleared")
}

// Index returns a copy of the lifetime aggregate index.
func (t *Tracker) Index() model.AnalyticsState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.index.State()
}

// Location returns the zone used for day and hour buckets.
func (t *Tracker) Location() *time.Location {
	return t.opts.Location
}

func (t *Tracker) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	// Writes must finish even if the request that triggered them is gone.
	return context.WithTimeout(context.WithoutCancel(ctx), t.opts.PersistTimeout)
}

// persistLocked writes both blobs. Caller holds t.mu.
func (t *Tracker) persistLocked(ctx context.Context) {
	ctx, cancel := t.persistContext(ctx)
	defer cancel()

	t.saveBlob(ctx, t.opts.HistoryKey, t.log)
	t.saveBlob(ctx, t.opts.AnalyticsKey, t.index.state)
}

func (t *Tracker) saveBlob(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		t.logger.Error("failed to encode share state", "key", key, "error", err)
		t.metrics.IncStorageError("encode")
		return
	}
	if err := t.store.Save(ctx, key, data); err != nil {
		t.logger.Warn("failed to persist share state", "key", key, "error", err)
		t.metrics.IncStorageError("save")
	}
}

func (t *Tracker) load(ctx context.Context) {
	ctx, cancel := t.persistContext(ctx)
	defer cancel()

	var log model.ShareEventList
	if t.loadBlob(ctx, t.opts.HistoryKey, &log) {
		if len(log) > t.opts.Capacity {
			log = log[:t.opts.Capacity]
		}
		t.log = log
	}

	var state model.AnalyticsState
	if t.loadBlob(ctx, t.opts.AnalyticsKey, &state) {
		t.index.Load(state)
	}

	t.logger.Debug("share state loaded",
		"events", len(t.log),
		"total_shares", t.index.state.TotalShares,
	)
}

// loadBlob decodes key into v. It reports false when the blob is absent or unusable.
func (t *Tracker) loadBlob(ctx context.Context, key string, v any) bool {
	data, err := t.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			t.logger.Warn("failed to load share state", "key", key, "error", err)
			t.metrics.IncStorageError("load")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.logger.Warn("discarding corrupt share state", "key", key, "error", err)
		t.metrics.IncStorageError("decode")
		return false
	}
	return true
}
