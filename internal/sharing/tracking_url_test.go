package sharing

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobshare/sharetrack/internal/metrics"
	"github.com/jobshare/sharetrack/internal/model"
	"github.com/jobshare/sharetrack/internal/storage"
)

func TestTrackingURL(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1767225600123)
	raw := TrackingURL("https://x.test", "42", model.PlatformTwitter, "", "JobBoard", at)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/jobs/42", u.Path)

	q := u.Query()
	assert.Equal(t, "twitter", q.Get("utm_content"))
	assert.Equal(t, "JobBoard", q.Get("utm_source"))
	assert.Equal(t, "social", q.Get("utm_medium"))
	assert.Equal(t, "job_share", q.Get("utm_campaign"))
	assert.Equal(t, "1767225600123", q.Get("shared_at"))
	assert.False(t, q.Has("shared_by"))
}

func TestTrackingURL_EncodesValues(t *testing.T) {
	t.Parallel()

	raw := TrackingURL("https://x.test/", "a b/c", "custom&x", "user@example.com", "Job Board", time.Now())

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/jobs/a b/c", u.Path)
	assert.Contains(t, raw, "/jobs/a%20b%2Fc?")
	assert.Equal(t, "custom&x", u.Query().Get("utm_content"))
	assert.Equal(t, "user@example.com", u.Query().Get("shared_by"))
	assert.Equal(t, "Job Board", u.Query().Get("utm_source"))
}

func TestURLBuilder(t *testing.T) {
	t.Parallel()

	b := URLBuilder{
		BaseURL: "https://jobs.example",
		Source:  "JobBoard",
		Now:     func() time.Time { return time.UnixMilli(5) },
	}

	assert.Equal(t,
		"https://jobs.example/jobs/7?shared_at=5&shared_by=u1&utm_campaign=job_share&utm_content=linkedin&utm_medium=social&utm_source=JobBoard",
		b.Build("7", model.PlatformLinkedIn, "u1"),
	)
}

func TestTracker_Export(t *testing.T) {
	t.Parallel()

	tr := newTestTracker(t, storage.NewMemory(), newFakeClock(baseTime))
	record(tr, "job-1", model.PlatformTemplate)

	doc := tr.Export(baseTime)
	assert.Equal(t, ExportVersion, doc.Version)
	assert.Len(t, doc.ShareHistory, 1)
	assert.Equal(t, int64(1), doc.Analytics.TotalShares)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"shareHistory", "analytics", "exportDate", "version"} {
		assert.Contains(t, decoded, key)
	}

	assert.Equal(t, "job-share-analytics-2026-03-02.json", ExportFilename(baseTime, time.UTC))
}

func TestRegistry_IsolatesProfiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemory()
	rec := metrics.NewInMemory()
	reg := NewRegistry(store, "sharetrack:", 0, Options{Location: time.UTC, Metrics: rec})

	alice := reg.For(ctx, "alice")
	assert.Same(t, alice, reg.For(ctx, "alice"))
	record(alice, "job-1", model.PlatformLinkedIn)

	bob := reg.For(ctx, "bob")
	assert.Zero(t, bob.Index().TotalShares)
	assert.Same(t, reg.For(ctx, ""), reg.For(ctx, DefaultProfile))
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, int64(3), rec.Snapshot().TrackedProfiles)

	_, err := store.Load(ctx, "sharetrack:alice:job_share_history")
	require.NoError(t, err)
	_, err = store.Load(ctx, "sharetrack:alice:job_share_analytics")
	require.NoError(t, err)

	// A fresh registry over the same store sees persisted state.
	again := NewRegistry(store, "sharetrack:", 0, Options{Location: time.UTC})
	assert.Equal(t, int64(1), again.For(ctx, "alice").Index().TotalShares)
	require.NoError(t, again.Ping(ctx))
}
