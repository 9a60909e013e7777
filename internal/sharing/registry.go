package sharing

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jobshare/sharetrack/internal/storage"
)

const (
	// DefaultProfile is used when a request carries no profile id.
	DefaultProfile = "default"

	// DefaultMaxProfiles bounds how many trackers stay loaded at once.
	DefaultMaxProfiles = 10_000
)

// Registry hands out one Tracker per profile, loading each lazily from the
// shared blob store. At most maxProfiles trackers stay resident; the least
// recently used one is dropped when a new profile is loaded past the bound.
// A dropped profile is reloaded from the store on its next request.
type Registry struct {
	store     storage.BlobStore
	keyPrefix string
	opts      Options

	trackers *lru.Cache[string, *Tracker]
	loads    singleflight.Group
}

// NewRegistry creates a registry holding at most maxProfiles trackers
// (DefaultMaxProfiles if maxProfiles <= 0). opts is the template for every
// tracker; its blob keys are overridden per profile.
func NewRegistry(store storage.BlobStore, keyPrefix string, maxProfiles int, opts Options) *Registry {
	if maxProfiles <= 0 {
		maxProfiles = DefaultMaxProfiles
	}

	r := &Registry{
		store:     store,
		keyPrefix: keyPrefix,
		opts:      opts.withDefaults(),
	}

	trackers, err := lru.NewWithEvict(maxProfiles, r.onEvict)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	r.trackers = trackers
	return r
}

// For returns the tracker for profileID, loading it on first use.
// Concurrent first requests for the same profile share one load, and a
// load never blocks lookups of profiles already resident.
func (r *Registry) For(ctx context.Context, profileID string) *Tracker {
	if profileID == "" {
		profileID = DefaultProfile
	}

	if t, ok := r.trackers.Get(profileID); ok {
		return t
	}

	v, _, _ := r.loads.Do(profileID, func() (any, error) {
		if t, ok := r.trackers.Get(profileID); ok {
			return t, nil
		}

		// The load is shared, so one caller going away must not cancel it.
		t := NewTracker(context.WithoutCancel(ctx), r.store, r.trackerOptions(profileID))
		r.trackers.Add(profileID, t)
		r.opts.Metrics.SetTrackedProfiles(r.trackers.Len())
		return t, nil
	})
	return v.(*Tracker)
}

func (r *Registry) trackerOptions(profileID string) Options {
	opts := r.opts
	opts.HistoryKey = r.keyPrefix + profileID + ":" + HistoryKey
	opts.AnalyticsKey = r.keyPrefix + profileID + ":" + AnalyticsKey
	opts.Logger = r.opts.Logger.With("profile_id", profileID)
	return opts
}

func (r *Registry) onEvict(profileID string, _ *Tracker) {
	r.opts.Logger.Debug("profile tracker evicted", "profile_id", profileID)
}

// Len reports how many profiles are loaded.
func (r *Registry) Len() int {
	return r.trackers.Len()
}

// Ping checks the underlying blob store.
func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
