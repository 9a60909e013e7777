package sharing

import (
	"time"

	"github.com/jobshare/sharetrack/internal/model"
)

// DateLayout is the calendar-day key format used by the date facet.
const DateLayout = "2006-01-02"

// Index maintains the lifetime share counters. It is not safe for concurrent
// use on its own; Tracker serializes access.
type Index struct {
	loc   *time.Location
	state model.AnalyticsState
}

// NewIndex returns an empty index bucketing dates in loc.
func NewIndex(loc *time.Location) *Index {
	if loc == nil {
		loc = time.Local
	}
	return &Index{loc: loc, state: model.NewAnalyticsState()}
}

// Update adds one event to every facet.
func (ix *Index) Update(event model.ShareEvent) {
	n := event.RecipientCount
	ix.state.TotalShares += n
	ix.state.SharesByPlatform.Add(string(event.Platform), n)
	ix.state.SharesByJob.Add(string(event.JobID), n)
	ix.state.SharesByDate.Add(DayKey(event.Timestamp, ix.loc), n)
}

// Clear resets all counters.
func (ix *Index) Clear() {
	ix.state = model.NewAnalyticsState()
}

// Load replaces the counters with persisted state.
func (ix *Index) Load(state model.AnalyticsState) {
	if state.SharesByPlatform == nil {
		state.SharesByPlatform = model.NewOrderedCounts()
	}
	if state.SharesByJob == nil {
		state.SharesByJob = model.NewOrderedCounts()
	}
	if state.SharesByDate == nil {
		state.SharesByDate = model.NewOrderedCounts()
	}
	ix.state = state
}

// State returns a deep copy of the counters.
func (ix *Index) State() model.AnalyticsState {
	return ix.state.Clone()
}

// DayKey returns the local calendar date of t.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}
