package model

import "time"

// AnalyticsState is the persisted lifetime index.
// Each facet sums to TotalShares.
type AnalyticsState struct {
	TotalShares      int64          `json:"totalShares"`
	SharesByPlatform *OrderedCounts `json:"sharesByPlatform"`
	SharesByJob      *OrderedCounts `json:"sharesByJob"`
	SharesByDate     *OrderedCounts `json:"sharesByDate"` // local YYYY-MM-DD
}

// NewAnalyticsState returns a zeroed index with empty facets.
func NewAnalyticsState() AnalyticsState {
	return AnalyticsState{
		SharesByPlatform: NewOrderedCounts(),
		SharesByJob:      NewOrderedCounts(),
		SharesByDate:     NewOrderedCounts(),
	}
}

// Clone returns a deep copy.
func (s AnalyticsState) Clone() AnalyticsState {
	return AnalyticsState{
		TotalShares:      s.TotalShares,
		SharesByPlatform: s.SharesByPlatform.Clone(),
		SharesByJob:      s.SharesByJob.Clone(),
		SharesByDate:     s.SharesByDate.Clone(),
	}
}

// JobStats summarizes the retained (recent) shares of one job.
type JobStats struct {
	JobID         JobID            `json:"jobId"`
	TotalShares   int64            `json:"totalShares"`
	PlatformStats map[string]int64 `json:"platformStats"`
	History       ShareEventList   `json:"history"`
	LastSharedAt  *time.Time       `json:"lastSharedAt"`
}

// PlatformCount is one entry of a platform ranking.
type PlatformCount struct {
	Platform    Platform `json:"platform"`
	DisplayName string   `json:"displayName"`
	Count       int64    `json:"count"`
}

// UserAnalytics is the dashboard summary for a profile.
type UserAnalytics struct {
	TotalShares         int64            `json:"totalShares"`  // lifetime, from the index
	RecentShares        int              `json:"recentShares"` // log entries inside the recent window
	TopPlatforms        []PlatformCount  `json:"topPlatforms"`
	DailyStats          map[string]int64 `json:"dailyStats"`
	AverageSharesPerDay float64          `json:"averageSharesPerDay"`
}

// HourStat is one ranked hour-of-day bucket.
type HourStat struct {
	Hour  int    `json:"hour"` // 0-23, local
	Count int64  `json:"count"`
	Label string `json:"label"` // e.g. "1:00 PM"
}

// Job carries the attributes the suggestion rules look at.
type Job struct {
	ID      JobID    `json:"id"`
	Title   string   `json:"title,omitempty"`
	Company string   `json:"company,omitempty"`
	Type    string   `json:"type,omitempty"` // full_time, internship, ...
	Remote  bool     `json:"remote"`
	Urgent  bool     `json:"urgent"`
	Tags    []string `json:"tags,omitempty"`
}

// Suggestion is a human-readable sharing tip.
type Suggestion struct {
	Platform Platform `json:"platform"`
	Reason   string   `json:"reason"`
	Tip      string   `json:"tip"`
}

// ExportDocument is the downloadable snapshot of a profile's share data.
type ExportDocument struct {
	ShareHistory ShareEventList `json:"shareHistory"`
	Analytics    AnalyticsState `json:"analytics"`
	ExportDate   time.Time      `json:"exportDate"`
	Version      string         `json:"version"`
}
