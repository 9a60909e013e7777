package sharing

import (
	"fmt"
	"sort"

	"github.com/jobshare/sharetrack/internal/model"
)

const (
	topPlatformLimit = 5
	optimalHourLimit = 3
	hoursPerDay      = 24
)

// JobStats summarizes the retained log for one job. Old shares that have
// rolled out of the log are not counted here even though the lifetime
// index still includes them.
func (t *Tracker) JobStats(jobID model.JobID) model.JobStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := model.JobStats{
		JobID:         jobID,
		PlatformStats: make(map[string]int64),
		History:       model.ShareEventList{},
	}

	for _, event := range t.log {
		if event.JobID != jobID {
			continue
		}
		stats.TotalShares += event.RecipientCount
		stats.PlatformStats[string(event.Platform)] += event.RecipientCount
		stats.History = append(stats.History, event)
	}

	if len(stats.History) > 0 {
		last := stats.History[0].Timestamp
		stats.LastSharedAt = &last
	}

	return stats
}

// UserAnalytics builds the dashboard summary: lifetime totals from the index,
// recent activity from the retained log.
func (t *Tracker) UserAnalytics() model.UserAnalytics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.opts.Now()
	cutoff := now.Add(-t.opts.RecentWindow)

	analytics := model.UserAnalytics{
		TotalShares:  t.index.state.TotalShares,
		TopPlatforms: topPlatforms(t.index.state.SharesByPlatform, topPlatformLimit),
		DailyStats:   make(map[string]int64),
	}

	for _, event := range t.log {
		if event.Timestamp.Before(cutoff) {
			continue
		}
		analytics.RecentShares++
		analytics.DailyStats[DayKey(event.Timestamp, t.opts.Location)]++
	}

	analytics.AverageSharesPerDay = averagePerDay(analytics.DailyStats)
	return analytics
}

// OptimalSharingHours ranks local hours of day by how many retained shares
// happened in them. Ties go to the earlier hour.
func (t *Tracker) OptimalSharingHours() []model.HourStat {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var counts [hoursPerDay]int64
	for _, event := range t.log {
		counts[event.Timestamp.In(t.opts.Location).Hour()]++
	}
	return rankHours(counts, optimalHourLimit)
}

// topPlatforms orders platforms by count, descending. The sort is stable over
// first-insertion order, so ties keep the platform that was used first.
func topPlatforms(counts *model.OrderedCounts, limit int) []model.PlatformCount {
	keys := counts.Keys()
	ranked := make([]model.PlatformCount, 0, len(keys))
	for _, key := range keys {
		p := model.Platform(key)
		ranked = append(ranked, model.PlatformCount{
			Platform:    p,
			DisplayName: p.DisplayName(),
			Count:       counts.Get(key),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankHours(counts [hoursPerDay]int64, limit int) []model.HourStat {
	ranked := make([]model.HourStat, 0, hoursPerDay)
	for hour, count := range counts {
		if count == 0 {
			continue
		}
		ranked = append(ranked, model.HourStat{Hour: hour, Count: count, Label: HourLabel(hour)})
	}

	// Hours are appended in ascending order, so a stable sort keeps lower hours first on ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func averagePerDay(daily map[string]int64) float64 {
	if len(daily) == 0 {
		return 0
	}
	var total int64
	for _, n := range daily {
		total += n
	}
	return float64(total) / float64(len(daily))
}

// HourLabel renders an hour of day on a 12-hour clock, e.g. 0 -> "12:00 AM", 13 -> "1:00 PM".
func HourLabel(hour int) string {
	hour = ((hour % hoursPerDay) + hoursPerDay) % hoursPerDay

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:00 %s", display, suffix)
}
