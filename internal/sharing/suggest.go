package sharing

import (
	"fmt"
	"strings"
	"time"

	"github.com/jobshare/sharetrack/internal/model"
)

const (
	successPlatformLimit = 2
	timeOfDayTolerance   = 1
)

// Suggestions returns sharing tips for job based on this profile's history.
func (t *Tracker) Suggestions(job model.Job, now time.Time) []model.Suggestion {
	analytics := t.UserAnalytics()
	hours := t.OptimalSharingHours()
	return Suggest(job, analytics, hours, now, t.opts.Location)
}

// Suggest applies the suggestion rules in a fixed order: job attributes,
// previously successful platforms, then time of day. Rules are independent,
// so the same platform may appear more than once.
func Suggest(job model.Job, analytics model.UserAnalytics, hours []model.HourStat, now time.Time, loc *time.Location) []model.Suggestion {
	var out []model.Suggestion

	out = append(out, jobSuggestions(job)...)

	for i, pc := range analytics.TopPlatforms {
		if i == successPlatformLimit {
			break
		}
		out = append(out, model.Suggestion{
			Platform: pc.Platform,
			Reason:   "You've had success sharing here before",
			Tip:      fmt.Sprintf("%d shares on %s so far. Keep the momentum going.", pc.Count, pc.DisplayName),
		})
	}

	if s, ok := timeOfDaySuggestion(analytics, hours, now, loc); ok {
		out = append(out, s)
	}

	if out == nil {
		out = []model.Suggestion{}
	}
	return out
}

func jobSuggestions(job model.Job) []model.Suggestion {
	var out []model.Suggestion

	if job.Remote {
		out = append(out, model.Suggestion{
			Platform: model.PlatformLinkedIn,
			Reason:   "Remote roles get strong reach on professional networks",
			Tip:      "Mention that the role is fully remote in the first line.",
		})
	}
	if job.Urgent {
		out = append(out, model.Suggestion{
			Platform: model.PlatformWhatsApp,
			Reason:   "Urgent openings benefit from direct messages",
			Tip:      "Send it to friends who are actively looking right now.",
		})
	}
	if isEarlyCareer(job) {
		out = append(out, model.Suggestion{
			Platform: model.PlatformTelegram,
			Reason:   "Student and graduate communities are active on group chats",
			Tip:      "Post it in your university or bootcamp groups.",
		})
	}

	return out
}

func isEarlyCareer(job model.Job) bool {
	switch strings.ToLower(job.Type) {
	case "internship", "entry_level", "entry-level", "graduate":
		return true
	}
	for _, tag := range job.Tags {
		switch strings.ToLower(tag) {
		case "internship", "entry-level", "junior", "graduate":
			return true
		}
	}
	return false
}

// timeOfDaySuggestion fires when now is within an hour of the best hour on a
// 24-hour clock, so 23:00 and 0:00 are adjacent.
func timeOfDaySuggestion(analytics model.UserAnalytics, hours []model.HourStat, now time.Time, loc *time.Location) (model.Suggestion, bool) {
	if len(hours) == 0 {
		return model.Suggestion{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	best := hours[0]
	if hourDistance(now.In(loc).Hour(), best.Hour) > timeOfDayTolerance {
		return model.Suggestion{}, false
	}

	platform := model.PlatformLinkedIn
	if len(analytics.TopPlatforms) > 0 {
		platform = analytics.TopPlatforms[0].Platform
	}

	return model.Suggestion{
		Platform: platform,
		Reason:   "Now is one of your best times to share",
		Tip:      fmt.Sprintf("Your shares around %s get the most activity.", best.Label),
	}, true
}

func hourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > hoursPerDay/2 {
		d = hoursPerDay - d
	}
	return d
}
