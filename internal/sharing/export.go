package sharing

import (
	"time"

	"github.com/jobshare/sharetrack/internal/model"
)

// ExportVersion is stamped on every export document.
const ExportVersion = "1.0"

// Export snapshots the retained log and the lifetime index.
func (t *Tracker) Export(now time.Time) model.ExportDocument {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return model.ExportDocument{
		ShareHistory: t.log.Clone(),
		Analytics:    t.index.State(),
		ExportDate:   now,
		Version:      ExportVersion,
	}
}

// ExportFilename names the download for an export taken at now.
func ExportFilename(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return "job-share-analytics-" + DayKey(now, loc) + ".json"
}
