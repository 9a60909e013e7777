package sharing

import (
	"net/url"
	"strings"
	"time"

	"github.com/jobshare/sharetrack/internal/model"
)

const (
	utmMedium   = "social"
	utmCampaign = "job_share"
)

// TrackingURL decorates baseURL/jobs/<jobID> with campaign parameters.
// sharerID is omitted when empty.
func TrackingURL(baseURL string, jobID model.JobID, platform model.Platform, sharerID, source string, at time.Time) string {
	params := url.Values{}
	params.Set("utm_source", source)
	params.Set("utm_medium", utmMedium)
	params.Set("utm_campaign", utmCampaign)
	params.Set("utm_content", string(platform))
	params.Set("shared_at", model.EpochMillis(at))
	if sharerID != "" {
		params.Set("shared_by", sharerID)
	}

	return strings.TrimRight(baseURL, "/") + "/jobs/" + url.PathEscape(string(jobID)) + "?" + params.Encode()
}

// URLBuilder binds the product name and clock for TrackingURL.
type URLBuilder struct {
	BaseURL string
	Source  string
	Now     func() time.Time
}

// Build returns the tracking link for one share.
func (b URLBuilder) Build(jobID model.JobID, platform model.Platform, sharerID string) string {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	return TrackingURL(b.BaseURL, jobID, platform, sharerID, b.Source, now())
}
