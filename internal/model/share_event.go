// Package model defines domain entities for the application.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Platform identifies the channel a job was shared through.
// The set is open: unknown values are stored and reported as-is.
type Platform string

const (
	PlatformLinkedIn    Platform = "linkedin"
	PlatformTwitter     Platform = "twitter"
	PlatformFacebook    Platform = "facebook"
	PlatformWhatsApp    Platform = "whatsapp"
	PlatformTelegram    Platform = "telegram"
	PlatformEmailClient Platform = "email_client"
	PlatformDirectEmail Platform = "direct_email"
	PlatformClipboard   Platform = "clipboard"
	PlatformTemplate    Platform = "template"
	PlatformCustom      Platform = "custom"
	PlatformNativeShare Platform = "native_share"
)

var platformNames = map[Platform]string{
	PlatformLinkedIn:    "LinkedIn",
	PlatformTwitter:     "Twitter",
	PlatformFacebook:    "Facebook",
	PlatformWhatsApp:    "WhatsApp",
	PlatformTelegram:    "Telegram",
	PlatformEmailClient: "Email",
	PlatformDirectEmail: "Direct Email",
	PlatformClipboard:   "Copy Link",
	PlatformTemplate:    "Template",
	PlatformCustom:      "Custom Message",
	PlatformNativeShare: "Device Share",
}

// IsKnown reports whether p is one of the platforms the UI ships with.
func (p Platform) IsKnown() bool {
	_, ok := platformNames[p]
	return ok
}

// DisplayName returns a human label, falling back to the raw tag.
func (p Platform) DisplayName() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return string(p)
}

// JobID is the opaque identifier of a job in the external job system.
// It decodes from either a JSON string or a JSON number and always encodes as a string.
type JobID string

// UnmarshalJSON accepts "42" and 42 alike.
func (j *JobID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*j = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*j = JobID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("job id must be a string or number: %w", err)
	}
	*j = JobID(n.String())
	return nil
}

// String returns the raw id.
func (j JobID) String() string {
	return string(j)
}

// ShareContext carries informational metadata about where a share originated.
// It is never used for aggregation.
type ShareContext struct {
	URL       string `json:"url,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// ShareEvent is one recorded share of a job posting. Immutable once created.
type ShareEvent struct {
	ID             string       `json:"id"` // ULID (time-sortable)
	JobID          JobID        `json:"jobId"`
	Platform       Platform     `json:"platform"`
	CustomMessage  string       `json:"customMessage"`
	RecipientCount int64        `json:"recipientCount"`
	Timestamp      time.Time    `json:"timestamp"`
	Context        ShareContext `json:"context"`
}

// ShareEventList is a newest-first slice of share events.
type ShareEventList []ShareEvent

// TotalRecipients sums recipientCount across the list.
func (l ShareEventList) TotalRecipients() int64 {
	var total int64
	for _, e := range l {
		total += e.RecipientCount
	}
	return total
}

// Clone returns a copy that shares no backing array with l.
func (l ShareEventList) Clone() ShareEventList {
	if l == nil {
		return ShareEventList{}
	}
	out := make(ShareEventList, len(l))
	copy(out, l)
	return out
}

// EpochMillis formats t as Unix milliseconds, the form used in tracking links.
func EpochMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
