// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/jobshare/sharetrack/internal/model"
)

// RecordShareRequest represents the request body for recording a share.
// Every field is optional; missing values are defaulted.
type RecordShareRequest struct {
	JobID          model.JobID        `json:"jobId"`
	Platform       model.Platform     `json:"platform"`
	CustomMessage  string             `json:"customMessage,omitempty"`
	RecipientCount int64              `json:"recipientCount,omitempty"`
	Context        model.ShareContext `json:"context"`
}

// HistoryResponse is the retained share log, newest first.
type HistoryResponse struct {
	Data  model.ShareEventList `json:"data"`
	Count int                  `json:"count"`
}

// EmailShareRequest represents the request body for a direct email share.
type EmailShareRequest struct {
	JobID         model.JobID        `json:"jobId"`
	Recipients    []string           `json:"recipients"`
	CustomMessage string             `json:"customMessage,omitempty"`
	Context       model.ShareContext `json:"context"`
}

// SuggestionsRequest carries the job attributes suggestion rules look at.
// The job id comes from the path.
type SuggestionsRequest struct {
	Title   string   `json:"title,omitempty"`
	Company string   `json:"company,omitempty"`
	Type    string   `json:"type,omitempty"`
	Remote  bool     `json:"remote"`
	Urgent  bool     `json:"urgent"`
	Tags    []string `json:"tags,omitempty"`
}

// ToJob converts the request into a model.Job.
func (r SuggestionsRequest) ToJob(id model.JobID) model.Job {
	return model.Job{
		ID:      id,
		Title:   r.Title,
		Company: r.Company,
		Type:    r.Type,
		Remote:  r.Remote,
		Urgent:  r.Urgent,
		Tags:    r.Tags,
	}
}

// SuggestionsResponse lists sharing tips in rule order.
type SuggestionsResponse struct {
	Data []model.Suggestion `json:"data"`
}

// OptimalHoursResponse lists the best hours to share, best first.
type OptimalHoursResponse struct {
	Data []model.HourStat `json:"data"`
}

// TrackingURLResponse is a decorated job link.
type TrackingURLResponse struct {
	URL      string         `json:"url"`
	JobID    model.JobID    `json:"jobId"`
	Platform model.Platform `json:"platform"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
