// Package emailshare sends a job to a list of email recipients through the
// external bulk email endpoint and records the resulting share.
package emailshare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jobshare/sharetrack/internal/model"
)

// Request is the body posted to the email endpoint.
type Request struct {
	JobID         model.JobID `json:"jobId"`
	Recipients    []string    `json:"recipients"`
	CustomMessage string      `json:"customMessage"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Sender delivers a bulk email request.
type Sender interface {
	Send(ctx context.Context, req Request) error
}

// Client posts requests to the bulk email endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client. A nil httpClient uses a 10s timeout.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Send posts req. Any non-2xx response is an error.
func (c *Client) Send(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return nil
}
