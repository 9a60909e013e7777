// Package analytics forwards recorded share events to a remote collector.
package analytics

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/jobshare/sharetrack/internal/metrics"
	"github.com/jobshare/sharetrack/internal/model"
)

const (
	// PublishTimeout is the default max time for one send.
	PublishTimeout = 2 * time.Second

	maxMetaLength = 500
)

// Publisher sends events on detached goroutines. Callers never wait on,
// or see the outcome of, a send.
type Publisher struct {
	sink    Sink
	timeout time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder

	wg sync.WaitGroup
}

// NewPublisher creates a publisher over sink. timeout <= 0 uses PublishTimeout.
func NewPublisher(sink Sink, timeout time.Duration, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if sink == nil {
		sink = NoopSink{}
	}
	if timeout <= 0 {
		timeout = PublishTimeout
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		sink:    sink,
		timeout: timeout,
		logger:  logger.With("component", "analytics.publisher"),
		metrics: recorder,
	}
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *Publisher) PublishAsync(event model.ShareEvent) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("panic publishing share event", "event_id", event.ID, "panic", r)
				p.metrics.IncAnalyticsEventPublished("dropped")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.sink.Send(ctx, event); err != nil {
			p.logger.Warn("failed to publish share event",
				"event_id", event.ID,
				"job_id", event.JobID,
				"error", err,
			)
			p.metrics.IncAnalyticsEventPublished("dropped")
			return
		}

		p.logger.Debug("share event published", "event_id", event.ID)
		p.metrics.IncAnalyticsEventPublished("success")
	}()
}

// Shutdown waits for in-flight sends, bounded by ctx, then closes the sink.
func (p *Publisher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("analytics publisher shutdown timed out; closing sink with sends in flight")
	}
	return p.sink.Close()
}

// SanitizeContext strips query strings and fragments from URLs and truncates
// long values before an event is stored or forwarded.
func SanitizeContext(c model.ShareContext) model.ShareContext {
	return model.ShareContext{
		URL:       SanitizeURL(c.URL),
		UserAgent: TruncateUserAgent(c.UserAgent),
		Referrer:  SanitizeURL(c.Referrer),
	}
}

// SanitizeURL keeps scheme, host and path. Unparseable input yields "".
func SanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.User = nil

	sanitized := parsed.String()
	if len(sanitized) > maxMetaLength {
		return sanitized[:maxMetaLength]
	}
	return sanitized
}

// TruncateUserAgent truncates user agent to max 500 chars.
func TruncateUserAgent(ua string) string {
	if len(ua) > maxMetaLength {
		return ua[:maxMetaLength]
	}
	return ua
}
