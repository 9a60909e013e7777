package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/jobshare/sharetrack/internal/model"
)

const (
	// StreamKey is the Redis stream share events are appended to.
	StreamKey = "stream:share_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// DialTimeout is the connection timeout for the HTTP sink.
	DialTimeout = 5 * time.Second
)

// Sink delivers one share event to a remote collector.
type Sink interface {
	Send(ctx context.Context, event model.ShareEvent) error
	Close() error
}

// NoopSink discards events.
type NoopSink struct{}

// Send does nothing.
func (NoopSink) Send(context.Context, model.ShareEvent) error { return nil }

// Close does nothing.
func (NoopSink) Close() error { return nil }

// NewHTTPClient creates a client for posting analytics events.
// It does not follow redirects.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   DialTimeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// HTTPSink POSTs each event as JSON to a collector endpoint.
// The response body is ignored; only non-2xx statuses are errors.
type HTTPSink struct {
	endpoint string
	client   *http.Client
	secret   string
	now      func() time.Time
}

// NewHTTPSink creates an HTTP sink. A nil client gets NewHTTPClient defaults.
func NewHTTPSink(endpoint string, client *http.Client) *HTTPSink {
	if client == nil {
		client = NewHTTPClient(10 * time.Second)
	}
	return &HTTPSink{endpoint: endpoint, client: client, now: time.Now}
}

// WithSigningSecret makes the sink sign every request body with secret.
// An empty secret leaves requests unsigned.
func (s *HTTPSink) WithSigningSecret(secret string) *HTTPSink {
	s.secret = secret
	return s
}

// Send posts event to the endpoint.
func (s *HTTPSink) Send(ctx context.Context, event model.ShareEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Sharetrack-Analytics/1.0")
	if s.secret != "" {
		ts := s.now().Unix()
		req.Header.Set(TimestampHeader, strconv.FormatInt(ts, 10))
		req.Header.Set(SignatureHeader, Sign(s.secret, ts, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (s *HTTPSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// StreamSink appends events to a Redis stream for downstream consumers.
type StreamSink struct {
	redis *redis.Client
}

// NewStreamSink creates a Redis stream sink. The client is owned by the caller.
func NewStreamSink(client *redis.Client) *StreamSink {
	return &StreamSink{redis: client}
}

// Send adds event to StreamKey.
func (s *StreamSink) Send(ctx context.Context, event model.ShareEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = s.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"job_id":  string(event.JobID),
			"payload": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

// Close is a no-op; the Redis client is shared.
func (s *StreamSink) Close() error { return nil }

// NewKafkaWriter returns a writer keyed by job id so a job's shares stay ordered within a partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 50 * time.Millisecond,
		BatchSize:    1,
	}
}

// KafkaSink produces events to a Kafka topic.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink wraps w. The sink owns w and closes it.
func NewKafkaSink(w *kafka.Writer) *KafkaSink {
	return &KafkaSink{writer: w}
}

// Send writes event keyed by job id.
func (s *KafkaSink) Send(ctx context.Context, event model.ShareEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.JobID),
		Value: data,
		Time:  event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("write kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
