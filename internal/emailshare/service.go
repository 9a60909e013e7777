package emailshare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/jobshare/sharetrack/internal/metrics"
	"github.com/jobshare/sharetrack/internal/model"
	"github.com/jobshare/sharetrack/internal/sharing"
)

// MaxRecipients bounds a single bulk send.
const MaxRecipients = 50

var (
	// ErrNoRecipients is returned when the recipient list is empty.
	ErrNoRecipients = errors.New("at least one recipient is required")
	// ErrInvalidRecipient is returned when an address does not parse.
	ErrInvalidRecipient = errors.New("invalid recipient address")
	// ErrTooManyRecipients is returned above MaxRecipients.
	ErrTooManyRecipients = errors.New("too many recipients")
	// ErrNotConfigured is returned when no email endpoint is set.
	ErrNotConfigured = errors.New("email sharing is not configured")
)

// StatusError reports a non-2xx response from the email endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("email endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("email endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// ShareRecorder is the part of sharing.Tracker the email flow needs.
type ShareRecorder interface {
	Record(ctx context.Context, in sharing.RecordInput) model.ShareEvent
}

// Input is one direct email share.
type Input struct {
	JobID         model.JobID
	Recipients    []string
	CustomMessage string
	Context       model.ShareContext
}

// Result describes what happened to a share.
type Result struct {
	Event     model.ShareEvent `json:"event"`
	Delivered bool             `json:"delivered"`
	Error     string           `json:"error,omitempty"`
}

// Service runs the send-then-record flow.
type Service struct {
	sender     Sender
	optimistic bool
	now        func() time.Time
	logger     *slog.Logger
	metrics    metrics.Recorder
}

// NewService creates the email share flow. With optimistic set, a failed send
// is still recorded as a share. A nil sender disables email sharing.
func NewService(sender Sender, optimistic bool, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		sender:     sender,
		optimistic: optimistic,
		now:        time.Now,
		logger:     logger.With("component", "emailshare.service"),
		metrics:    recorder,
	}
}

// Share validates recipients, sends the email, and records a direct_email
// share weighted by the number of recipients.
func (s *Service) Share(ctx context.Context, tracker ShareRecorder, in Input) (Result, error) {
	if s.sender == nil {
		return Result{}, ErrNotConfigured
	}

	recipients, err := NormalizeRecipients(in.Recipients)
	if err != nil {
		return Result{}, err
	}

	sendErr := s.sender.Send(ctx, Request{
		JobID:         in.JobID,
		Recipients:    recipients,
		CustomMessage: in.CustomMessage,
		Timestamp:     s.now().UTC(),
	})

	result := Result{Delivered: sendErr == nil}
	if sendErr != nil {
		if !s.optimistic {
			s.logger.Warn("email share failed", "job_id", in.JobID, "error", sendErr)
			s.metrics.IncEmailShare("failed")
			return Result{}, fmt.Errorf("send email share: %w", sendErr)
		}
		s.logger.Warn("email share failed; recording share anyway", "job_id", in.JobID, "error", sendErr)
		s.metrics.IncEmailShare("failed_recorded")
		result.Error = sendErr.Error()
	} else {
		s.metrics.IncEmailShare("sent")
	}

	result.Event = tracker.Record(ctx, sharing.RecordInput{
		JobID:          in.JobID,
		Platform:       model.PlatformDirectEmail,
		CustomMessage:  in.CustomMessage,
		RecipientCount: int64(len(recipients)),
		Context:        in.Context,
	})

	s.logger.Info("email share recorded",
		"job_id", in.JobID,
		"recipients", len(recipients),
		"delivered", result.Delivered,
	)
	return result, nil
}

// NormalizeRecipients trims, validates and de-duplicates addresses,
// keeping the first occurrence of each.
func NormalizeRecipients(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))

	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		addr, err := mail.ParseAddress(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRecipient, r)
		}
		key := strings.ToLower(addr.Address)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr.Address)
	}

	if len(out) == 0 {
		return nil, ErrNoRecipients
	}
	if len(out) > MaxRecipients {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyRecipients, len(out), MaxRecipients)
	}
	return out, nil
}
