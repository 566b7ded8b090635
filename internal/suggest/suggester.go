package suggest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/pdfaccess/internal/stats"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("suggest: alt text suggestions are not configured")

// Describer turns an image and a prompt into text.
type Describer interface {
	DescribeImage(ctx context.Context, png []byte, prompt string) (string, error)
}

// Suggestion is a validated alt text proposal.
type Suggestion struct {
	AltText    string `json:"alt_text"`
	Decorative bool   `json:"decorative"`
	DurationMs int64  `json:"duration_ms"`
}

// Suggester bounds concurrent calls, retries transient failures and
// validates replies.
type Suggester struct {
	client  Describer
	sem     chan struct{}
	stats   *stats.Latency
	log     *slog.Logger
	backoff func(attempt int, err error) time.Duration
}

// NewSuggester returns a Suggester. A nil client yields one whose Suggest
// always fails with ErrDisabled.
func NewSuggester(client Describer, maxConcurrent int, st *stats.Latency, log *slog.Logger) *Suggester {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if st == nil {
		st = stats.NewLatency(time.Hour)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Suggester{
		client:  client,
		sem:     make(chan struct{}, maxConcurrent),
		stats:   st,
		log:     log,
		backoff: Backoff,
	}
}

func (s *Suggester) Enabled() bool { return s.client != nil }

func (s *Suggester) Stats() *stats.Latency { return s.stats }

// Suggest drafts alt text for a PNG image.
func (s *Suggester) Suggest(ctx context.Context, png []byte, c Context) (*Suggestion, error) {
	if s.client == nil {
		return nil, ErrDisabled
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	prompt := BuildPrompt(c)
	start := time.Now()
	var (
		reply   string
		lastErr error
	)
	for attempt := range MaxRetries {
		reply, lastErr = s.client.DescribeImage(ctx, png, prompt)
		if lastErr == nil || !IsRetryable(lastErr) || attempt == MaxRetries-1 {
			break
		}
		s.log.Warn("retryable suggestion error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(s.backoff(attempt, lastErr)):
		case <-ctx.Done():
			s.stats.RecordError()
			return nil, ctx.Err()
		}
	}
	s.stats.Since(start, lastErr)
	if lastErr != nil {
		return nil, lastErr
	}

	elapsed := time.Since(start).Milliseconds()
	alt, err := CleanAltText(reply)
	if errors.Is(err, ErrDecorative) {
		return &Suggestion{Decorative: true, DurationMs: elapsed}, nil
	}
	if err != nil {
		s.log.Warn("suggestion rejected", "error", err)
		return nil, err
	}
	return &Suggestion{AltText: alt, DurationMs: elapsed}, nil
}
