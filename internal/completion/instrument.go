package completion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kalambet/reframe/internal/metrics"
)

// Instrumented records request counts and latency for next.
type Instrumented struct {
	next     Completer
	provider string
}

func WithMetrics(next Completer, provider string) *Instrumented {
	return &Instrumented{next: next, provider: provider}
}

func (i *Instrumented) Configured() bool { return i.next.Configured() }

func (i *Instrumented) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	start := time.Now()
	text, err := i.next.Complete(ctx, prompt, opts)
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case errors.Is(err, ErrRateLimited):
		outcome = "rate_limited"
	case err != nil:
		outcome = "error"
	case !i.next.Configured():
		outcome = "placeholder"
	}
	metrics.CompletionRequests.WithLabelValues(i.provider, outcome).Inc()
	if i.next.Configured() {
		metrics.CompletionLatency.WithLabelValues(i.provider).Observe(elapsed.Seconds())
	}

	slog.Debug("completion finished",
		"provider", i.provider,
		"outcome", outcome,
		"prompt_chars", len(prompt),
		"duration_ms", elapsed.Milliseconds(),
	)
	return text, err
}
