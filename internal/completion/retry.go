package completion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kalambet/reframe/internal/metrics"
)

const (
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
)

// Retrying retries rate-limited completions with exponential backoff.
type Retrying struct {
	next    Completer
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps next so that ErrRateLimited failures are retried up to
// three attempts, starting at 500ms and doubling.
func WithRetry(next Completer) *Retrying {
	return &Retrying{next: next, backoff: initialBackoff, sleep: sleepCtx}
}

func (r *Retrying) Configured() bool { return r.next.Configured() }

func (r *Retrying) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	var lastErr error
	for attempt := range maxRetries {
		text, err := r.next.Complete(ctx, prompt, opts)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return "", err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			metrics.CompletionRetries.Inc()
			backoff := time.Duration(float64(r.backoff) * math.Pow(2, float64(attempt)))
			if err := r.sleep(ctx, backoff); err != nil {
				return "", err
			}
		}
	}
	return "", fmt.Errorf("rate limited after %d attempts: %w", maxRetries, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
