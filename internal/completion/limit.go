package completion

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited throttles calls to next with a token bucket.
type Limited struct {
	next    Completer
	limiter *rate.Limiter
}

// WithRateLimit allows perSecond calls per second with a burst of the same
// size (at least 1). perSecond <= 0 disables limiting.
func WithRateLimit(next Completer, perSecond float64) *Limited {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (l *Limited) Configured() bool { return l.next.Configured() }

func (l *Limited) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return l.next.Complete(ctx, prompt, opts)
}
