// Package suggest builds the wizard's AI prompts, sends them to the
// completion provider and parses the replies into suggestions and insight
// panels.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kalambet/reframe/internal/completion"
	"github.com/kalambet/reframe/internal/thought"
)

const defaultTimeout = 20 * time.Second

// AIServiceError reports a failed or timed-out completion.
type AIServiceError struct {
	Op  string
	Err error
}

func (e *AIServiceError) Error() string {
	return fmt.Sprintf("ai service: %s: %v", e.Op, e.Err)
}

func (e *AIServiceError) Unwrap() error { return e.Err }

// IsTimeout reports whether the request ran out of time.
func (e *AIServiceError) IsTimeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Requester runs suggestion and insight requests against a completer.
type Requester struct {
	completer completion.Completer
	opts      completion.Options
	timeout   time.Duration
}

// NewRequester creates a Requester. timeout <= 0 uses 20s.
func NewRequester(c completion.Completer, opts completion.Options, timeout time.Duration) *Requester {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Requester{completer: c, opts: opts, timeout: timeout}
}

// Configured reports whether requests reach a real provider.
func (r *Requester) Configured() bool {
	return r.completer.Configured()
}

func (r *Requester) complete(ctx context.Context, op, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := r.completer.Complete(ctx, prompt, r.opts)
	if err != nil {
		return "", &AIServiceError{Op: op, Err: err}
	}
	return text, nil
}

// FieldSuggestions asks for candidate answers for the field key.
func (r *Requester) FieldSuggestions(ctx context.Context, key, recordContext string) ([]string, error) {
	text, err := r.complete(ctx, "field suggestions", FieldPrompt(key, recordContext))
	if err != nil {
		return nil, err
	}
	return ParseSuggestions(text), nil
}

// InsightPanel asks for the summary panel at step. step == thought.N asks for
// a conclusion.
func (r *Requester) InsightPanel(ctx context.Context, step int, recordContext string) (Insight, error) {
	text, err := r.complete(ctx, "insight panel", InsightPrompt(step, recordContext))
	if err != nil {
		return Insight{}, err
	}
	return ParseInsight(text, step >= thought.N), nil
}

// Analyze runs one of the standalone analysis prompts. Distortion analysis
// returns distortion names; the other kinds return list items.
func (r *Requester) Analyze(ctx context.Context, kind AnalysisKind, in AnalysisInput) ([]string, error) {
	prompt, err := AnalysisPrompt(kind, in)
	if err != nil {
		return nil, err
	}
	text, err := r.complete(ctx, "analysis", prompt)
	if err != nil {
		return nil, err
	}
	if kind == AnalyzeDistortions {
		return ParseList(text), nil
	}
	return ParseSuggestions(text), nil
}

// Text completes an arbitrary prompt with the requester's options and timeout.
func (r *Requester) Text(ctx context.Context, op, prompt string) (string, error) {
	return r.complete(ctx, op, prompt)
}
