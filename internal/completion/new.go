package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kalambet/reframe/internal/config"
)

// New builds the completer described by cfg, wrapped in metrics, rate
// limiting and retry. A missing credential selects Unconfigured and logs a
// warning; it is not an error.
func New(ctx context.Context, cfg config.CompletionConfig) (Completer, error) {
	var base Completer
	provider := cfg.Provider

	switch {
	case IsPlaceholderKey(cfg.APIKey()):
		slog.Warn("no API key configured for completion provider; AI suggestions will return a placeholder",
			"provider", provider)
		base = Unconfigured{}
		provider = "unconfigured"
	case provider == "openai":
		base = NewOpenAI(cfg.APIKey(), cfg.Model, cfg.BaseURL)
	case provider == "gemini":
		model := cfg.Model
		if model == "" {
			model = defaultGeminiModel
		}
		g, err := NewGemini(ctx, cfg.APIKey(), model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		base = g
	default:
		return nil, fmt.Errorf("unknown completion provider %q", provider)
	}

	var c Completer = WithMetrics(base, provider)
	if base.Configured() {
		c = WithRetry(WithRateLimit(c, cfg.RatePerSecond))
	}
	return c, nil
}

// OptionsFrom derives per-call options from cfg on top of DefaultOptions.
func OptionsFrom(cfg config.CompletionConfig) Options {
	opts := DefaultOptions()
	if cfg.Temperature > 0 {
		opts.Temperature = float32(cfg.Temperature)
	}
	if cfg.MaxOutputTokens > 0 {
		opts.MaxOutputTokens = int32(cfg.MaxOutputTokens)
	}
	return opts
}
