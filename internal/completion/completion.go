// Package completion provides the text-completion collaborator used by the
// suggestion pipelines: Gemini and OpenAI-compatible providers, a placeholder
// for unconfigured deployments, and retry, rate-limit and metrics decorators.
package completion

import (
	"context"
	"errors"
)

// Placeholder is returned by an unconfigured provider instead of calling out.
const Placeholder = "AI service is not configured."

// ErrRateLimited marks provider errors that are worth retrying.
var ErrRateLimited = errors.New("rate limited")

// Completer turns a prompt into completion text.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	// Configured reports whether calls reach a real provider.
	Configured() bool
}

// HarmCategory names a safety filter category.
type HarmCategory string

const (
	HarmHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmSexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// BlockThreshold names a safety filter threshold.
type BlockThreshold string

const BlockMediumAndAbove BlockThreshold = "BLOCK_MEDIUM_AND_ABOVE"

type SafetyFilter struct {
	Category  HarmCategory
	Threshold BlockThreshold
}

// Options tune a single completion. Providers ignore what they do not support.
type Options struct {
	Temperature     float32
	TopK            int32
	TopP            float32
	MaxOutputTokens int32
	SafetyFilters   []SafetyFilter
}

// DefaultOptions are the generation settings used for every wizard prompt.
func DefaultOptions() Options {
	return Options{
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 512,
		SafetyFilters: []SafetyFilter{
			{Category: HarmHarassment, Threshold: BlockMediumAndAbove},
			{Category: HarmHateSpeech, Threshold: BlockMediumAndAbove},
			{Category: HarmSexuallyExplicit, Threshold: BlockMediumAndAbove},
			{Category: HarmDangerousContent, Threshold: BlockMediumAndAbove},
		},
	}
}

// Unconfigured is the provider used when no credential is available.
// It never performs I/O.
type Unconfigured struct{}

func (Unconfigured) Complete(context.Context, string, Options) (string, error) {
	return Placeholder, nil
}

func (Unconfigured) Configured() bool { return false }

// IsPlaceholderKey reports whether key is absent or the sample value shipped
// in example env files.
func IsPlaceholderKey(key string) bool {
	return key == "" || key == "your_api_key_here"
}
