// Package events carries wizard domain events from sessions to whoever
// surfaces them: the log, the websocket feed, tests.
package events

import (
	"log/slog"
	"sync"
	"time"
)

type Type string

const (
	SessionStarted   Type = "session_started"
	StepChanged      Type = "step_changed"
	SuggestionsReady Type = "suggestions_ready"
	SuggestionFailed Type = "suggestion_failed"
	InsightReady     Type = "insight_ready"
	RecordSubmitted  Type = "record_submitted"
	SubmitFailed     Type = "submit_failed"
)

// Event is one domain event. Data holds the type-specific payload.
type Event struct {
	Type      Type      `json:"type"`
	SessionID string    `json:"session_id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Step      int       `json:"step"`
	Time      time.Time `json:"time"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Sink receives events. Emit must not block for long; sessions call it
// while holding no locks but from request goroutines.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans an event out to several sinks in order.
type Multi []Sink

func (m Multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// LogSink writes events to a structured logger. Failures are logged at warn
// level, everything else at debug.
type LogSink struct {
	Logger *slog.Logger
}

func (l LogSink) Emit(e Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"session_id", e.SessionID, "step", e.Step}
	if e.OwnerID != "" {
		attrs = append(attrs, "owner_id", e.OwnerID)
	}
	switch e.Type {
	case SuggestionFailed, SubmitFailed:
		logger.Warn(string(e.Type), append(attrs, "error", e.Error)...)
	case RecordSubmitted:
		logger.Info(string(e.Type), attrs...)
	default:
		logger.Debug(string(e.Type), attrs...)
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
