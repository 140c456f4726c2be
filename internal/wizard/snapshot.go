package wizard

import (
	"time"

	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/suggest"
	"github.com/kalambet/reframe/internal/thought"
)

// Snapshot is a consistent copy of a session's observable state.
type Snapshot struct {
	ID              string                 `json:"id"`
	OwnerID         string                 `json:"owner_id"`
	Step            int                    `json:"step"`
	Steps           int                    `json:"steps"`
	Review          bool                   `json:"review"`
	Field           *thought.Field         `json:"field,omitempty"`
	Values          thought.Values         `json:"values"`
	Suggestions     []string               `json:"suggestions"`
	SuggestionState PipelineState          `json:"suggestion_state"`
	Insight         suggest.Insight        `json:"insight"`
	InsightState    PipelineState          `json:"insight_state"`
	LastSubmitted   *storage.ThoughtRecord `json:"last_submitted,omitempty"`
	SubmitError     string                 `json:"submit_error,omitempty"`
	LastActive      time.Time              `json:"last_active"`
}

// Snapshot returns the session state as one value.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:              s.id,
		OwnerID:         s.ownerID,
		Step:            s.step,
		Steps:           thought.N,
		Review:          s.step == thought.N,
		Values:          s.values.Clone(),
		Suggestions:     append([]string{}, s.suggestions...),
		SuggestionState: s.suggestState,
		Insight:         copyInsight(s.insight),
		InsightState:    s.insightState,
		SubmitError:     s.submitError,
		LastActive:      s.lastActive,
	}
	if f, ok := thought.FieldAt(s.step); ok {
		snap.Field = &f
	}
	if s.lastSubmitted != nil {
		r := *s.lastSubmitted
		r.Distortions = append([]string(nil), r.Distortions...)
		snap.LastSubmitted = &r
	}
	return snap
}

// SuggestionState returns the state of the field-suggestion pipeline.
func (s *Session) SuggestionState() PipelineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestState
}

// InsightState returns the state of the insight pipeline.
func (s *Session) InsightState() PipelineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insightState
}
