package wizard

import (
	"github.com/kalambet/reframe/internal/events"
	"github.com/kalambet/reframe/internal/metrics"
	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/suggest"
	"github.com/kalambet/reframe/internal/thought"
)

// request is one step entry's pair of pipeline requests. A result is
// committed only while the session is still on the same step and generation.
type request struct {
	step       int
	generation uint64
	values     thought.Values
	field      string // empty: no field suggestions
	insight    bool
}

// enterLocked moves the cursor to step and marks the pipelines for that step
// as loading. The caller fires the returned request after unlocking. Its
// goroutines are added to s.wg here, under s.mu, and only while open.
func (s *Session) enterLocked(step int) request {
	req := s.planLocked(step)
	if s.closed {
		s.suggestState = PipelineState{Status: Idle, Step: step}
		s.insightState = PipelineState{Status: Idle, Step: step}
		return request{step: step, generation: s.generation}
	}
	if req.field != "" {
		s.wg.Add(1)
	}
	if req.insight {
		s.wg.Add(1)
	}
	return req
}

func (s *Session) planLocked(step int) request {
	s.step = step
	s.generation++
	s.suggestions = nil
	s.touchLocked()

	req := request{step: step, generation: s.generation, values: s.values.Clone()}
	if step == thought.N && s.lastSubmitted != nil {
		req.values = recordValues(*s.lastSubmitted)
	}

	if step == 0 {
		s.suggestState = PipelineState{Status: Idle}
		s.insight = suggest.Insight{}
		s.insightState = PipelineState{Status: Idle}
		return req
	}

	if f, ok := thought.FieldAt(step); ok {
		req.field = f.Key
		s.suggestState = PipelineState{Status: Loading, Step: step}
	} else {
		s.suggestState = PipelineState{Status: Idle, Step: step}
	}
	req.insight = true
	s.insightState = PipelineState{Status: Loading, Step: step}
	return req
}

func (req request) fire(s *Session) {
	if req.field != "" {
		recordContext := req.values.ContextBefore(req.field)
		go func() {
			defer s.wg.Done()
			items, err := s.suggester.FieldSuggestions(s.ctx, req.field, recordContext)
			s.commitSuggestions(req, items, err)
		}()
	}
	if req.insight {
		recordContext := req.values.ContextThrough(req.step)
		go func() {
			defer s.wg.Done()
			in, err := s.suggester.InsightPanel(s.ctx, req.step, recordContext)
			s.commitInsight(req, in, err)
		}()
	}
}

func (s *Session) currentLocked(req request) bool {
	return s.step == req.step && s.generation == req.generation
}

func (s *Session) commitSuggestions(req request, items []string, err error) {
	s.mu.Lock()
	if !s.currentLocked(req) {
		s.mu.Unlock()
		metrics.PipelineResults.WithLabelValues("suggestions", "stale").Inc()
		s.logger.Debug("discarding stale suggestions", "step", req.step)
		return
	}
	if err != nil {
		s.suggestions = nil
		s.suggestState = PipelineState{Status: Failed, Step: req.step, Error: err.Error()}
	} else {
		s.suggestions = items
		s.suggestState = PipelineState{Status: Succeeded, Step: req.step}
	}
	s.mu.Unlock()

	if err != nil {
		metrics.PipelineResults.WithLabelValues("suggestions", "failed").Inc()
		s.emit(events.Event{Type: events.SuggestionFailed, Step: req.step, Error: err.Error(), Data: map[string]string{"pipeline": "suggestions"}})
		return
	}
	metrics.PipelineResults.WithLabelValues("suggestions", "ready").Inc()
	s.emit(events.Event{Type: events.SuggestionsReady, Step: req.step, Data: append([]string(nil), items...)})
}

func (s *Session) commitInsight(req request, in suggest.Insight, err error) {
	s.mu.Lock()
	if !s.currentLocked(req) {
		s.mu.Unlock()
		metrics.PipelineResults.WithLabelValues("insight", "stale").Inc()
		s.logger.Debug("discarding stale insight", "step", req.step)
		return
	}
	if err != nil {
		s.insight = suggest.Insight{}
		s.insightState = PipelineState{Status: Failed, Step: req.step, Error: err.Error()}
	} else {
		s.insight = in
		s.insightState = PipelineState{Status: Succeeded, Step: req.step}
	}
	s.mu.Unlock()

	if err != nil {
		metrics.PipelineResults.WithLabelValues("insight", "failed").Inc()
		s.emit(events.Event{Type: events.SuggestionFailed, Step: req.step, Error: err.Error(), Data: map[string]string{"pipeline": "insight"}})
		return
	}
	metrics.PipelineResults.WithLabelValues("insight", "ready").Inc()
	s.emit(events.Event{Type: events.InsightReady, Step: req.step, Data: copyInsight(in)})
}

func recordValues(r storage.ThoughtRecord) thought.Values {
	return thought.Values{
		Situation:       r.Situation,
		ANTs:            r.ANTs,
		Behaviors:       r.Behaviors,
		Distortions:     append([]string(nil), r.Distortions...),
		EvidenceAgainst: r.EvidenceAgainst,
		FriendsAdvice:   r.FriendsAdvice,
		BalancedThought: r.BalancedThought,
	}
}
