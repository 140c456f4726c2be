// Package wizard runs the CBT thought-record wizard: a step cursor over the
// fixed field sequence, the answers collected so far, and the suggestion and
// insight requests fired on every step change.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/reframe/internal/events"
	"github.com/kalambet/reframe/internal/metrics"
	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/suggest"
	"github.com/kalambet/reframe/internal/thought"
)

var (
	// ErrInvalidTransition is returned for a navigation the current step
	// does not allow.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrFieldNotActive is returned when editing a field other than the one
	// on the current step.
	ErrFieldNotActive = errors.New("field is not active")
	// ErrNotFreeText is returned by SetField for the multi-select field.
	ErrNotFreeText = errors.New("field is not free text")
	// ErrStorage wraps a failed submit write.
	ErrStorage = errors.New("storage error")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
)

// RecordStore persists submitted records.
// Implemented by storage.Store and history.Manager.
type RecordStore interface {
	InsertThoughtRecord(r storage.ThoughtRecord) (storage.ThoughtRecord, error)
	ListThoughtRecords(ownerID string, limit int) ([]storage.ThoughtRecord, error)
}

// Suggester produces field suggestions and insight panels.
// Implemented by suggest.Requester.
type Suggester interface {
	FieldSuggestions(ctx context.Context, key, recordContext string) ([]string, error)
	InsightPanel(ctx context.Context, step int, recordContext string) (suggest.Insight, error)
}

// Deps holds a session's collaborators. Store and Suggester are required.
type Deps struct {
	Store     RecordStore
	Suggester Suggester
	Sink      events.Sink      // optional; defaults to events.Discard
	Logger    *slog.Logger     // optional; defaults to slog.Default()
	Now       func() time.Time // optional; defaults to time.Now
	NewID     func() string    // optional; defaults to uuid.NewString
}

// Status is the state of one pipeline.
type Status string

const (
	Idle      Status = "idle"
	Loading   Status = "loading"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
)

// PipelineState describes the latest request of a pipeline.
type PipelineState struct {
	Status Status `json:"status"`
	Step   int    `json:"step"`
	Error  string `json:"error,omitempty"`
}

// Session is one user's pass through the wizard. All methods are safe for
// concurrent use.
type Session struct {
	id      string
	ownerID string

	store     RecordStore
	suggester Suggester
	sink      events.Sink
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	step          int
	generation    uint64
	values        thought.Values
	suggestions   []string
	suggestState  PipelineState
	insight       suggest.Insight
	insightState  PipelineState
	lastSubmitted *storage.ThoughtRecord
	submitError   string
	lastActive    time.Time
	submitting    bool
	closed        bool
}

// NewSession creates a session at step 0. It emits nothing until Start.
func NewSession(id, ownerID string, deps Deps) *Session {
	if deps.Sink == nil {
		deps.Sink = events.Discard
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		ownerID:   ownerID,
		store:     deps.Store,
		suggester: deps.Suggester,
		sink:      deps.Sink,
		logger:    deps.Logger.With("session_id", id),
		now:       deps.Now,
		newID:     deps.NewID,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.lastActive = s.now()
	return s
}

func (s *Session) ID() string      { return s.id }
func (s *Session) OwnerID() string { return s.ownerID }

// Start begins a new record: step 0, everything cleared.
func (s *Session) Start() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.emit(events.Event{Type: events.SessionStarted, Step: 0})
}

// Reset returns to step 0 and clears values, suggestions, the insight panel
// and pipeline state. Nothing is persisted.
func (s *Session) Reset() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.emit(events.Event{Type: events.StepChanged, Step: 0})
}

func (s *Session) clearLocked() {
	s.step = 0
	s.generation++
	s.values = thought.Values{}
	s.suggestions = nil
	s.suggestState = PipelineState{Status: Idle}
	s.insight = suggest.Insight{}
	s.insightState = PipelineState{Status: Idle}
	s.submitError = ""
	s.touchLocked()
}

// Next advances one step. On the last field it submits the record and moves
// to the review step only if the write succeeds. At the review step it
// returns ErrInvalidTransition and changes nothing.
func (s *Session) Next() error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.step >= thought.N:
		s.mu.Unlock()
		return fmt.Errorf("%w: already at review", ErrInvalidTransition)
	case s.step == thought.N-1:
		s.mu.Unlock()
		_, err := s.Submit()
		return err
	}
	pending := s.enterLocked(s.step + 1)
	step := s.step
	s.mu.Unlock()

	s.emit(events.Event{Type: events.StepChanged, Step: step})
	pending.fire(s)
	return nil
}

// Back retreats one step. At step 0 it does nothing.
func (s *Session) Back() {
	s.mu.Lock()
	if s.step == 0 {
		s.touchLocked()
		s.mu.Unlock()
		return
	}
	pending := s.enterLocked(s.step - 1)
	step := s.step
	s.mu.Unlock()

	s.emit(events.Event{Type: events.StepChanged, Step: step})
	pending.fire(s)
}

// Retry re-issues the requests for the current step.
func (s *Session) Retry() {
	s.mu.Lock()
	pending := s.enterLocked(s.step)
	s.mu.Unlock()
	pending.fire(s)
}

// Submit persists the record. It is valid only on the last field. On a
// storage failure the step and values are kept and the error wraps
// ErrStorage. On success values are cleared and the session moves to the
// review step, where the conclusion is requested for the submitted record.
// The write runs without holding the session lock; if the session moved on
// meanwhile, the record stays saved but the cursor is left where it is.
func (s *Session) Submit() (storage.ThoughtRecord, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return storage.ThoughtRecord{}, ErrClosed
	case s.submitting:
		s.mu.Unlock()
		return storage.ThoughtRecord{}, fmt.Errorf("%w: submit in progress", ErrInvalidTransition)
	case s.step != thought.N-1:
		step := s.step
		s.mu.Unlock()
		return storage.ThoughtRecord{}, fmt.Errorf("%w: submit at step %d", ErrInvalidTransition, step)
	}

	v := s.values
	record := storage.ThoughtRecord{
		ID:              s.newID(),
		OwnerID:         s.ownerID,
		CreatedAt:       s.now().UTC(),
		Situation:       v.Situation,
		ANTs:            v.ANTs,
		Behaviors:       v.Behaviors,
		Distortions:     append([]string{}, v.Distortions...),
		EvidenceAgainst: v.EvidenceAgainst,
		FriendsAdvice:   v.FriendsAdvice,
		BalancedThought: v.BalancedThought,
	}
	generation := s.generation
	s.submitting = true
	s.mu.Unlock()

	written, err := s.store.InsertThoughtRecord(record)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.submitError = err.Error()
		s.touchLocked()
		s.mu.Unlock()
		metrics.Submissions.WithLabelValues("storage_error").Inc()
		s.emit(events.Event{Type: events.SubmitFailed, Step: thought.N - 1, Error: err.Error()})
		return storage.ThoughtRecord{}, fmt.Errorf("%w: saving thought record: %w", ErrStorage, err)
	}

	s.lastSubmitted = &written
	s.submitError = ""
	if s.closed || s.step != thought.N-1 || s.generation != generation {
		s.touchLocked()
		s.mu.Unlock()
		metrics.Submissions.WithLabelValues("ok").Inc()
		s.logger.Info("session moved during submit, keeping cursor", "record_id", written.ID)
		s.emit(events.Event{Type: events.RecordSubmitted, Step: thought.N - 1, Data: written})
		return written, nil
	}
	s.values = thought.Values{}
	pending := s.enterLocked(thought.N)
	s.mu.Unlock()

	metrics.Submissions.WithLabelValues("ok").Inc()
	s.emit(events.Event{Type: events.RecordSubmitted, Step: thought.N, Data: written})
	s.emit(events.Event{Type: events.StepChanged, Step: thought.N})
	pending.fire(s)
	return written, nil
}

// SetField assigns the free-text field of the current step.
func (s *Session) SetField(key, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.activeFieldLocked(key)
	if err != nil {
		return err
	}
	if f.Kind != thought.FreeText {
		return fmt.Errorf("%w: %s", ErrNotFreeText, key)
	}
	s.values.Set(key, text)
	s.touchLocked()
	return nil
}

// SelectSuggestion copies a suggestion into the current field. On the
// distortions step it adds the suggestion to the selection.
func (s *Session) SelectSuggestion(key, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.activeFieldLocked(key)
	if err != nil {
		return err
	}
	if f.Kind == thought.MultiSelect {
		s.values.AddDistortion(text)
	} else {
		s.values.Set(key, text)
	}
	s.touchLocked()
	return nil
}

// SelectDistortion adds a distortion to the selection. Selecting one that is
// already selected does nothing.
func (s *Session) SelectDistortion(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.activeFieldLocked(thought.Distortions); err != nil {
		return err
	}
	s.values.AddDistortion(name)
	s.touchLocked()
	return nil
}

// DeselectDistortion removes a distortion from the selection.
func (s *Session) DeselectDistortion(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.activeFieldLocked(thought.Distortions); err != nil {
		return err
	}
	s.values.RemoveDistortion(name)
	s.touchLocked()
	return nil
}

func (s *Session) activeFieldLocked(key string) (thought.Field, error) {
	if s.closed {
		return thought.Field{}, ErrClosed
	}
	f, ok := thought.FieldAt(s.step)
	if !ok || f.Key != key {
		return thought.Field{}, fmt.Errorf("%w: %s at step %d", ErrFieldNotActive, key, s.step)
	}
	return f, nil
}

func (s *Session) touchLocked() {
	s.lastActive = s.now()
}

// Step returns the cursor, in [0, thought.N].
func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Values returns a copy of the current answers.
func (s *Session) Values() thought.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Clone()
}

// Suggestions returns the suggestion set of the current step.
func (s *Session) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.suggestions...)
}

// Insight returns the insight panel.
func (s *Session) Insight() suggest.Insight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyInsight(s.insight)
}

// LastSubmitted returns the most recently submitted record, if any.
func (s *Session) LastSubmitted() (storage.ThoughtRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSubmitted == nil {
		return storage.ThoughtRecord{}, false
	}
	return *s.lastSubmitted, true
}

// Wait blocks until every request issued so far has settled.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight requests and waits for them. Once closed, the
// session issues no further requests.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) emit(e events.Event) {
	e.SessionID = s.id
	e.OwnerID = s.ownerID
	if e.Time.IsZero() {
		e.Time = s.now().UTC()
	}
	s.sink.Emit(e)
}

func copyInsight(in suggest.Insight) suggest.Insight {
	if in.Pointers != nil {
		in.Pointers = append([]string{}, in.Pointers...)
	}
	return in
}
