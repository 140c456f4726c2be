// Package journal keeps free-form journal entries and the AI reflections
// generated for them.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kalambet/reframe/internal/completion"
	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/suggest"
)

// JobType is the job queue type for insight generation.
const JobType = "journal_insight"

// Entry sources.
const (
	SourceText = "text"
	SourcePDF  = "pdf"
	SourceMCP  = "mcp"
)

// Entry types.
const (
	TypeJournal   = "journal"
	TypeGratitude = "gratitude"
	TypeStrength  = "strength"
)

// Mood is one step of the five-level mood scale, from happiest to saddest.
type Mood struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

var moods = []Mood{
	{Name: "happy", Emoji: "😊", Label: "Happy"},
	{Name: "content", Emoji: "😌", Label: "Content"},
	{Name: "neutral", Emoji: "😐", Label: "Neutral"},
	{Name: "sad", Emoji: "😔", Label: "Sad"},
	{Name: "very-sad", Emoji: "😢", Label: "Very Sad"},
}

// Moods returns the mood scale.
func Moods() []Mood {
	return append([]Mood(nil), moods...)
}

// NormalizeMood maps a mood name, label or emoji to its name. An empty
// mood stays empty.
func NormalizeMood(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, m := range moods {
		if strings.EqualFold(s, m.Name) || strings.EqualFold(s, m.Label) || s == m.Emoji {
			return m.Name, nil
		}
	}
	return "", fmt.Errorf("%w: unknown mood %q", ErrInvalidEntry, s)
}

const (
	// FallbackInsights is shown when no reflection could be generated.
	FallbackInsights = "Unable to generate insights at this time. Please try again later."
	// BusyInsights is shown when the provider rate limited the request.
	BusyInsights = "Unable to generate insights at this time due to high demand. Please try again later."

	maxTitleRunes = 60
)

var (
	ErrEmptyContent  = errors.New("journal entry content is required")
	ErrInvalidSource = errors.New("invalid journal entry source")
	ErrInvalidEntry  = errors.New("invalid journal entry")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewEntry describes an entry to add. Empty Type means TypeJournal.
type NewEntry struct {
	OwnerID  string
	Type     string `validate:"omitempty,oneof=journal gratitude strength"`
	Title    string `validate:"max=256"`
	Content  string
	Mood     string
	Category string   `validate:"max=64"`
	Tags     []string `validate:"max=20,dive,required,max=40"`
	Private  bool
	Source   string
}

// Update lists the fields to change on an entry. Nil fields are kept.
type Update struct {
	Title    *string `validate:"omitempty,max=256"`
	Content  *string
	Mood     *string
	Category *string   `validate:"omitempty,max=64"`
	Tags     *[]string `validate:"omitempty,max=20,dive,required,max=40"`
	Private  *bool
}

// Store defines the storage operations the journal needs.
type Store interface {
	SaveJournalEntry(e storage.JournalEntry) error
	GetJournalEntry(id string) (storage.JournalEntry, error)
	ListJournalEntries(ownerID, entryType string, limit int) ([]storage.JournalEntry, error)
	UpdateJournalEntry(e storage.JournalEntry) error
	UpdateJournalInsights(id, insights string) error
	DeleteJournalEntry(id string) error
	EnqueueJob(job storage.Job) error
}

// TextCompleter completes a prompt. Implemented by suggest.Requester.
type TextCompleter interface {
	Text(ctx context.Context, op, prompt string) (string, error)
	Configured() bool
}

type insightPayload struct {
	EntryID string `json:"entry_id"`
}

// Service adds, reads and reflects on journal entries.
type Service struct {
	store  Store
	ai     TextCompleter
	now    func() time.Time
	logger *slog.Logger
}

func NewService(store Store, ai TextCompleter) *Service {
	return &Service{
		store:  store,
		ai:     ai,
		now:    time.Now,
		logger: slog.Default(),
	}
}

// Add stores a new entry and queues insight generation for it. An empty
// title is derived from the first line of content. An empty source means
// SourceText.
func (s *Service) Add(n NewEntry) (storage.JournalEntry, error) {
	content := strings.TrimSpace(n.Content)
	if content == "" {
		return storage.JournalEntry{}, ErrEmptyContent
	}
	switch n.Source {
	case "":
		n.Source = SourceText
	case SourceText, SourcePDF, SourceMCP:
	default:
		return storage.JournalEntry{}, fmt.Errorf("%w: %q", ErrInvalidSource, n.Source)
	}
	if n.Type == "" {
		n.Type = TypeJournal
	}
	n.Tags = cleanTags(n.Tags)
	if err := validate.Struct(n); err != nil {
		return storage.JournalEntry{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	mood, err := NormalizeMood(n.Mood)
	if err != nil {
		return storage.JournalEntry{}, err
	}
	title := strings.TrimSpace(n.Title)
	if title == "" {
		title = deriveTitle(content)
	}

	now := s.now().UTC()
	e := storage.JournalEntry{
		ID:        uuid.NewString(),
		OwnerID:   n.OwnerID,
		Type:      n.Type,
		Title:     title,
		Content:   content,
		Mood:      mood,
		Category:  strings.TrimSpace(n.Category),
		Tags:      n.Tags,
		Private:   n.Private,
		Source:    n.Source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveJournalEntry(e); err != nil {
		return storage.JournalEntry{}, fmt.Errorf("saving journal entry: %w", err)
	}
	if err := s.enqueueInsights(e.ID); err != nil {
		return e, err
	}
	s.logger.Debug("journal entry added", "id", e.ID, "type", e.Type, "source", e.Source)
	return e, nil
}

// Update edits an entry. Changing the content clears its insights and queues
// new ones.
func (s *Service) Update(id string, u Update) (storage.JournalEntry, error) {
	if u.Tags != nil {
		tags := cleanTags(*u.Tags)
		u.Tags = &tags
	}
	if err := validate.Struct(u); err != nil {
		return storage.JournalEntry{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	e, err := s.store.GetJournalEntry(id)
	if err != nil {
		return storage.JournalEntry{}, err
	}

	contentChanged := false
	if u.Content != nil {
		content := strings.TrimSpace(*u.Content)
		if content == "" {
			return storage.JournalEntry{}, ErrEmptyContent
		}
		if content != e.Content {
			e.Content = content
			e.Insights = ""
			contentChanged = true
		}
	}
	if u.Title != nil {
		if e.Title = strings.TrimSpace(*u.Title); e.Title == "" {
			e.Title = deriveTitle(e.Content)
		}
	}
	if u.Mood != nil {
		if e.Mood, err = NormalizeMood(*u.Mood); err != nil {
			return storage.JournalEntry{}, err
		}
	}
	if u.Category != nil {
		e.Category = strings.TrimSpace(*u.Category)
	}
	if u.Tags != nil {
		e.Tags = *u.Tags
	}
	if u.Private != nil {
		e.Private = *u.Private
	}
	e.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateJournalEntry(e); err != nil {
		return storage.JournalEntry{}, fmt.Errorf("updating journal entry %s: %w", id, err)
	}
	if contentChanged {
		if err := s.enqueueInsights(e.ID); err != nil {
			return e, err
		}
	}
	return e, nil
}

func (s *Service) enqueueInsights(entryID string) error {
	payload, _ := json.Marshal(insightPayload{EntryID: entryID})
	if err := s.store.EnqueueJob(storage.Job{
		ID:          uuid.NewString(),
		Type:        JobType,
		PayloadJSON: string(payload),
	}); err != nil {
		return fmt.Errorf("enqueuing insight job: %w", err)
	}
	return nil
}

func (s *Service) Get(id string) (storage.JournalEntry, error) {
	return s.store.GetJournalEntry(id)
}

// List returns an owner's entries, newest first. An empty entryType lists
// every type.
func (s *Service) List(ownerID, entryType string, limit int) ([]storage.JournalEntry, error) {
	switch entryType {
	case "", TypeJournal, TypeGratitude, TypeStrength:
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEntry, entryType)
	}
	return s.store.ListJournalEntries(ownerID, entryType, limit)
}

func (s *Service) Delete(id string) error {
	return s.store.DeleteJournalEntry(id)
}

// Insights asks for a reflection on content. When the provider is not
// configured it returns FallbackInsights without calling out. When the
// request fails it returns the text to show together with the error.
func (s *Service) Insights(ctx context.Context, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if !s.ai.Configured() {
		return FallbackInsights, nil
	}

	text, err := s.ai.Text(ctx, "journal insights", suggest.JournalPrompt(content))
	if err != nil {
		if errors.Is(err, completion.ErrRateLimited) {
			return BusyInsights, err
		}
		return FallbackInsights, err
	}
	return strings.TrimSpace(text), nil
}

// Reflect generates insights for a stored entry and saves them on success.
// Failures return the text to show, which is not saved.
func (s *Service) Reflect(ctx context.Context, e storage.JournalEntry) (string, error) {
	text, err := s.Insights(ctx, e.Content)
	if err != nil || !s.ai.Configured() {
		return text, err
	}
	if err := s.store.UpdateJournalInsights(e.ID, text); err != nil {
		return text, fmt.Errorf("storing insights for %s: %w", e.ID, err)
	}
	return text, nil
}

func deriveTitle(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= maxTitleRunes {
		return line
	}
	r := []rune(line)
	return strings.TrimSpace(string(r[:maxTitleRunes])) + "…"
}

// cleanTags trims tags and drops blanks and duplicates.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
