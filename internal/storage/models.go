package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// ThoughtRecord is a completed CBT thought record. Rows are never updated.
type ThoughtRecord struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	CreatedAt       time.Time `json:"created_at"`
	Situation       string    `json:"situation"`
	ANTs            string    `json:"ants"`
	Behaviors       string    `json:"behaviors"`
	Distortions     []string  `json:"distortions"`
	EvidenceAgainst string    `json:"evidence_against"`
	FriendsAdvice   string    `json:"friends_advice"`
	BalancedThought string    `json:"balanced_thought"`
}

type JournalEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	Category  string    `json:"category,omitempty"`
	Tags      []string  `json:"tags"`
	Private   bool      `json:"is_private"`
	Source    string    `json:"source"`
	Insights  string    `json:"insights"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
