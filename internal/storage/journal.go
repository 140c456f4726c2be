package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const journalColumns = `id, owner_id, type, title, content, mood, category, tags, is_private, source, insights, created_at, updated_at`

func (s *Store) SaveJournalEntry(e JournalEntry) error {
	if e.Source == "" {
		e.Source = "text"
	}
	if e.Type == "" {
		e.Type = "journal"
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	tags, err := marshalTags(e.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO journal_entries (`+journalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Type, e.Title, e.Content, e.Mood, e.Category, tags, e.Private,
		e.Source, e.Insights, formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	return err
}

func (s *Store) GetJournalEntry(id string) (JournalEntry, error) {
	row := s.db.QueryRow(`SELECT `+journalColumns+` FROM journal_entries WHERE id = ?`, id)
	e, err := scanJournalEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return JournalEntry{}, ErrNotFound
	}
	return e, err
}

// ListJournalEntries returns an owner's entries, newest first. An empty
// entryType lists every type.
func (s *Store) ListJournalEntries(ownerID, entryType string, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+journalColumns+` FROM journal_entries
		WHERE owner_id = ? AND (? = '' OR type = ?)
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, ownerID, entryType, entryType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []JournalEntry
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// UpdateJournalEntry rewrites the editable columns of an entry. The owner,
// type, source and creation time are left as stored.
func (s *Store) UpdateJournalEntry(e JournalEntry) error {
	tags, err := marshalTags(e.Tags)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE journal_entries
		SET title = ?, content = ?, mood = ?, category = ?, tags = ?, is_private = ?, insights = ?, updated_at = ?
		WHERE id = ?`,
		e.Title, e.Content, e.Mood, e.Category, tags, e.Private, e.Insights, formatTime(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) UpdateJournalInsights(id, insights string) error {
	res, err := s.db.Exec(`UPDATE journal_entries SET insights = ? WHERE id = ?`, insights, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) DeleteJournalEntry(id string) error {
	res, err := s.db.Exec(`DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshalling tags: %w", err)
	}
	return string(data), nil
}

func scanJournalEntry(row rowScanner) (JournalEntry, error) {
	var e JournalEntry
	var tags, createdAt, updatedAt string
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Type, &e.Title, &e.Content, &e.Mood, &e.Category,
		&tags, &e.Private, &e.Source, &e.Insights, &createdAt, &updatedAt); err != nil {
		return JournalEntry{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("parsing created_at: %w", err)
	}
	e.CreatedAt = t
	e.UpdatedAt = t
	if updatedAt != "" {
		if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return JournalEntry{}, fmt.Errorf("parsing updated_at: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return JournalEntry{}, fmt.Errorf("parsing tags for %s: %w", e.ID, err)
	}
	return e, nil
}
