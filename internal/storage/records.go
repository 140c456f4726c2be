package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const recordColumns = `id, owner_id, created_at, situation, ants, behaviors, distortions, evidence_against, friends_advice, balanced_thought`

// InsertThoughtRecord stores a completed thought record and returns it as written.
func (s *Store) InsertThoughtRecord(r ThoughtRecord) (ThoughtRecord, error) {
	if r.ID == "" || r.OwnerID == "" {
		return ThoughtRecord{}, fmt.Errorf("thought record requires id and owner_id")
	}
	distortions := r.Distortions
	if distortions == nil {
		distortions = []string{}
	}
	distortionsJSON, err := json.Marshal(distortions)
	if err != nil {
		return ThoughtRecord{}, fmt.Errorf("marshalling distortions: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO thought_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, formatTime(r.CreatedAt), r.Situation, r.ANTs, r.Behaviors,
		string(distortionsJSON), r.EvidenceAgainst, r.FriendsAdvice, r.BalancedThought,
	)
	if err != nil {
		return ThoughtRecord{}, fmt.Errorf("inserting thought record: %w", err)
	}

	r.Distortions = distortions
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

// GetThoughtRecord returns the record with the given id.
func (s *Store) GetThoughtRecord(id string) (ThoughtRecord, error) {
	row := s.db.QueryRow(`SELECT `+recordColumns+` FROM thought_records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ThoughtRecord{}, ErrNotFound
	}
	return r, err
}

// ListThoughtRecords returns an owner's records, newest first. A limit <= 0
// returns every record.
func (s *Store) ListThoughtRecords(ownerID string, limit int) ([]ThoughtRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+recordColumns+` FROM thought_records
		WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ThoughtRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ThoughtRecord, error) {
	var r ThoughtRecord
	var createdAt, distortions string
	if err := row.Scan(&r.ID, &r.OwnerID, &createdAt, &r.Situation, &r.ANTs, &r.Behaviors,
		&distortions, &r.EvidenceAgainst, &r.FriendsAdvice, &r.BalancedThought); err != nil {
		return ThoughtRecord{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return ThoughtRecord{}, fmt.Errorf("parsing created_at: %w", err)
	}
	r.CreatedAt = t
	if err := json.Unmarshal([]byte(distortions), &r.Distortions); err != nil {
		return ThoughtRecord{}, fmt.Errorf("parsing distortions for %s: %w", r.ID, err)
	}
	return r, nil
}
