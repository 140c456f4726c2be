package history

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/reframe/internal/storage"
)

// --- Mock store ---

type mockStore struct {
	mu      sync.Mutex
	records []storage.ThoughtRecord
	failErr error

	listCalls int
}

func (m *mockStore) InsertThoughtRecord(r storage.ThoughtRecord) (storage.ThoughtRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return storage.ThoughtRecord{}, m.failErr
	}
	m.records = append([]storage.ThoughtRecord{r}, m.records...)
	return r, nil
}

func (m *mockStore) ListThoughtRecords(ownerID string, limit int) ([]storage.ThoughtRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []storage.ThoughtRecord
	for _, r := range m.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// --- Mock clock ---

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager() (*Manager, *mockStore, *mockClock) {
	store := &mockStore{records: []storage.ThoughtRecord{
		{ID: "r2", OwnerID: "alice", Situation: "second", Distortions: []string{"Labeling"}},
		{ID: "r1", OwnerID: "alice", Situation: "first"},
		{ID: "b1", OwnerID: "bob", Situation: "bob's"},
	}}
	clock := &mockClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewManagerWithClock(store, clock, 5*time.Minute), store, clock
}

func TestList_CachesWithinTTL(t *testing.T) {
	m, store, clock := newTestManager()

	for range 3 {
		recs, err := m.ListThoughtRecords("alice", 0)
		if err != nil {
			t.Fatalf("ListThoughtRecords: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("got %d records, want 2", len(recs))
		}
	}
	if store.calls() != 1 {
		t.Errorf("store list calls = %d, want 1", store.calls())
	}

	clock.Advance(4 * time.Minute)
	m.ListThoughtRecords("alice", 0)
	if store.calls() != 1 {
		t.Errorf("store list calls = %d after 4m, want 1", store.calls())
	}

	clock.Advance(2 * time.Minute)
	m.ListThoughtRecords("alice", 0)
	if store.calls() != 2 {
		t.Errorf("store list calls = %d after expiry, want 2", store.calls())
	}
}

func TestList_PerOwner(t *testing.T) {
	m, store, _ := newTestManager()

	alice, _ := m.ListThoughtRecords("alice", 0)
	bob, _ := m.ListThoughtRecords("bob", 0)
	if len(alice) != 2 || len(bob) != 1 {
		t.Errorf("alice=%d bob=%d, want 2 and 1", len(alice), len(bob))
	}
	if store.calls() != 2 {
		t.Errorf("store list calls = %d, want 2", store.calls())
	}
}

func TestList_Limit(t *testing.T) {
	m, _, _ := newTestManager()

	recs, err := m.ListThoughtRecords("alice", 1)
	if err != nil {
		t.Fatalf("ListThoughtRecords: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "r2" {
		t.Errorf("got %+v, want only r2", recs)
	}
}

func TestList_ReturnsCopies(t *testing.T) {
	m, _, _ := newTestManager()

	recs, _ := m.ListThoughtRecords("alice", 0)
	recs[0].Situation = "mutated"
	recs[0].Distortions[0] = "mutated"

	again, _ := m.ListThoughtRecords("alice", 0)
	if again[0].Situation != "second" || again[0].Distortions[0] != "Labeling" {
		t.Errorf("cache was mutated through a returned slice: %+v", again[0])
	}
}

func TestInsert_InvalidatesOwner(t *testing.T) {
	m, store, _ := newTestManager()

	m.ListThoughtRecords("alice", 0)
	m.ListThoughtRecords("bob", 0)

	if _, err := m.InsertThoughtRecord(storage.ThoughtRecord{ID: "r3", OwnerID: "alice"}); err != nil {
		t.Fatalf("InsertThoughtRecord: %v", err)
	}

	recs, _ := m.ListThoughtRecords("alice", 0)
	if len(recs) != 3 || recs[0].ID != "r3" {
		t.Errorf("after insert got %+v", recs)
	}
	m.ListThoughtRecords("bob", 0)
	if store.calls() != 3 {
		t.Errorf("store list calls = %d, want 3 (bob stays cached)", store.calls())
	}
}

func TestInsert_ErrorKeepsCache(t *testing.T) {
	m, store, _ := newTestManager()
	m.ListThoughtRecords("alice", 0)

	store.failErr = errors.New("disk full")
	if _, err := m.InsertThoughtRecord(storage.ThoughtRecord{ID: "r3", OwnerID: "alice"}); err == nil {
		t.Fatal("expected error")
	}
	m.ListThoughtRecords("alice", 0)
	if store.calls() != 1 {
		t.Errorf("store list calls = %d, want 1", store.calls())
	}
}

func TestInvalidate(t *testing.T) {
	m, store, _ := newTestManager()
	m.ListThoughtRecords("alice", 0)
	m.Invalidate("alice")
	m.ListThoughtRecords("alice", 0)
	if store.calls() != 2 {
		t.Errorf("store list calls = %d, want 2", store.calls())
	}
}

func TestManager_WithSQLiteStore(t *testing.T) {
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	m := NewManager(s, 0)
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b"} {
		if _, err := m.InsertThoughtRecord(storage.ThoughtRecord{ID: id, OwnerID: "demo-user", CreatedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("InsertThoughtRecord: %v", err)
		}
	}
	recs, err := m.ListThoughtRecords("demo-user", 0)
	if err != nil {
		t.Fatalf("ListThoughtRecords: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "b" {
		t.Errorf("got %+v, want newest first", recs)
	}
}
