// Package history serves an owner's past thought records from a short-lived
// cache in front of storage.
package history

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kalambet/reframe/internal/metrics"
	"github.com/kalambet/reframe/internal/storage"
)

const defaultTTL = 5 * time.Minute

// RecordStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type RecordStore interface {
	InsertThoughtRecord(r storage.ThoughtRecord) (storage.ThoughtRecord, error)
	ListThoughtRecords(ownerID string, limit int) ([]storage.ThoughtRecord, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type cacheEntry struct {
	records  []storage.ThoughtRecord
	cachedAt time.Time
}

// Manager caches each owner's full record list for a TTL. Writes go through
// to the store and invalidate the owner's entry.
type Manager struct {
	store RecordStore
	clock Clock
	ttl   time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewManager creates a Manager. ttl <= 0 uses five minutes.
func NewManager(store RecordStore, ttl time.Duration) *Manager {
	return NewManagerWithClock(store, realClock{}, ttl)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store RecordStore, clock Clock, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		store: store,
		clock: clock,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

func (m *Manager) fresh(e cacheEntry, ok bool) bool {
	return ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl))
}

// ListThoughtRecords returns the owner's records newest first, at most limit
// of them when limit > 0.
func (m *Manager) ListThoughtRecords(ownerID string, limit int) ([]storage.ThoughtRecord, error) {
	all, err := m.list(ownerID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *Manager) list(ownerID string) ([]storage.ThoughtRecord, error) {
	// Fast path: read lock for cache hit.
	m.mu.RLock()
	e, ok := m.cache[ownerID]
	if m.fresh(e, ok) {
		m.mu.RUnlock()
		metrics.HistoryCache.WithLabelValues("hit").Inc()
		return copyRecords(e.records), nil
	}
	m.mu.RUnlock()

	// Slow path: write lock for cache miss.
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := m.cache[ownerID]; m.fresh(e, ok) {
		metrics.HistoryCache.WithLabelValues("hit").Inc()
		return copyRecords(e.records), nil
	}
	metrics.HistoryCache.WithLabelValues("miss").Inc()

	records, err := m.store.ListThoughtRecords(ownerID, 0)
	if err != nil {
		return nil, fmt.Errorf("listing thought records: %w", err)
	}
	m.cache[ownerID] = cacheEntry{records: records, cachedAt: m.clock.Now()}
	return copyRecords(records), nil
}

// InsertThoughtRecord persists r and invalidates the owner's cached list.
func (m *Manager) InsertThoughtRecord(r storage.ThoughtRecord) (storage.ThoughtRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	written, err := m.store.InsertThoughtRecord(r)
	if err != nil {
		return storage.ThoughtRecord{}, err
	}
	delete(m.cache, r.OwnerID)
	return written, nil
}

// Invalidate drops the owner's cached list.
func (m *Manager) Invalidate(ownerID string) {
	m.mu.Lock()
	delete(m.cache, ownerID)
	m.mu.Unlock()
}

func copyRecords(in []storage.ThoughtRecord) []storage.ThoughtRecord {
	out := make([]storage.ThoughtRecord, len(in))
	for i, r := range in {
		r.Distortions = slices.Clone(r.Distortions)
		out[i] = r
	}
	return out
}
