package store

import (
	"errors"
	"sync"
	"time"

	"github.com/saviottt/solarcalc/internal/climate"
)

var (
	// ErrNotFound is returned when no normals are cached for a location.
	ErrNotFound = errors.New("no climate normals for location")
)

type entry struct {
	normals climate.Normals
	savedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory cache of climate normals.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key
	data map[string]entry

	// retention configuration
	maxEntries int           // max number of cached locations
	maxAge     time.Duration // optional max age for an entry

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries or maxAge is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save stores a copy of normals for a location, evicting the oldest entry
// when the store is full.
func (s *MemoryStore) Save(loc climate.Location, normals climate.Normals) {
	cp := make(climate.Normals, len(normals))
	for m, v := range normals {
		cp[m] = v
	}

	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; !exists && s.maxEntries > 0 && len(s.data) >= s.maxEntries {
		s.evictOldestLocked()
	}
	s.data[key] = entry{normals: cp, savedAt: s.now()}
}

// Get returns the cached normals for a location. Expired entries are treated
// as missing.
func (s *MemoryStore) Get(loc climate.Location) (climate.Normals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[loc.Key()]
	if !ok || s.expired(e, s.now()) {
		return nil, ErrNotFound
	}
	return e.normals, nil
}

// Prune removes entries older than maxAge and returns the number removed.
func (s *MemoryStore) Prune(now time.Time) int {
	if s.maxAge <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.data {
		if s.expired(e, now) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached locations, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(e entry, now time.Time) bool {
	return s.maxAge > 0 && now.Sub(e.savedAt) > s.maxAge
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range s.data {
		if oldestKey == "" || e.savedAt.Before(oldest) {
			oldestKey = k
			oldest = e.savedAt
		}
	}
	if oldestKey != "" {
		delete(s.data, oldestKey)
	}
}
