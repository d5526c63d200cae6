package geocache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/weatherwear/internal/domain/weather"
)

type entry struct {
	place     weather.Place
	expiresAt time.Time
}

// MemoryStore is an in-memory geocode cache for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore constructs a cache backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get implements weather.GeoCache.
func (s *MemoryStore) Get(_ context.Context, key string) (weather.Place, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return weather.Place{}, false, nil
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return weather.Place{}, false, nil
	}
	return e.place, true, nil
}

// Put stores the place with an optional TTL.
func (s *MemoryStore) Put(_ context.Context, key string, place weather.Place, ttl time.Duration) error {
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry{place: place, expiresAt: exp}
	s.mu.Unlock()
	return nil
}

var _ weather.GeoCache = (*MemoryStore)(nil)
