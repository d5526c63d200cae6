package orchestrator

import (
	"sync"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
)

// DefaultQuery is the location pre-filled at startup.
const DefaultQuery = "Atlanta"

// Store holds the user editable inputs: the location query and the
// preference set. Setters accept any value of their type; emptiness of the
// query is checked when a weather fetch is submitted.
type Store struct {
	mu        sync.RWMutex
	query     string
	prefs     outfit.Preferences
	listeners []func()
}

// NewStore returns a store seeded with the startup query and default preferences.
func NewStore() *Store {
	return &Store{
		query: DefaultQuery,
		prefs: outfit.DefaultPreferences(),
	}
}

// Query returns the current location query.
func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Preferences returns a copy of the current preference set.
func (s *Store) Preferences() outfit.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// OnChange registers fn to run after every setter.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) SetQuery(query string) {
	s.update(func() { s.query = query })
}

func (s *Store) SetStyle(style outfit.Style) {
	s.update(func() { s.prefs.Style = style })
}

func (s *Store) SetColdSensitivity(level outfit.Level) {
	s.update(func() { s.prefs.ColdSensitivity = level })
}

func (s *Store) SetActivityLevel(level outfit.Level) {
	s.update(func() { s.prefs.ActivityLevel = level })
}

func (s *Store) SetCarryUmbrella(carry bool) {
	s.update(func() { s.prefs.CarryUmbrella = carry })
}

func (s *Store) update(mutate func()) {
	s.mu.Lock()
	mutate()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
