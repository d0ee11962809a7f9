package screen

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// StoredScreen is a cached screen with its delivery metadata.
type StoredScreen struct {
	Screen          *Screen
	ProtocolVersion string
	ReceivedAt      time.Time
}

type stored struct {
	raw             []byte
	protocolVersion string
	receivedAt      time.Time
}

// Store caches the latest screen per id. Screens are kept encoded so every Get
// hands out an independent copy.
type Store struct {
	mu      sync.RWMutex
	screens map[string]stored
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		screens: make(map[string]stored),
	}
}

// Put adds or replaces the screen carried by env.
func (s *Store) Put(env *Envelope) error {
	raw, err := json.Marshal(env.Screen)
	if err != nil {
		return fmt.Errorf("failed to encode screen %s: %w", env.Screen.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.screens[env.Screen.ID] = stored{
		raw:             raw,
		protocolVersion: env.ProtocolVersion,
		receivedAt:      time.Now().UTC(),
	}
	return nil
}

// Get returns a copy of the screen with the given id, or nil if not found.
func (s *Store) Get(id string) *Screen {
	st := s.Lookup(id)
	if st == nil {
		return nil
	}
	return st.Screen
}

// Lookup returns the screen and its metadata, or nil if not found.
func (s *Store) Lookup(id string) *StoredScreen {
	s.mu.RLock()
	st, ok := s.screens[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	var scr Screen
	if err := json.Unmarshal(st.raw, &scr); err != nil {
		return nil
	}
	return &StoredScreen{
		Screen:          &scr,
		ProtocolVersion: st.protocolVersion,
		ReceivedAt:      st.receivedAt,
	}
}

// Delete removes a screen.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.screens, id)
}

// IDs returns the stored screen ids, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.screens))
	for id := range s.screens {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored screens.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.screens)
}
