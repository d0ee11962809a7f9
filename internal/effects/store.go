package effects

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AaronLay10/SentientUI/internal/events"
	"github.com/AaronLay10/SentientUI/internal/idgen"
)

// DefaultSessionTTL is how long a session may sit unused before it is dropped.
const DefaultSessionTTL = 30 * time.Minute

type storedSession struct {
	session  *Session
	lastSeen atomic.Int64
}

func (e *storedSession) touch(now time.Time) {
	e.lastSeen.Store(now.UnixNano())
}

// SessionStore keeps sessions in memory by id. Ids are only ever issued by the
// store, so holding one is what entitles a caller to the session.
type SessionStore struct {
	ids  idgen.Generator
	root string
	ttl  time.Duration
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*storedSession

	stop chan struct{}
	once sync.Once
}

// StoreOption configures a SessionStore.
type StoreOption func(*SessionStore)

// WithIdleTTL sets how long an unused session survives. Zero or less keeps
// sessions until they are deleted.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(st *SessionStore) { st.ttl = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(st *SessionStore) { st.now = now }
}

// NewSessionStore creates a store. New sessions start on root and get ids from ids.
func NewSessionStore(ids idgen.Generator, root string, opts ...StoreOption) *SessionStore {
	st := &SessionStore{
		ids:      ids,
		root:     root,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		sessions: make(map[string]*storedSession),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Get returns the session with the given id and marks it as used.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.touch(st.now())
	return e.session, true
}

// GetOrCreate returns the session with the given id. An empty or unknown id
// gets a new session under a generated id; callers cannot pick their own.
func (st *SessionStore) GetOrCreate(id string) *Session {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s
		}
	}

	st.mu.Lock()
	id = st.ids.Next()
	s := NewSession(id, st.root)
	e := &storedSession{session: s}
	e.touch(st.now())
	st.sessions[id] = e
	st.mu.Unlock()

	events.Emit("info", "session.created", "", map[string]interface{}{
		"session_id": id,
	})
	return s
}

// Delete removes a session.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// StartSweep drops idle sessions every interval until Stop is called.
func (st *SessionStore) StartSweep(interval time.Duration) {
	if st.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-st.stop:
				return
			case <-ticker.C:
				st.Sweep()
			}
		}
	}()
}

// Stop ends the background sweep.
func (st *SessionStore) Stop() {
	st.once.Do(func() { close(st.stop) })
}

// Sweep drops sessions idle for longer than the TTL and returns how many went.
func (st *SessionStore) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl).UnixNano()

	var expired []string
	st.mu.Lock()
	for id, e := range st.sessions {
		if e.lastSeen.Load() < cutoff {
			delete(st.sessions, id)
			expired = append(expired, id)
		}
	}
	st.mu.Unlock()

	for _, id := range expired {
		events.Emit("info", "session.expired", "", map[string]interface{}{
			"session_id": id,
		})
	}
	return len(expired)
}

// IDs returns the session ids, sorted.
func (st *SessionStore) IDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
