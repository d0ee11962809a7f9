package effects

import (
	"sort"
	"sync"
)

// NavEntry is one screen on the navigation stack.
type NavEntry struct {
	Screen string         `json:"screen"`
	Params map[string]any `json:"params,omitempty"`
}

type Toast struct {
	Message    string `json:"message"`
	Status     string `json:"status,omitempty"`
	DurationMS int    `json:"duration_ms"`
}

type Modal struct {
	ID    string         `json:"id"`
	Props map[string]any `json:"props,omitempty"`
}

type OpenedURL struct {
	URL      string `json:"url"`
	External bool   `json:"external"`
}

type ShareRecord struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Session is the client-side state one user's actions act upon.
type Session struct {
	ID string

	mu        sync.Mutex
	nav       []NavEntry
	cart      map[string]int
	favorites map[string]bool
	toasts    []Toast
	modals    []Modal
	urls      []OpenedURL
	shares    []ShareRecord
	refreshes []string
}

// NewSession creates a session whose navigation stack starts at root.
func NewSession(id, root string) *Session {
	return &Session{
		ID:        id,
		nav:       []NavEntry{{Screen: root}},
		cart:      make(map[string]int),
		favorites: make(map[string]bool),
	}
}

// Navigate pushes a screen.
func (s *Session) Navigate(screen string, params map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav = append(s.nav, NavEntry{Screen: screen, Params: copyMap(params)})
}

// GoBack pops the current screen. The root entry is never popped; it reports
// whether anything changed.
func (s *Session) GoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.nav) <= 1 {
		return false
	}
	s.nav = s.nav[:len(s.nav)-1]
	return true
}

// Current returns the top of the navigation stack.
func (s *Session) Current() NavEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav[len(s.nav)-1]
}

// AddToCart increments the quantity of productID and returns the new quantity.
func (s *Session) AddToCart(productID string, quantity int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart[productID] += quantity
	return s.cart[productID]
}

// SetCartQuantity sets the quantity; zero or less removes the item.
func (s *Session) SetCartQuantity(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity <= 0 {
		delete(s.cart, productID)
		return
	}
	s.cart[productID] = quantity
}

func (s *Session) RemoveFromCart(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cart, productID)
}

// ToggleFavorite flips productID and returns whether it is now a favorite.
func (s *Session) ToggleFavorite(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.favorites[productID] {
		delete(s.favorites, productID)
		return false
	}
	s.favorites[productID] = true
	return true
}

func (s *Session) PushToast(t Toast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, t)
}

func (s *Session) ShowModal(m Modal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Props = copyMap(m.Props)
	s.modals = append(s.modals, m)
}

// CloseModal closes the topmost modal with the given id, or the topmost modal
// when id is empty. It reports whether a modal was closed.
func (s *Session) CloseModal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.modals) - 1; i >= 0; i-- {
		if id == "" || s.modals[i].ID == id {
			s.modals = append(s.modals[:i], s.modals[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) OpenURL(u OpenedURL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, u)
}

func (s *Session) Share(r ShareRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shares = append(s.shares, r)
}

// RequestRefresh records a refresh. An empty section id means the whole screen.
func (s *Session) RequestRefresh(sectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes = append(s.refreshes, sectionID)
}

// SessionState is a point-in-time copy of a session.
type SessionState struct {
	ID         string         `json:"id"`
	Navigation []NavEntry     `json:"navigation"`
	Cart       map[string]int `json:"cart"`
	CartCount  int            `json:"cart_count"`
	Favorites  []string       `json:"favorites"`
	Toasts     []Toast        `json:"toasts"`
	Modals     []Modal        `json:"modals"`
	URLs       []OpenedURL    `json:"urls"`
	Shares     []ShareRecord  `json:"shares"`
	Refreshes  []string       `json:"refreshes"`
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SessionState{
		ID:         s.ID,
		Navigation: make([]NavEntry, len(s.nav)),
		Cart:       make(map[string]int, len(s.cart)),
		Favorites:  make([]string, 0, len(s.favorites)),
		Toasts:     append([]Toast{}, s.toasts...),
		Modals:     make([]Modal, len(s.modals)),
		URLs:       append([]OpenedURL{}, s.urls...),
		Shares:     append([]ShareRecord{}, s.shares...),
		Refreshes:  append([]string{}, s.refreshes...),
	}
	for i, e := range s.nav {
		st.Navigation[i] = NavEntry{Screen: e.Screen, Params: copyMap(e.Params)}
	}
	for id, q := range s.cart {
		st.Cart[id] = q
		st.CartCount += q
	}
	for id := range s.favorites {
		st.Favorites = append(st.Favorites, id)
	}
	sort.Strings(st.Favorites)
	for i, m := range s.modals {
		st.Modals[i] = Modal{ID: m.ID, Props: copyMap(m.Props)}
	}
	return st
}

// State is the view conditions are evaluated against.
func (s *Session) State() map[string]any {
	st := s.Snapshot()
	favorites := make([]any, len(st.Favorites))
	for i, f := range st.Favorites {
		favorites[i] = f
	}
	cart := make(map[string]any, len(st.Cart))
	for id, q := range st.Cart {
		cart[id] = q
	}
	current := st.Navigation[len(st.Navigation)-1]
	return map[string]any{
		"session":   st.ID,
		"screen":    current.Screen,
		"params":    copyMap(current.Params),
		"cart":      cart,
		"cartCount": st.CartCount,
		"favorites": favorites,
		"modalOpen": len(st.Modals) > 0,
	}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
