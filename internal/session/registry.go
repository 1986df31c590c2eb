package session

import (
	"sort"
	"sync"
	"time"
)

// Registry maps user IDs to their sessions. It is safe for concurrent
// use. Sessions are created on first access and never expire on their
// own; Remove and Clear are the only ways state leaves the registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	clock    func() time.Time
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the registry's time source, used in tests.
func WithClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.clock = clock
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the session for userID, creating it if absent.
// The boolean reports whether this call created the session; it is
// decided under the registry lock, so concurrent callers for the same
// user see exactly one true.
func (r *Registry) GetOrCreate(userID string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	if ok {
		return s, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		return s, false
	}
	s = newSession(userID, r.clock())
	r.sessions[userID] = s
	return s, true
}

// Get returns the session for userID, or nil if none exists.
func (r *Registry) Get(userID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[userID]
}

// Remove deletes the session for userID and reports whether it existed.
func (r *Registry) Remove(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[userID]
	delete(r.sessions, userID)
	return ok
}

// Clear drops all sessions and returns how many were removed.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.sessions)
	r.sessions = make(map[string]*Session)
	return n
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Summaries returns a snapshot of every session, sorted by user ID so
// the listing endpoint is stable across calls.
func (r *Registry) Summaries() []Summary {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Now exposes the registry's clock so callers stamping session state use
// the same time source.
func (r *Registry) Now() time.Time {
	return r.clock()
}
