package game

import "sync"

// Registry owns the session store and membership tracker and serializes
// every access to them.
type Registry struct {
	mu         sync.Mutex
	store      *Store
	membership *Membership
}

// NewRegistry wraps a store and tracker
func NewRegistry(store *Store, membership *Membership) *Registry {
	if store == nil {
		store = NewStore()
	}
	if membership == nil {
		membership = NewMembership()
	}
	return &Registry{store: store, membership: membership}
}

// Do runs fn while holding the registry lock. fn must not retain
// either argument after returning.
func (r *Registry) Do(fn func(store *Store, membership *Membership)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.store, r.membership)
}

// Stats returns the number of live sessions and tracked connections
func (r *Registry) Stats() (sessions, connections int) {
	r.Do(func(s *Store, m *Membership) {
		sessions = s.Len()
		connections = m.Len()
	})
	return sessions, connections
}
