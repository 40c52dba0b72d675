package connector

import (
	"sync"
	"sync/atomic"
)

// Registry holds the active connectors keyed by system id. It is
// copy-on-write: mutations build a fresh map and swap a single pointer, so
// readers always operate on an immutable snapshot and an in-flight poll
// using a stale snapshot completes safely.
type Registry struct {
	mu         sync.Mutex
	connectors atomic.Pointer[map[string]*Connector]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := make(map[string]*Connector)
	r.connectors.Store(&empty)
	return r
}

// Register adds or replaces the connector for the given system id.
func (r *Registry) Register(id string, c *Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.clone()
	next[id] = c
	r.connectors.Store(&next)
}

// Unregister removes the connector for the given system id. Events already
// in flight on an older snapshot are unaffected.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.clone()
	delete(next, id)
	r.connectors.Store(&next)
}

// Snapshot returns the current point-in-time set of connectors. The map
// must not be mutated by callers.
func (r *Registry) Snapshot() map[string]*Connector {
	return *r.connectors.Load()
}

// clone copies the current map; callers must hold mu.
func (r *Registry) clone() map[string]*Connector {
	current := *r.connectors.Load()
	next := make(map[string]*Connector, len(current)+1)
	for id, c := range current {
		next[id] = c
	}
	return next
}
