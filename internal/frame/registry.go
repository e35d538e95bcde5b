// Package frame holds the per-frame update registry and the frame driver
// invoked by the clock.
package frame

import (
	"sync"
	"sync/atomic"
)

// Updateable is anything that needs a callback every frame.
// Handles are compared by identity, so use pointer types.
type Updateable interface {
	Update()
}

// Registry is an ordered list of updateables. Writers copy the list, so a
// frame iterating a snapshot never sees a half-applied Add or Remove.
type Registry struct {
	mu    sync.Mutex // serializes writers
	items atomic.Pointer[[]Updateable]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.items.Store(&[]Updateable{})
	return r
}

// Add appends u. Duplicates are allowed.
func (r *Registry) Add(u Updateable) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.items.Load()
	next := make([]Updateable, len(old), len(old)+1)
	copy(next, old)
	next = append(next, u)
	r.items.Store(&next)
}

// Remove drops the first entry identical to u. It is a no-op when u is absent.
func (r *Registry) Remove(u Updateable) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.items.Load()
	for i, item := range old {
		if item != u {
			continue
		}
		next := make([]Updateable, 0, len(old)-1)
		next = append(next, old[:i]...)
		next = append(next, old[i+1:]...)
		r.items.Store(&next)
		return true
	}
	return false
}

// Count returns the number of registered updateables.
func (r *Registry) Count() int {
	return len(*r.items.Load())
}

// Snapshot returns the current list. Callers must not modify it.
func (r *Registry) Snapshot() []Updateable {
	return *r.items.Load()
}
