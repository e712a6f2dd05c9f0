// Package registry implements a small, concurrency-safe, ordered value
// registry. It exists for callback fan-out: callers add listeners and get
// back a removal function, dispatchers take an ordered snapshot and invoke
// it outside the registry's lock.
//
// The package is standalone and has no dependencies beyond the standard
// library, so it can be reused by any component that needs add/remove/
// snapshot semantics (event listeners, feed subscribers).
package registry

import "sync"

// Registry holds values in insertion order. The zero value is not usable;
// create one with New.
type Registry[T any] struct {
	mu      sync.Mutex
	nextID  uint64
	entries []entry[T]
}

type entry[T any] struct {
	id  uint64
	val T
}

// New creates an empty Registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Add appends v and returns a function that removes it. The removal
// function is idempotent and safe to call from any goroutine.
func (r *Registry[T]) Add(v T) (remove func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.entries = append(r.entries, entry[T]{id: id, val: v})

	return func() { r.remove(id) }
}

// remove deletes the entry with the given id, preserving the order of the
// remaining entries. Unknown ids are ignored (supports idempotent removal).
func (r *Registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Snapshot returns the current values in insertion order. The returned
// slice is a copy: mutations of the registry after Snapshot returns do not
// affect it, and a dispatch loop over it never holds the registry's lock.
// Values added during a dispatch are not part of that dispatch.
func (r *Registry[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, len(r.entries))
	for i := range r.entries {
		out[i] = r.entries[i].val
	}

	return out
}

// Len returns the number of registered values.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
