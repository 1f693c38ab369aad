package gpu

import (
	"sort"
	"sync"
)

type registryEntry[T any] struct {
	kind ResourceKind
	obj  T
}

// Registry owns backend resource objects behind opaque handles.
// Handles are never reused within the lifetime of a registry.
type Registry[T any] struct {
	mu    *sync.Mutex
	next  Handle
	items map[Handle]registryEntry[T]
}

// NewRegistry creates an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		mu:    &sync.Mutex{},
		items: make(map[Handle]registryEntry[T]),
	}
}

// Add stores obj and returns its new handle.
func (r *Registry[T]) Add(kind ResourceKind, obj T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.items[r.next] = registryEntry[T]{kind: kind, obj: obj}
	return r.next
}

// Get returns the object behind h.
func (r *Registry[T]) Get(h Handle) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[h]
	return e.obj, ok
}

// Lookup returns the object behind h only when it has the requested kind.
func (r *Registry[T]) Lookup(h Handle, kind ResourceKind) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[h]
	if !ok || e.kind != kind {
		var zero T
		return zero, false
	}
	return e.obj, true
}

// Kind returns the resource kind of h.
func (r *Registry[T]) Kind(h Handle) (ResourceKind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[h]
	return e.kind, ok
}

// Remove deletes h and returns the object it referred to.
func (r *Registry[T]) Remove(h Handle) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[h]
	if ok {
		delete(r.items, h)
	}
	return e.obj, ok
}

// Len returns the number of live resources.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Drain removes every resource in creation order, passing each to fn.
func (r *Registry[T]) Drain(fn func(h Handle, kind ResourceKind, obj T)) {
	r.mu.Lock()
	handles := make([]Handle, 0, len(r.items))
	for h := range r.items {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	entries := make([]registryEntry[T], len(handles))
	for i, h := range handles {
		entries[i] = r.items[h]
		delete(r.items, h)
	}
	r.mu.Unlock()

	for i, h := range handles {
		fn(h, entries[i].kind, entries[i].obj)
	}
}
