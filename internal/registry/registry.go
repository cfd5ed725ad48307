// Package registry holds the compiled-in tables of Monitor and Action
// constructors, keyed by name, that a rigfile references by string.
package registry

import (
	"sort"
	"sync"

	"github.com/watchrig/rig/pkg/rigerr"
)

// Registry is a generic name -> factory table. Entries are instantiated
// fresh on every Get so each rig run gets its own Monitor/Action state,
// rather than sharing a stateless handler the way a job-queue registry
// would.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]func() T
	order   []string
}

func New[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]func() T)}
}

// Register adds a named factory. Re-registering the same name overwrites
// the prior factory but keeps its position in registration order.
func (r *Registry[T]) Register(name string, factory func() T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = factory
}

// Get constructs a fresh T for name, or a NotFound error if no such name
// is registered.
func (r *Registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.entries[name]
	if !ok {
		var zero T
		return zero, rigerr.New(rigerr.NotFound, "registry.Get", errUnknownName(name))
	}
	return factory(), nil
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns every registered name in registration order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SortedNames returns every registered name, alphabetically.
func (r *Registry[T]) SortedNames() []string {
	names := r.Names()
	sort.Strings(names)
	return names
}

type errUnknownName string

func (e errUnknownName) Error() string { return "unknown name: " + string(e) }
