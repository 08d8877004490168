package binding

import (
	"sync"
)

// Discoverer supplies the set of factory candidates visible to a registry.
// Implementations return candidates in a deterministic order; the registry
// preserves that order for registrations of equal priority. A discoverer
// that finds nothing returns an empty slice, never an error.
type Discoverer interface {
	Factories() []any
}

// DiscovererFunc adapts a function to the Discoverer interface.
type DiscovererFunc func() []any

// Factories implements Discoverer.
func (f DiscovererFunc) Factories() []any {
	return f()
}

// defaultSet holds factories registered through the package-level Register
// call, in registration order.
var defaultSet struct {
	mu        sync.Mutex
	factories []any
}

// Register adds a factory to the default discovery set. It is intended to be
// called from package init functions or early in main, before any registry is
// constructed; registries built afterwards do not observe later additions.
func Register(factory any) {
	defaultSet.mu.Lock()
	defer defaultSet.mu.Unlock()
	defaultSet.factories = append(defaultSet.factories, factory)
}

// DefaultDiscoverer returns a discoverer backed by the package-level
// registration set. Each call to Factories snapshots the current set.
func DefaultDiscoverer() Discoverer {
	return DiscovererFunc(func() []any {
		defaultSet.mu.Lock()
		defer defaultSet.mu.Unlock()
		snapshot := make([]any, len(defaultSet.factories))
		copy(snapshot, defaultSet.factories)
		return snapshot
	})
}
