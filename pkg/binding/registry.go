package binding

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
)

// Registry is the central lookup point mapping a runtime source object to the
// factory (or factories) declared to handle its type. It is built once, is
// read-only afterwards, and is safe for unsynchronized concurrent reads as
// long as construction completes before the first resolution call. Resolution
// results are not cached; every call re-scans the registration list.
type Registry struct {
	registrations []Registration
	compare       func(a, b Factory) int
	logger        *slog.Logger
}

// Option configures registry construction.
type Option func(*registryConfig) error

// registryConfig collects construction inputs before the registration list
// is built.
type registryConfig struct {
	discoverers []Discoverer
	compare     func(a, b Factory) int
	logger      *slog.Logger
}

// WithFactories adds explicit factory candidates, in argument order. It may
// be combined with discoverers; explicit candidates are considered in the
// order the options were applied.
func WithFactories(factories ...any) Option {
	return func(cfg *registryConfig) error {
		snapshot := make([]any, len(factories))
		copy(snapshot, factories)
		cfg.discoverers = append(cfg.discoverers, DiscovererFunc(func() []any {
			return snapshot
		}))
		return nil
	}
}

// WithDiscoverer adds a discovery source for factory candidates.
func WithDiscoverer(d Discoverer) Option {
	return func(cfg *registryConfig) error {
		if d == nil {
			return fmt.Errorf("discoverer cannot be nil")
		}
		cfg.discoverers = append(cfg.discoverers, d)
		return nil
	}
}

// WithComparator overrides the priority comparator used to order competing
// factories. The comparator must return a negative value when a sorts before
// b; the sort is stable, so candidates the comparator treats as equal keep
// discovery order.
func WithComparator(compare func(a, b Factory) int) Option {
	return func(cfg *registryConfig) error {
		if compare == nil {
			return fmt.Errorf("comparator cannot be nil")
		}
		cfg.compare = compare
		return nil
	}
}

// WithLogger sets the logger used to report skipped candidates during
// construction.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *registryConfig) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// New builds a registry from the discovered factory candidates. Candidates
// whose source or detail types cannot be resolved are skipped and do not
// prevent the rest of the registry from initializing. When no discovery
// option is given, the package-level default set is used.
func New(opts ...Option) (*Registry, error) {
	cfg := &registryConfig{
		compare: defaultCompare,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.discoverers) == 0 {
		cfg.discoverers = []Discoverer{DefaultDiscoverer()}
	}

	registry := &Registry{
		compare: cfg.compare,
		logger:  cfg.logger,
	}
	for _, d := range cfg.discoverers {
		for _, candidate := range d.Factories() {
			reg, ok := newRegistration(candidate)
			if !ok {
				registry.logger.Debug("skipping factory with unresolvable types",
					"factory", fmt.Sprintf("%T", candidate))
				continue
			}
			registry.registrations = append(registry.registrations, reg)
		}
	}

	return registry, nil
}

// Registrations returns a copy of the retained registrations in discovery
// order.
func (r *Registry) Registrations() []Registration {
	out := make([]Registration, len(r.registrations))
	copy(out, r.registrations)
	return out
}

// Resolve returns the factory declared to handle the source's runtime type.
// A registration matches when its declared source type is identical to, or a
// supertype (interface) of, the source's actual type. With exactly one match
// the registered factory itself is returned; with several, a Composite
// wrapping them in stable priority order. With none, a *NoFactoryFoundError.
//
// The returned factory never fails for the no-match case when invoked with
// the same source; it either produces a detail value or returns nil to
// indicate that no applicable detail exists for this particular source value.
func (r *Registry) Resolve(source any) (Factory, error) {
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}

	sourceType := reflect.TypeOf(source)
	var matches []Registration
	for _, reg := range r.registrations {
		if sourceType.AssignableTo(reg.sourceType) {
			matches = append(matches, reg)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NoFactoryFoundError{SourceType: sourceType}
	case 1:
		return matches[0].factory, nil
	default:
		sort.SliceStable(matches, func(i, j int) bool {
			return r.compare(matches[i].factory, matches[j].factory) < 0
		})
		candidates := make([]Factory, len(matches))
		for i, m := range matches {
			candidates[i] = m.factory
		}
		return NewComposite(candidates...), nil
	}
}

// Details resolves the factory for the source and invokes it. A nil, nil
// return means every applicable factory declined for this source value;
// whether that is acceptable is the caller's decision.
func (r *Registry) Details(source any) (any, error) {
	factory, err := r.Resolve(source)
	if err != nil {
		return nil, err
	}
	return normalize(factory.Produce(source)), nil
}

// defaultCompare orders factories by their declared Order value, treating
// factories without one as DefaultOrder.
func defaultCompare(a, b Factory) int {
	return orderOf(a) - orderOf(b)
}
