package binding_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svcbind/svcbind/pkg/binding"
)

// serviceConfig is the interface-typed source used to exercise supertype
// matching.
type serviceConfig interface {
	ServiceName() string
}

type specificConfig struct {
	name     string
	endpoint string
}

func (c *specificConfig) ServiceName() string { return c.name }

type unrelatedConfig struct{}

type connDetails struct {
	dsn string
}

// rawFactory implements Factory but not TypedFactory, so its types cannot be
// resolved at registration time.
type rawFactory struct{}

func (rawFactory) Produce(_ any) any { return nil }

func TestRegistry_Resolve_NoFactoryFound(t *testing.T) {
	t.Parallel()

	registry, err := binding.New(binding.WithFactories(
		binding.Of(func(*specificConfig) *connDetails {
			return &connDetails{dsn: "specific"}
		}),
	))
	require.NoError(t, err)

	resolved, err := registry.Resolve(unrelatedConfig{})
	require.Error(t, err)
	assert.Nil(t, resolved)

	var notFound *binding.NoFactoryFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, reflect.TypeOf(unrelatedConfig{}), notFound.SourceType)
	assert.Contains(t, err.Error(), "unrelatedConfig")
}

func TestRegistry_Resolve_SingleMatchReturnsRegisteredInstance(t *testing.T) {
	t.Parallel()

	factory := binding.Of(func(c *specificConfig) *connDetails {
		return &connDetails{dsn: c.endpoint}
	})

	registry, err := binding.New(binding.WithFactories(factory))
	require.NoError(t, err)

	resolved, err := registry.Resolve(&specificConfig{name: "db", endpoint: "localhost:5432"})
	require.NoError(t, err)

	// The registered factory itself, not a wrapper.
	assert.Same(t, factory, resolved)
}

func TestRegistry_Resolve_MultipleMatchesReturnComposite(t *testing.T) {
	t.Parallel()

	low := binding.WithOrder(binding.Of(func(serviceConfig) *connDetails {
		return nil
	}), 10)
	high := binding.WithOrder(binding.Of(func(*specificConfig) *connDetails {
		return &connDetails{dsn: "specific"}
	}), -10)
	middle := binding.Of(func(serviceConfig) *connDetails {
		return &connDetails{dsn: "generic"}
	})

	// Registered in an order that differs from priority order.
	registry, err := binding.New(binding.WithFactories(low, middle, high))
	require.NoError(t, err)

	resolved, err := registry.Resolve(&specificConfig{name: "db"})
	require.NoError(t, err)

	composite, ok := resolved.(*binding.Composite)
	require.True(t, ok, "expected a composite for multiple matches")

	candidates := composite.Candidates()
	require.Len(t, candidates, 3)
	assert.Same(t, high, candidates[0])
	assert.Same(t, middle, candidates[1])
	assert.Same(t, low, candidates[2])
}

func TestRegistry_Resolve_EqualPriorityKeepsDiscoveryOrder(t *testing.T) {
	t.Parallel()

	first := binding.Of(func(serviceConfig) *connDetails { return nil })
	second := binding.Of(func(serviceConfig) *connDetails { return nil })
	third := binding.Of(func(serviceConfig) *connDetails { return nil })

	registry, err := binding.New(binding.WithFactories(first, second, third))
	require.NoError(t, err)

	resolved, err := registry.Resolve(&specificConfig{})
	require.NoError(t, err)

	composite, ok := resolved.(*binding.Composite)
	require.True(t, ok)

	candidates := composite.Candidates()
	require.Len(t, candidates, 3)
	assert.Same(t, first, candidates[0])
	assert.Same(t, second, candidates[1])
	assert.Same(t, third, candidates[2])
}

func TestRegistry_Resolve_IdempotentAcrossEqualSources(t *testing.T) {
	t.Parallel()

	generic := binding.Of(func(serviceConfig) *connDetails { return nil })
	specific := binding.Of(func(*specificConfig) *connDetails { return nil })

	registry, err := binding.New(binding.WithFactories(generic, specific))
	require.NoError(t, err)

	// Equal but not identical source values; resolution depends only on type.
	resolveCandidates := func(source any) []binding.Factory {
		resolved, err := registry.Resolve(source)
		require.NoError(t, err)
		composite, ok := resolved.(*binding.Composite)
		require.True(t, ok)
		return composite.Candidates()
	}

	a := resolveCandidates(&specificConfig{name: "db"})
	b := resolveCandidates(&specificConfig{name: "db"})

	require.Len(t, b, len(a))
	for i := range a {
		assert.Same(t, a[i], b[i])
	}
}

func TestRegistry_Resolve_CustomComparator(t *testing.T) {
	t.Parallel()

	first := binding.WithOrder(binding.Of(func(serviceConfig) *connDetails { return nil }), 1)
	second := binding.WithOrder(binding.Of(func(serviceConfig) *connDetails { return nil }), 2)

	// Invert the default ordering.
	registry, err := binding.New(
		binding.WithFactories(first, second),
		binding.WithComparator(func(a, b binding.Factory) int {
			aOrdered, _ := a.(binding.Ordered)
			bOrdered, _ := b.(binding.Ordered)
			return bOrdered.Order() - aOrdered.Order()
		}),
	)
	require.NoError(t, err)

	resolved, err := registry.Resolve(&specificConfig{})
	require.NoError(t, err)

	composite, ok := resolved.(*binding.Composite)
	require.True(t, ok)
	assert.Same(t, second, composite.Candidates()[0])
	assert.Same(t, first, composite.Candidates()[1])
}

func TestRegistry_Resolve_NilSource(t *testing.T) {
	t.Parallel()

	registry, err := binding.New(binding.WithFactories(
		binding.Of(func(*specificConfig) *connDetails { return nil }),
	))
	require.NoError(t, err)

	resolved, err := registry.Resolve(nil)
	require.Error(t, err)
	assert.Nil(t, resolved)

	var notFound *binding.NoFactoryFoundError
	assert.False(t, errors.As(err, &notFound), "nil source is invalid input, not a missing factory")
}

func TestRegistry_SkipsUnresolvableCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate any
	}{
		{
			name:      "value that is not a factory at all",
			candidate: struct{}{},
		},
		{
			name:      "factory without type declarations",
			candidate: rawFactory{},
		},
		{
			name:      "factory declaring the empty interface as source",
			candidate: binding.Of(func(any) *connDetails { return nil }),
		},
		{
			name:      "factory declaring the empty interface as detail",
			candidate: binding.Of(func(*specificConfig) any { return nil }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kept := binding.Of(func(*specificConfig) *connDetails {
				return &connDetails{dsn: "kept"}
			})

			registry, err := binding.New(binding.WithFactories(tt.candidate, kept))
			require.NoError(t, err, "a malformed candidate must not fail construction")

			registrations := registry.Registrations()
			require.Len(t, registrations, 1)
			assert.Same(t, kept, registrations[0].Factory())
		})
	}
}

func TestRegistry_Registrations_ReportTypes(t *testing.T) {
	t.Parallel()

	registry, err := binding.New(binding.WithFactories(
		binding.Of(func(serviceConfig) *connDetails { return nil }),
	))
	require.NoError(t, err)

	registrations := registry.Registrations()
	require.Len(t, registrations, 1)
	assert.Equal(t, reflect.TypeFor[serviceConfig](), registrations[0].SourceType())
	assert.Equal(t, reflect.TypeFor[*connDetails](), registrations[0].DetailType())
}

func TestRegistry_Details(t *testing.T) {
	t.Parallel()

	t.Run("returns the produced detail", func(t *testing.T) {
		t.Parallel()

		registry, err := binding.New(binding.WithFactories(
			binding.Of(func(c *specificConfig) *connDetails {
				return &connDetails{dsn: c.endpoint}
			}),
		))
		require.NoError(t, err)

		details, err := registry.Details(&specificConfig{endpoint: "localhost:6379"})
		require.NoError(t, err)
		require.IsType(t, &connDetails{}, details)
		assert.Equal(t, "localhost:6379", details.(*connDetails).dsn)
	})

	t.Run("nil when every factory declines", func(t *testing.T) {
		t.Parallel()

		registry, err := binding.New(binding.WithFactories(
			binding.Of(func(*specificConfig) *connDetails { return nil }),
			binding.Of(func(serviceConfig) *connDetails { return nil }),
		))
		require.NoError(t, err)

		details, err := registry.Details(&specificConfig{})
		require.NoError(t, err)
		assert.Nil(t, details)
	})

	t.Run("typed nil results are declines", func(t *testing.T) {
		t.Parallel()

		registry, err := binding.New(binding.WithFactories(
			binding.Of(func(*specificConfig) *connDetails {
				var missing *connDetails
				return missing
			}),
		))
		require.NoError(t, err)

		details, err := registry.Details(&specificConfig{})
		require.NoError(t, err)
		assert.Nil(t, details)
	})

	t.Run("propagates no-factory errors", func(t *testing.T) {
		t.Parallel()

		registry, err := binding.New(binding.WithFactories(
			binding.Of(func(*specificConfig) *connDetails { return nil }),
		))
		require.NoError(t, err)

		_, err = registry.Details(unrelatedConfig{})
		var notFound *binding.NoFactoryFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

// TestRegistry_BaseAndSpecificFallback covers the canonical fallback
// scenario: a base-typed factory that declines for incomplete values and a
// specific factory that always succeeds.
func TestRegistry_BaseAndSpecificFallback(t *testing.T) {
	t.Parallel()

	baseFactory := func(order int) binding.TypedFactory {
		return binding.WithOrder(binding.Of(func(c serviceConfig) *connDetails {
			sc, ok := c.(*specificConfig)
			if !ok || sc.endpoint == "" {
				return nil
			}
			return &connDetails{dsn: "base:" + sc.endpoint}
		}), order)
	}
	specificFactory := func(order int) binding.TypedFactory {
		return binding.WithOrder(binding.Of(func(*specificConfig) *connDetails {
			return &connDetails{dsn: "specific"}
		}), order)
	}

	t.Run("specific has higher priority", func(t *testing.T) {
		t.Parallel()

		registry, err := binding.New(binding.WithFactories(baseFactory(10), specificFactory(1)))
		require.NoError(t, err)

		details, err := registry.Details(&specificConfig{name: "db"})
		require.NoError(t, err)
		assert.Equal(t, "specific", details.(*connDetails).dsn)
	})

	t.Run("base has higher priority but declines", func(t *testing.T) {
		t.Parallel()

		registry, err := binding.New(binding.WithFactories(baseFactory(1), specificFactory(10)))
		require.NoError(t, err)

		// Missing endpoint: the base factory declines, the specific one is
		// tried next.
		details, err := registry.Details(&specificConfig{name: "db"})
		require.NoError(t, err)
		assert.Equal(t, "specific", details.(*connDetails).dsn)
	})
}

func TestRegister_FeedsDefaultDiscoverer(t *testing.T) {
	// Not parallel: exercises package-level registration state.
	factory := binding.Of(func(*specificConfig) *connDetails {
		return &connDetails{dsn: "registered"}
	})
	binding.Register(factory)

	registry, err := binding.New()
	require.NoError(t, err)

	resolved, err := registry.Resolve(&specificConfig{})
	require.NoError(t, err)

	// Other tests may have registered factories too; the one registered here
	// must be among the candidates.
	switch f := resolved.(type) {
	case *binding.Composite:
		assert.Contains(t, f.Candidates(), binding.Factory(factory))
	default:
		assert.Same(t, factory, resolved)
	}
}
