package binding_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svcbind/svcbind/pkg/binding"
)

// producerImpl implements the typed Producer contract.
type producerImpl struct{}

func (producerImpl) Produce(c *specificConfig) *connDetails {
	if c.endpoint == "" {
		return nil
	}
	return &connDetails{dsn: c.endpoint}
}

func TestOf_DeclaresTypes(t *testing.T) {
	t.Parallel()

	factory := binding.Of(func(serviceConfig) *connDetails { return nil })

	assert.Equal(t, reflect.TypeFor[serviceConfig](), factory.SourceType())
	assert.Equal(t, reflect.TypeFor[*connDetails](), factory.DetailType())
}

func TestOf_DeclinesForForeignSourceTypes(t *testing.T) {
	t.Parallel()

	factory := binding.Of(func(*specificConfig) *connDetails {
		return &connDetails{dsn: "ok"}
	})

	assert.Nil(t, factory.Produce(unrelatedConfig{}))
	assert.NotNil(t, factory.Produce(&specificConfig{}))
}

func TestOf_AcceptsSubtypesOfInterfaceSource(t *testing.T) {
	t.Parallel()

	factory := binding.Of(func(c serviceConfig) *connDetails {
		return &connDetails{dsn: c.ServiceName()}
	})

	details := factory.Produce(&specificConfig{name: "cache"})
	require.IsType(t, &connDetails{}, details)
	assert.Equal(t, "cache", details.(*connDetails).dsn)
}

func TestAdapt(t *testing.T) {
	t.Parallel()

	factory := binding.Adapt[*specificConfig, *connDetails](producerImpl{})

	assert.Equal(t, reflect.TypeFor[*specificConfig](), factory.SourceType())
	assert.Nil(t, factory.Produce(&specificConfig{}), "typed nil decline must normalize")
	assert.NotNil(t, factory.Produce(&specificConfig{endpoint: "localhost:9092"}))
}

func TestWithOrder(t *testing.T) {
	t.Parallel()

	base := binding.Of(func(*specificConfig) *connDetails {
		return &connDetails{dsn: "ordered"}
	})
	ordered := binding.WithOrder(base, -5)

	o, ok := ordered.(binding.Ordered)
	require.True(t, ok)
	assert.Equal(t, -5, o.Order())

	// Type declarations and production behavior pass through.
	assert.Equal(t, base.SourceType(), ordered.SourceType())
	assert.Equal(t, base.DetailType(), ordered.DetailType())
	assert.Equal(t, base.Produce(&specificConfig{}), ordered.Produce(&specificConfig{}))
}
