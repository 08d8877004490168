// Package binding implements resolution of typed connection details from
// runtime source objects. Factories declare which source type they accept and
// which detail type they produce; a registry selects the applicable factories
// for a given source and falls back through them in priority order.
package binding

import (
	"reflect"
)

// Factory attempts to produce a detail value from a source object.
// A nil result means the factory declines for this particular source value;
// declining is not an error.
type Factory interface {
	Produce(source any) any
}

// TypedFactory is a Factory that declares the source type it accepts and the
// detail type it yields. Only typed factories can be registered; the registry
// uses the declared source type for assignability matching.
type TypedFactory interface {
	Factory

	// SourceType is the type of source object this factory accepts. It may be
	// an interface type, in which case the factory serves every source
	// implementing it.
	SourceType() reflect.Type

	// DetailType is the type of detail value this factory produces on success.
	DetailType() reflect.Type
}

// Producer is the typed contract detail factories implement before adaptation.
type Producer[S any, D any] interface {
	Produce(source S) D
}

// Ordered is implemented by factories that declare an explicit resolution
// priority. Lower values sort first. Factories without an explicit order are
// treated as DefaultOrder.
type Ordered interface {
	Order() int
}

// DefaultOrder is the priority assumed for factories that do not implement
// Ordered.
const DefaultOrder = 0

// funcFactory adapts a typed production function to the erased Factory
// contract, carrying its source and detail types as reflection tokens.
type funcFactory[S any, D any] struct {
	fn func(S) D
}

var _ TypedFactory = (*funcFactory[string, any])(nil)

// Of adapts a typed production function into a registrable factory. The
// returned factory declines (returns nil) for sources that are not of type S,
// and normalizes typed nil results to untyped nil so that composites treat
// them as declines.
func Of[S any, D any](fn func(S) D) TypedFactory {
	return &funcFactory[S, D]{fn: fn}
}

// Adapt wraps a typed Producer implementation into a registrable factory.
func Adapt[S any, D any](p Producer[S, D]) TypedFactory {
	return Of(p.Produce)
}

// Produce implements Factory.
func (f *funcFactory[S, D]) Produce(source any) any {
	s, ok := source.(S)
	if !ok {
		return nil
	}
	return normalize(f.fn(s))
}

// SourceType implements TypedFactory.
func (f *funcFactory[S, D]) SourceType() reflect.Type {
	return reflect.TypeFor[S]()
}

// DetailType implements TypedFactory.
func (f *funcFactory[S, D]) DetailType() reflect.Type {
	return reflect.TypeFor[D]()
}

// orderedFactory attaches an explicit priority to a typed factory.
type orderedFactory struct {
	TypedFactory
	order int
}

var _ Ordered = (*orderedFactory)(nil)

// WithOrder returns a copy of the factory carrying an explicit priority.
// Lower values are tried first when multiple factories match a source.
func WithOrder(f TypedFactory, order int) TypedFactory {
	return &orderedFactory{TypedFactory: f, order: order}
}

// Order implements Ordered.
func (f *orderedFactory) Order() int {
	return f.order
}

// orderOf reports the effective priority of a factory.
func orderOf(f Factory) int {
	if o, ok := f.(Ordered); ok {
		return o.Order()
	}
	return DefaultOrder
}

// normalize converts typed nil values (nil pointers, maps, slices and the
// like boxed in a non-nil interface) to untyped nil so that a nil check on
// the erased result is sufficient to detect a decline.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	default:
	}
	return v
}
