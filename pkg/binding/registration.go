package binding

import (
	"reflect"
)

// Registration binds a factory to the source and detail types it declared at
// discovery time. Registrations are built once during registry construction
// and are immutable afterwards.
type Registration struct {
	factory    TypedFactory
	sourceType reflect.Type
	detailType reflect.Type
}

// Factory returns the registered factory instance.
func (r Registration) Factory() TypedFactory {
	return r.factory
}

// SourceType returns the source type the factory declared.
func (r Registration) SourceType() reflect.Type {
	return r.sourceType
}

// DetailType returns the detail type the factory declared.
func (r Registration) DetailType() reflect.Type {
	return r.detailType
}

// newRegistration builds a registration for a discovered candidate. It
// reports false for candidates whose types cannot be resolved: values that do
// not satisfy TypedFactory, factories declaring nil type tokens, and
// factories declaring the empty interface as their source or detail type
// (such a factory says nothing about what it handles). A false result is a
// silent skip, never an error; one malformed candidate must not prevent the
// rest of the registry from initializing.
func newRegistration(candidate any) (Registration, bool) {
	tf, ok := candidate.(TypedFactory)
	if !ok {
		return Registration{}, false
	}

	st := tf.SourceType()
	dt := tf.DetailType()
	if st == nil || dt == nil {
		return Registration{}, false
	}
	if isAnyType(st) || isAnyType(dt) {
		return Registration{}, false
	}

	return Registration{
		factory:    tf,
		sourceType: st,
		detailType: dt,
	}, true
}

// isAnyType reports whether t is the empty interface.
func isAnyType(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t.NumMethod() == 0
}
