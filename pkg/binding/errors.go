package binding

import (
	"fmt"
	"reflect"
)

// NoFactoryFoundError is returned by Resolve when no registration declares a
// source type assignable from the queried source's runtime type. It indicates
// a missing integration, not a transient condition; callers must not retry or
// silently default.
type NoFactoryFoundError struct {
	// SourceType is the runtime type of the source that no factory handles.
	SourceType reflect.Type
}

// Error implements the error interface.
func (e *NoFactoryFoundError) Error() string {
	return fmt.Sprintf("no factory registered for source type %s", e.SourceType)
}
