package telemetry

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/svcbind/svcbind/pkg/binding"
	"github.com/svcbind/svcbind/pkg/details"
)

// Resolver wraps a binding registry with resolution metrics. With nil
// metrics it degrades to plain delegation.
type Resolver struct {
	registry *binding.Registry
	metrics  *ResolutionMetrics
}

// NewResolver creates an instrumented resolver over the given registry.
func NewResolver(registry *binding.Registry, metrics *ResolutionMetrics) (*Resolver, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	return &Resolver{registry: registry, metrics: metrics}, nil
}

// Details resolves and invokes the factory for the source, recording the
// outcome.
func (r *Resolver) Details(ctx context.Context, source any) (any, error) {
	produced, err := r.registry.Details(source)
	if err != nil {
		var notFound *binding.NoFactoryFoundError
		if errors.As(err, &notFound) {
			r.metrics.RecordMiss(ctx, notFound.SourceType.String())
		}
		return nil, err
	}

	sourceType := reflect.TypeOf(source).String()
	if produced == nil {
		r.metrics.RecordDecline(ctx, sourceType)
		return nil, nil
	}

	r.metrics.RecordResolution(ctx, sourceType, kindOf(produced))
	return produced, nil
}

// kindOf names the produced detail for metric attributes.
func kindOf(produced any) string {
	if cd, ok := produced.(details.ConnectionDetails); ok {
		return cd.Kind()
	}
	return fmt.Sprintf("%T", produced)
}
