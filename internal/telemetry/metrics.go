// Package telemetry provides OpenTelemetry instrumentation for connection
// detail resolution.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ResolutionMetricsMeterName is the name used for the resolution metrics meter
const ResolutionMetricsMeterName = "github.com/svcbind/svcbind/pkg/binding"

// ResolutionMetrics holds the OpenTelemetry instruments for resolution metrics
type ResolutionMetrics struct {
	resolutions metric.Int64Counter
	misses      metric.Int64Counter
	declines    metric.Int64Counter
}

// NewResolutionMetrics creates a new ResolutionMetrics instance with the given
// meter provider. If provider is nil, it returns nil (no-op metrics).
func NewResolutionMetrics(provider metric.MeterProvider) (*ResolutionMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ResolutionMetricsMeterName)

	resolutions, err := meter.Int64Counter(
		"svcbind_resolutions_total",
		metric.WithDescription("Number of successful factory resolutions"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"svcbind_resolution_misses_total",
		metric.WithDescription("Number of resolutions that found no factory"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, err
	}

	declines, err := meter.Int64Counter(
		"svcbind_resolution_declines_total",
		metric.WithDescription("Number of resolutions where every matched factory declined"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, err
	}

	return &ResolutionMetrics{
		resolutions: resolutions,
		misses:      misses,
		declines:    declines,
	}, nil
}

// RecordResolution records a resolution that produced a detail value.
func (m *ResolutionMetrics) RecordResolution(ctx context.Context, sourceType, kind string) {
	if m == nil || m.resolutions == nil {
		return
	}

	m.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source_type", sourceType),
		attribute.String("kind", kind),
	))
}

// RecordMiss records a resolution that found no factory for a source type.
func (m *ResolutionMetrics) RecordMiss(ctx context.Context, sourceType string) {
	if m == nil || m.misses == nil {
		return
	}

	m.misses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source_type", sourceType),
	))
}

// RecordDecline records a resolution where every matched factory declined.
func (m *ResolutionMetrics) RecordDecline(ctx context.Context, sourceType string) {
	if m == nil || m.declines == nil {
		return
	}

	m.declines.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source_type", sourceType),
	))
}
