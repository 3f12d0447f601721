package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels for pipeline counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var renderBuckets = []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60}

// PipelineMetrics records render and email outcomes.
type PipelineMetrics struct {
	renderTotal    metric.Int64Counter
	renderDuration metric.Float64Histogram
	emailTotal     metric.Int64Counter
}

// NewPipelineMetrics registers the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	renderTotal, err := meter.Int64Counter("invoice.render.total",
		metric.WithDescription("Invoice render-and-publish attempts"),
		metric.WithUnit("{render}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice.render.total: %w", err)
	}
	renderDuration, err := meter.Float64Histogram("invoice.render.duration",
		metric.WithDescription("Time from request to published document"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(renderBuckets...))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice.render.duration: %w", err)
	}
	emailTotal, err := meter.Int64Counter("invoice.email.total",
		metric.WithDescription("Invoice email dispatch attempts"),
		metric.WithUnit("{email}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice.email.total: %w", err)
	}
	return &PipelineMetrics{
		renderTotal:    renderTotal,
		renderDuration: renderDuration,
		emailTotal:     emailTotal,
	}, nil
}

// RecordRender counts one render attempt. code is the error code on failure.
func (m *PipelineMetrics) RecordRender(ctx context.Context, elapsed time.Duration, code string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(outcomeAttrs(code)...)
	m.renderTotal.Add(ctx, 1, attrs)
	m.renderDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordEmail counts one send attempt.
func (m *PipelineMetrics) RecordEmail(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.emailTotal.Add(ctx, 1, metric.WithAttributes(outcomeAttrs(code)...))
}

func outcomeAttrs(code string) []attribute.KeyValue {
	if code == "" {
		return []attribute.KeyValue{attribute.String("outcome", OutcomeSuccess)}
	}
	return []attribute.KeyValue{
		attribute.String("outcome", OutcomeFailure),
		attribute.String("error.code", code),
	}
}
