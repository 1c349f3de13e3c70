// Package telemetry records OpenTelemetry metrics for simulation runs.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	steps   metric.Int64Counter
	blocked metric.Int64Counter
	food    metric.Int64Counter
	plans   metric.Int64Counter
	runs    metric.Int64Counter
	errors  metric.Int64Counter

	// Histograms
	runDuration metric.Float64Histogram
	runScore    metric.Int64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeRuns metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/maze-agent").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Provider supplies the meter; the global provider when nil.
	Provider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/maze-agent",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}

	provider := config.Provider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	mp := &MetricsProvider{
		meter: provider.Meter(
			config.MeterName,
			metric.WithInstrumentationVersion(config.MeterVersion),
		),
	}
	mp.initErr = mp.initInstruments()
	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&mp.steps, "maze.agent.steps", "Step attempts by move source", "{step}"},
		{&mp.blocked, "maze.agent.blocked", "Moves refused by a wall", "{move}"},
		{&mp.food, "maze.food.collected", "Food items eaten", "{item}"},
		{&mp.plans, "maze.plans.installed", "Plans installed by target tier", "{plan}"},
		{&mp.runs, "maze.runs", "Finished runs by status", "{run}"},
		{&mp.errors, "maze.errors", "Errors by operation", "{error}"},
	}
	for _, c := range counters {
		*c.dst, err = mp.meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return err
		}
	}

	mp.runDuration, err = mp.meter.Float64Histogram(
		"maze.run.duration",
		metric.WithDescription("Duration of simulation runs"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.runScore, err = mp.meter.Int64Histogram(
		"maze.run.score",
		metric.WithDescription("Final score of simulation runs"),
		metric.WithUnit("{point}"),
	)
	if err != nil {
		return err
	}

	mp.activeRuns, err = mp.meter.Int64UpDownCounter(
		"maze.runs.active",
		metric.WithDescription("Number of runs in progress"),
		metric.WithUnit("{run}"),
	)
	return err
}

// Error returns any error that occurred during initialization.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordStep records one step attempt.
func (mp *MetricsProvider) RecordStep(ctx context.Context, source string, moved bool) {
	attrs := metric.WithAttributes(
		attribute.String("step.source", source),
		attribute.Bool("step.moved", moved),
	)
	mp.steps.Add(ctx, 1, attrs)
	if !moved && source != "idle" {
		mp.blocked.Add(ctx, 1, metric.WithAttributes(attribute.String("step.source", source)))
	}
}

// RecordFoodCollected records an eaten food item.
func (mp *MetricsProvider) RecordFoodCollected(ctx context.Context, mapName string) {
	mp.food.Add(ctx, 1, metric.WithAttributes(attribute.String("map.name", mapName)))
}

// RecordPlan records an installed plan.
func (mp *MetricsProvider) RecordPlan(ctx context.Context, target string, length int) {
	mp.plans.Add(ctx, 1, metric.WithAttributes(
		attribute.String("plan.target", target),
		attribute.Int("plan.length", length),
	))
}

// RecordError records a failed operation.
func (mp *MetricsProvider) RecordError(ctx context.Context, operation string) {
	mp.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordRun records a finished run.
func (mp *MetricsProvider) RecordRun(ctx context.Context, status string, score int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("run.status", status))
	mp.runs.Add(ctx, 1, attrs)
	mp.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	mp.runScore.Record(ctx, int64(score), attrs)
}

// IncrementActiveRuns increments the active runs counter.
func (mp *MetricsProvider) IncrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, 1)
}

// DecrementActiveRuns decrements the active runs counter.
func (mp *MetricsProvider) DecrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordStep is a no-op.
func (n *NoopMetricsProvider) RecordStep(ctx context.Context, source string, moved bool) {}

// RecordFoodCollected is a no-op.
func (n *NoopMetricsProvider) RecordFoodCollected(ctx context.Context, mapName string) {}

// RecordPlan is a no-op.
func (n *NoopMetricsProvider) RecordPlan(ctx context.Context, target string, length int) {}

// RecordError is a no-op.
func (n *NoopMetricsProvider) RecordError(ctx context.Context, operation string) {}

// RecordRun is a no-op.
func (n *NoopMetricsProvider) RecordRun(ctx context.Context, status string, score int, duration time.Duration) {}

// IncrementActiveRuns is a no-op.
func (n *NoopMetricsProvider) IncrementActiveRuns(ctx context.Context) {}

// DecrementActiveRuns is a no-op.
func (n *NoopMetricsProvider) DecrementActiveRuns(ctx context.Context) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordStep(ctx context.Context, source string, moved bool)
	RecordFoodCollected(ctx context.Context, mapName string)
	RecordPlan(ctx context.Context, target string, length int)
	RecordError(ctx context.Context, operation string)
	RecordRun(ctx context.Context, status string, score int, duration time.Duration)
	IncrementActiveRuns(ctx context.Context)
	DecrementActiveRuns(ctx context.Context)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
