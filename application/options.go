package application

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/maze-agent/domain/event"
	"github.com/felixgeelhaar/maze-agent/domain/maze"
	"github.com/felixgeelhaar/maze-agent/infrastructure/telemetry"
)

// Option configures the engine.
type Option func(*EngineConfig)

// WithMaxSteps sets the step attempt budget.
func WithMaxSteps(n int) Option {
	return func(c *EngineConfig) {
		c.MaxSteps = n
	}
}

// WithHeading sets the agent's initial heading.
func WithHeading(h maze.Heading) Option {
	return func(c *EngineConfig) {
		c.Heading = h
	}
}

// WithTargetFood sets the food quota. Without it the quota is every food
// item on the map.
func WithTargetFood(n int) Option {
	return func(c *EngineConfig) {
		c.TargetFood = &n
	}
}

// WithStore sets the event store runs are recorded to.
func WithStore(s event.Store) Option {
	return func(c *EngineConfig) {
		c.Store = s
	}
}

// WithEventBatch buffers n events per store write. The buffer is flushed
// when a run finishes.
func WithEventBatch(n int) Option {
	return func(c *EngineConfig) {
		c.EventBatch = n
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *EngineConfig) {
		c.Metrics = m
	}
}

// WithTracer sets the tracer for run and step spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *EngineConfig) {
		c.Tracer = t
	}
}

// WithFrameObserver registers a callback invoked once before the first
// step and after every step.
func WithFrameObserver(fn FrameObserver) Option {
	return func(c *EngineConfig) {
		c.Observer = fn
	}
}

// WithFrameDelay sets the pause after every step.
func WithFrameDelay(d time.Duration) Option {
	return func(c *EngineConfig) {
		c.FrameDelay = d
	}
}

// NewEngineWithOptions creates an engine with functional options.
func NewEngineWithOptions(opts ...Option) (*Engine, error) {
	config := EngineConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	return NewEngine(config)
}
