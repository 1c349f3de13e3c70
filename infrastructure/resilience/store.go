// Package resilience wraps event recording in fortify retry, circuit
// breaker and bulkhead patterns.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/maze-agent/domain/event"
)

// Config configures the resilient store.
type Config struct {
	// MaxConcurrent limits concurrent store calls.
	MaxConcurrent int

	// RetryEnabled retries failed appends.
	RetryEnabled bool

	// RetryMaxAttempts is the maximum number of attempts.
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// BreakerEnabled guards calls with a circuit breaker.
	BreakerEnabled bool

	// BreakerThreshold is the number of consecutive failures before opening.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// CallTimeout bounds each store call; zero disables it.
	CallTimeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:          4,
		RetryEnabled:           true,
		RetryMaxAttempts:       3,
		RetryInitialDelay:      50 * time.Millisecond,
		RetryBackoffMultiplier: 2.0,
		BreakerEnabled:         true,
		BreakerThreshold:       5,
		BreakerTimeout:         30 * time.Second,
		CallTimeout:            5 * time.Second,
	}
}

// Option configures the store.
type Option func(*Config)

// WithRetry sets retry attempts and initial delay; n <= 1 disables retry.
func WithRetry(n int, delay time.Duration) Option {
	return func(c *Config) {
		c.RetryEnabled = n > 1
		c.RetryMaxAttempts = n
		c.RetryInitialDelay = delay
	}
}

// WithCircuitBreaker sets the breaker threshold and open duration;
// threshold <= 0 disables the breaker.
func WithCircuitBreaker(threshold int, timeout time.Duration) Option {
	return func(c *Config) {
		c.BreakerEnabled = threshold > 0
		c.BreakerThreshold = threshold
		c.BreakerTimeout = timeout
	}
}

// WithCallTimeout bounds each store call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CallTimeout = d
	}
}

// Store decorates an event.Store. Appends run
// Bulkhead → Timeout → Circuit Breaker → Retry; loads skip the retry.
type Store struct {
	inner    event.Store
	config   Config
	bulkhead bulkhead.Bulkhead[[]event.Event]
	breaker  circuitbreaker.CircuitBreaker[[]event.Event]
	retry    retry.Retry[[]event.Event]
}

// NewStore wraps inner with the configured patterns.
func NewStore(inner event.Store, config Config, opts ...Option) *Store {
	for _, opt := range opts {
		opt(&config)
	}

	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	threshold := config.BreakerThreshold
	if threshold <= 0 {
		threshold = 1
	}

	s := &Store{
		inner:  inner,
		config: config,
		bulkhead: bulkhead.New[[]event.Event](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
	}
	if config.BreakerEnabled {
		s.breaker = circuitbreaker.New[[]event.Event](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.BreakerTimeout,
			Timeout:     config.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- threshold is positive
			},
		})
	}
	if config.RetryEnabled && config.RetryMaxAttempts > 1 {
		s.retry = retry.New[[]event.Event](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.RetryBackoffMultiplier,
		})
	}
	return s
}

type call func(ctx context.Context) ([]event.Event, error)

// execute applies the patterns around fn.
func (s *Store) execute(ctx context.Context, fn call, retryable bool) ([]event.Event, error) {
	return s.bulkhead.Execute(ctx, func(ctx context.Context) ([]event.Event, error) {
		if s.config.CallTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.config.CallTimeout)
			defer cancel()
		}

		guarded := fn
		if retryable && s.retry != nil {
			guarded = func(ctx context.Context) ([]event.Event, error) {
				return s.retry.Do(ctx, fn)
			}
		}
		if s.breaker != nil {
			return s.breaker.Execute(ctx, guarded)
		}
		return guarded(ctx)
	})
}

// Append validates events, then appends them with retries.
func (s *Store) Append(ctx context.Context, events ...event.Event) error {
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}
	_, err := s.execute(ctx, func(ctx context.Context) ([]event.Event, error) {
		return nil, s.inner.Append(ctx, events...)
	}, true)
	return err
}

// LoadEvents retrieves all events for a run in sequence order.
func (s *Store) LoadEvents(ctx context.Context, runID string) ([]event.Event, error) {
	return s.execute(ctx, func(ctx context.Context) ([]event.Event, error) {
		return s.inner.LoadEvents(ctx, runID)
	}, false)
}

// LoadEventsFrom retrieves events starting from a specific sequence number.
func (s *Store) LoadEventsFrom(ctx context.Context, runID string, fromSeq uint64) ([]event.Event, error) {
	return s.execute(ctx, func(ctx context.Context) ([]event.Event, error) {
		return s.inner.LoadEventsFrom(ctx, runID, fromSeq)
	}, false)
}

// BreakerState returns the circuit breaker state, or "disabled".
func (s *Store) BreakerState() string {
	if s.breaker == nil {
		return "disabled"
	}
	return s.breaker.State().String()
}

// Unwrap returns the decorated store.
func (s *Store) Unwrap() event.Store {
	return s.inner
}

var _ event.Store = (*Store)(nil)
