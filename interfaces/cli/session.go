package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/maze-agent/domain/config"
	"github.com/felixgeelhaar/maze-agent/domain/event"
	"github.com/felixgeelhaar/maze-agent/infrastructure/observability"
	"github.com/felixgeelhaar/maze-agent/infrastructure/resilience"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage"
	"github.com/felixgeelhaar/maze-agent/infrastructure/telemetry"
)

// session holds the infrastructure one command invocation wires up.
type session struct {
	store     storage.Store
	recorder  event.Store
	metrics   telemetry.Metrics
	collector *telemetry.Collector
	tracing   *observability.Provider
}

// openSession opens the configured store and telemetry. Spans exported to
// stdout go to traceOut so rendered frames stay readable.
func openSession(ctx context.Context, cfg *config.SimulationConfig, traceOut io.Writer) (*session, error) {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", backendName(cfg.Storage.Backend), err)
	}

	s := &session{
		store:    store,
		recorder: resilience.NewStore(store, resilienceConfig(cfg.Resilience), recorderOptions(cfg.Resilience)...),
		metrics:  &telemetry.NoopMetricsProvider{},
	}

	if cfg.Telemetry.Metrics {
		s.collector = telemetry.NewCollector()
		mc := telemetry.DefaultMetricsConfig()
		mc.MeterVersion = Version
		mc.Provider = s.collector.MeterProvider()
		mp := telemetry.NewMetricsProvider(mc)
		if err := mp.Error(); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		s.metrics = mp
	}

	tc := cfg.Telemetry.Tracing
	opts := []observability.Option{
		observability.WithServiceName(cfg.Name),
		observability.WithServiceVersion(Version),
		observability.WithTracing(observability.ExporterType(tc.Exporter), tc.Endpoint),
		observability.WithSampleRate(tc.SampleRate),
		observability.WithGlobal(),
	}
	if tc.Exporter == config.ExporterStdout {
		opts = append(opts, observability.WithStdoutTracing(traceOut))
	}
	if tc.Insecure {
		opts = append(opts, observability.WithTracingInsecure())
	}
	tracing, err := observability.New(opts...)
	if err != nil {
		_ = s.Close(ctx)
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	s.tracing = tracing

	return s, nil
}

// Close flushes telemetry and closes the store.
func (s *session) Close(ctx context.Context) error {
	var errs []error
	if s.tracing != nil {
		errs = append(errs, s.tracing.Shutdown(ctx))
	}
	if s.collector != nil {
		errs = append(errs, s.collector.Shutdown(ctx))
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}

// metricTotals returns the collected metrics, or nil when metrics are off.
func (s *session) metricTotals(ctx context.Context) map[string]float64 {
	if s.collector == nil {
		return nil
	}
	totals, err := s.collector.Totals(ctx)
	if err != nil {
		return nil
	}
	return totals
}

func resilienceConfig(rc config.ResilienceConfig) resilience.Config {
	c := resilience.DefaultConfig()
	c.RetryEnabled = rc.Retry.Enabled
	if rc.Retry.MaxAttempts > 0 {
		c.RetryMaxAttempts = rc.Retry.MaxAttempts
	}
	if rc.Retry.InitialDelay > 0 {
		c.RetryInitialDelay = time.Duration(rc.Retry.InitialDelay)
	}
	if rc.Retry.Multiplier > 0 {
		c.RetryBackoffMultiplier = rc.Retry.Multiplier
	}
	c.BreakerEnabled = rc.CircuitBreaker.Enabled
	if rc.CircuitBreaker.Threshold > 0 {
		c.BreakerThreshold = rc.CircuitBreaker.Threshold
	}
	if rc.CircuitBreaker.Timeout > 0 {
		c.BreakerTimeout = time.Duration(rc.CircuitBreaker.Timeout)
	}
	return c
}

// recorderOptions returns the per-call overrides for the resilient recorder.
func recorderOptions(rc config.ResilienceConfig) []resilience.Option {
	var opts []resilience.Option
	if rc.CallTimeout > 0 {
		opts = append(opts, resilience.WithCallTimeout(time.Duration(rc.CallTimeout)))
	}
	return opts
}

func backendName(b string) string {
	if b == "" {
		return config.BackendMemory
	}
	return b
}
