// Package config provides domain models for simulation configuration.
package config

import "time"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Trace exporters.
const (
	ExporterNoop   = "noop"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// SimulationConfig represents the complete simulation configuration.
type SimulationConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes the scenario.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Map locates the maze file.
	Map MapConfig `json:"map" yaml:"map"`
	// Agent contains agent behavior settings.
	Agent AgentSettings `json:"agent" yaml:"agent"`
	// Render controls the console animation.
	Render RenderConfig `json:"render,omitempty" yaml:"render,omitempty"`
	// Logging controls the structured logger.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Storage selects the event store backend.
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
	// Resilience wraps event recording.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
	// Telemetry configures metrics and tracing.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
}

// MapConfig locates the maze file.
type MapConfig struct {
	// Path is the maze file path.
	Path string `json:"path" yaml:"path"`
}

// AgentSettings contains agent behavior settings.
type AgentSettings struct {
	// InitialHeading is N, S, E or W (long forms accepted).
	InitialHeading string `json:"initial_heading,omitempty" yaml:"initial_heading,omitempty"`
	// TargetFood is the quota; nil means all food on the map.
	TargetFood *int `json:"target_food,omitempty" yaml:"target_food,omitempty"`
	// MaxSteps bounds the number of step attempts.
	MaxSteps int `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
}

// RenderConfig controls the console animation.
type RenderConfig struct {
	// Enabled draws a frame after every step.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// FrameDelay is the pause between frames.
	FrameDelay Duration `json:"frame_delay,omitempty" yaml:"frame_delay,omitempty"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// StorageConfig selects the event store backend.
type StorageConfig struct {
	// Backend is memory, badger, sqlite, postgres or redis.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// BatchSize buffers this many events per write; 0 or 1 writes every step.
	BatchSize int `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	// Badger configures the embedded key-value store.
	Badger BadgerConfig `json:"badger,omitempty" yaml:"badger,omitempty"`
	// SQLite configures the embedded SQL store.
	SQLite SQLiteConfig `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	// Postgres configures the PostgreSQL store.
	Postgres PostgresConfig `json:"postgres,omitempty" yaml:"postgres,omitempty"`
	// Redis configures the Redis store.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// BadgerConfig configures the badger backend.
type BadgerConfig struct {
	// Dir is the data directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// InMemory keeps all data in memory.
	InMemory bool `json:"in_memory,omitempty" yaml:"in_memory,omitempty"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	// Path is the database file.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// PostgresConfig configures the postgres backend.
type PostgresConfig struct {
	// DSN is the connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Schema is the table schema (default: public).
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	// Addr is host:port.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// Password is the AUTH password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// DB is the database number.
	DB int `json:"db,omitempty" yaml:"db,omitempty"`
	// Prefix namespaces every key.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// TTL expires run streams; zero keeps them.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// ResilienceConfig wraps event recording.
type ResilienceConfig struct {
	// Retry configures retry behavior.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// CircuitBreaker configures circuit breaker behavior.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
	// CallTimeout bounds each store call; zero keeps the recorder's default.
	CallTimeout Duration `json:"call_timeout,omitempty" yaml:"call_timeout,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// Enabled enables retry.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// MaxAttempts is the maximum retry attempts.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the first retry delay.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// Multiplier is the backoff multiplier.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Enabled enables circuit breaker.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Threshold is consecutive failures before opening.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	// Metrics records otel metrics for runs.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	// Tracing configures span export.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Exporter is noop, stdout or otlp.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS for OTLP.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the fraction of runs traced.
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *SimulationConfig {
	return &SimulationConfig{
		Name:    "maze-agent",
		Version: "1",
		Agent: AgentSettings{
			InitialHeading: "N",
			MaxSteps:       1000,
		},
		Render: RenderConfig{
			Enabled:    true,
			FrameDelay: Duration(20 * time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			Backend:  BackendMemory,
			Postgres: PostgresConfig{Schema: "public"},
			Redis:    RedisConfig{Addr: "localhost:6379", Prefix: "maze:"},
		},
		Resilience: ResilienceConfig{
			Retry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: Duration(50 * time.Millisecond),
				Multiplier:   2,
			},
			CircuitBreaker: CircuitBreakerConfig{
				Threshold: 5,
				Timeout:   Duration(30 * time.Second),
			},
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{Exporter: ExporterNoop, SampleRate: 1},
		},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
