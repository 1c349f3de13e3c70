package config

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the YAML path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates simulation configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *SimulationConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateAgent(config)
	v.validateRender(config)
	v.validateLogging(config)
	v.validateStorage(config)
	v.validateResilience(config)
	v.validateTelemetry(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *SimulationConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
	if config.Map.Path == "" {
		v.addError("map.path", "map path is required")
	}
}

func (v *Validator) validateAgent(config *SimulationConfig) {
	if config.Agent.InitialHeading != "" {
		if _, err := maze.ParseHeading(config.Agent.InitialHeading); err != nil {
			v.addError("agent.initial_heading", fmt.Sprintf("invalid heading: %s", config.Agent.InitialHeading))
		}
	}
	if config.Agent.TargetFood != nil && *config.Agent.TargetFood < 0 {
		v.addError("agent.target_food", "target_food must be non-negative")
	}
	if config.Agent.MaxSteps <= 0 {
		v.addError("agent.max_steps", "max_steps must be positive")
	}
}

func (v *Validator) validateRender(config *SimulationConfig) {
	if config.Render.FrameDelay < 0 {
		v.addError("render.frame_delay", "frame_delay must be non-negative")
	}
}

func (v *Validator) validateLogging(config *SimulationConfig) {
	if config.Logging.Level != "" {
		validLevels := map[string]bool{
			"trace": true, "debug": true, "info": true, "warn": true, "error": true,
		}
		if !validLevels[strings.ToLower(config.Logging.Level)] {
			v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
		}
	}
	if config.Logging.Format != "" && config.Logging.Format != "json" && config.Logging.Format != "console" {
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
	}
}

func (v *Validator) validateStorage(config *SimulationConfig) {
	s := config.Storage
	if s.BatchSize < 0 {
		v.addError("storage.batch_size", "batch_size must be non-negative")
	}
	switch s.Backend {
	case "", BackendMemory:
	case BackendBadger:
		if s.Badger.Dir == "" && !s.Badger.InMemory {
			v.addError("storage.badger.dir", "dir is required unless in_memory is set")
		}
	case BackendSQLite:
		if s.SQLite.Path == "" {
			v.addError("storage.sqlite.path", "path is required for sqlite backend")
		}
	case BackendPostgres:
		if s.Postgres.DSN == "" {
			v.addError("storage.postgres.dsn", "dsn is required for postgres backend")
		}
	case BackendRedis:
		if s.Redis.Addr == "" {
			v.addError("storage.redis.addr", "addr is required for redis backend")
		}
		if s.Redis.TTL < 0 {
			v.addError("storage.redis.ttl", "ttl must be non-negative")
		}
	default:
		v.addError("storage.backend", fmt.Sprintf("unknown backend: %s", s.Backend))
	}
}

func (v *Validator) validateResilience(config *SimulationConfig) {
	if config.Resilience.CallTimeout < 0 {
		v.addError("resilience.call_timeout", "call_timeout must be non-negative")
	}

	if config.Resilience.Retry.Enabled {
		if config.Resilience.Retry.MaxAttempts <= 0 {
			v.addError("resilience.retry.max_attempts", "max_attempts must be positive when enabled")
		}
		if config.Resilience.Retry.Multiplier < 1 {
			v.addError("resilience.retry.multiplier", "multiplier must be >= 1")
		}
	}

	if config.Resilience.CircuitBreaker.Enabled {
		if config.Resilience.CircuitBreaker.Threshold <= 0 {
			v.addError("resilience.circuit_breaker.threshold", "threshold must be positive when enabled")
		}
	}
}

func (v *Validator) validateTelemetry(config *SimulationConfig) {
	t := config.Telemetry.Tracing
	switch t.Exporter {
	case "", ExporterNoop, ExporterStdout:
	case ExporterOTLP:
		if t.Endpoint == "" {
			v.addError("telemetry.tracing.endpoint", "endpoint is required for otlp exporter")
		}
	default:
		v.addError("telemetry.tracing.exporter", fmt.Sprintf("unknown exporter: %s", t.Exporter))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		v.addError("telemetry.tracing.sample_rate", "sample_rate must be between 0 and 1")
	}
}
