package config

import "errors"

// Errors returned while reading a simulation config.
var (
	// ErrConfigNotFound means the simulation config file does not exist.
	ErrConfigNotFound = errors.New("simulation config not found")

	// ErrInvalidFormat means the file could not be decoded as YAML or JSON.
	ErrInvalidFormat = errors.New("simulation config is malformed")

	// ErrUnsupportedFormat means the file extension is neither YAML nor JSON.
	ErrUnsupportedFormat = errors.New("simulation config must be .yaml, .yml or .json")

	// ErrValidationFailed wraps the ValidationErrors of a rejected config.
	ErrValidationFailed = errors.New("simulation config is invalid")

	// ErrEnvExpansionFailed means a ${VAR} reference could not be expanded.
	ErrEnvExpansionFailed = errors.New("cannot expand ${VAR} in simulation config")

	// ErrMissingEnvVar means a ${VAR:?msg} reference named an unset variable.
	ErrMissingEnvVar = errors.New("environment variable required by simulation config is unset")

	// ErrMissingMap means neither the config nor the command line names a
	// maze file.
	ErrMissingMap = errors.New("no map given (pass a path or set map.path in the config)")
)
