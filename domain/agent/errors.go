package agent

import "errors"

// Domain errors for the run lifecycle.
var (
	// ErrInvalidStatus indicates the status is not a terminal run status.
	ErrInvalidStatus = errors.New("invalid run status")

	// ErrInvalidTransition indicates an attempted status change is not allowed.
	ErrInvalidTransition = errors.New("invalid run transition")

	// ErrRunTerminated indicates an operation was attempted on a finished run.
	ErrRunTerminated = errors.New("run already terminated")

	// ErrRunNotStarted indicates an operation requires a started run.
	ErrRunNotStarted = errors.New("run not started")
)
