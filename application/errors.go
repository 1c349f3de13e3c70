package application

import "errors"

// Application errors.
var (
	// ErrNilWorld is returned when Run is called without a world.
	ErrNilWorld = errors.New("world is required")

	// ErrInvalidConfig is returned by NewEngine for unusable settings.
	ErrInvalidConfig = errors.New("invalid engine config")

	// ErrRecordFailed wraps event store failures during a run.
	ErrRecordFailed = errors.New("record events")
)
