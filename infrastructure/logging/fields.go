package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/maze-agent/domain/agent"
	"github.com/felixgeelhaar/maze-agent/domain/maze"
	"github.com/felixgeelhaar/maze-agent/domain/navigation"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for simulation logging.

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// MapName adds a map name field.
func MapName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("map", name)
	}
}

// Position adds a position field.
func Position(p maze.Position) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("position", p.String())
	}
}

// Heading adds a heading field.
func Heading(h maze.Heading) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("heading", string(h))
	}
}

// Target adds a plan target field.
func Target(t navigation.Target) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("target", string(t))
	}
}

// Source adds a step source field.
func Source(s agent.Source) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("source", string(s))
	}
}

// Steps adds a step count field.
func Steps(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("steps", n)
	}
}

// Food adds collected and target food fields.
func Food(collected, target int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("food", collected).Int("target_food", target)
	}
}

// Score adds a score field.
func Score(score int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("score", score)
	}
}

// PlanLength adds the number of headings in an installed plan.
func PlanLength(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("plan_length", n)
	}
}

// Status adds a run status field.
func Status(s agent.RunStatus) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("status", string(s))
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
