// Package navigation provides breadth-first route planning over the agent's
// belief map and the translation of routes into heading commands.
package navigation

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

// Goal is a predicate over cells; the search stops at the first dequeued
// cell for which it returns true.
type Goal func(maze.Position) bool

// InSet returns a goal satisfied by membership in set.
func InSet(set mapset.Set[maze.Position]) Goal {
	return func(p maze.Position) bool {
		return set.Has(p)
	}
}

// Target names what a plan is heading for.
type Target string

const (
	TargetFood     Target = "food"
	TargetFrontier Target = "frontier"
	TargetExit     Target = "exit"
	TargetNone     Target = "none"
)

// Targets returns the seeking targets in priority order.
func Targets() []Target {
	return []Target{TargetFood, TargetFrontier, TargetExit}
}

// IsValid returns true if the target is recognized.
func (t Target) IsValid() bool {
	switch t {
	case TargetFood, TargetFrontier, TargetExit, TargetNone:
		return true
	default:
		return false
	}
}

// String returns the string representation of the target.
func (t Target) String() string {
	return string(t)
}
