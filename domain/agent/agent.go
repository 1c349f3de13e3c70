// Package agent provides the maze-exploring agent: its pose, counters,
// belief map and active plan, and the step logic that drives them.
package agent

import (
	"github.com/felixgeelhaar/maze-agent/domain/belief"
	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

// FoodReward is the score awarded per collected food item.
const FoodReward = 10

// Agent explores a grid through an Oracle. It is not safe for concurrent use;
// a single caller drives it one Step at a time.
type Agent struct {
	oracle    maze.Oracle
	position  maze.Position
	heading   maze.Heading
	last      *maze.Position
	steps     int
	collected int
	target    int
	memory    *belief.Map
	plan      []maze.Heading
}

// Option configures an Agent.
type Option func(*Agent)

// WithHeading sets the initial heading. Invalid headings are ignored.
func WithHeading(h maze.Heading) Option {
	return func(a *Agent) {
		if h.IsValid() {
			a.heading = h
		}
	}
}

// WithTargetFood sets the food quota required before exiting.
// Negative values are ignored.
func WithTargetFood(n int) Option {
	return func(a *Agent) {
		if n >= 0 {
			a.target = n
		}
	}
}

// New places an agent on the oracle's entry cell and takes its first
// reading. The quota defaults to all food on the map.
func New(o maze.Oracle, opts ...Option) *Agent {
	a := &Agent{
		oracle:   o,
		position: o.EntryPosition(),
		heading:  maze.North,
		target:   o.TotalFoodCount(),
		memory:   belief.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.perceive()
	return a
}

// perceive senses the surroundings and folds the reading into memory.
func (a *Agent) perceive() {
	a.memory.Merge(a.oracle, maze.Sense(a.oracle, a.position, a.heading))
}

// Position returns the current cell.
func (a *Agent) Position() maze.Position { return a.position }

// Heading returns the current heading.
func (a *Agent) Heading() maze.Heading { return a.heading }

// Steps returns the number of successful moves.
func (a *Agent) Steps() int { return a.steps }

// Collected returns the number of food items eaten.
func (a *Agent) Collected() int { return a.collected }

// TargetFood returns the food quota.
func (a *Agent) TargetFood() int { return a.target }

// Memory returns the belief map. Callers must not mutate it.
func (a *Agent) Memory() *belief.Map { return a.memory }

// Last returns the cell the agent stood on before its latest move.
func (a *Agent) Last() (maze.Position, bool) {
	if a.last == nil {
		return maze.Position{}, false
	}
	return *a.last, true
}

// Plan returns a copy of the remaining planned headings.
func (a *Agent) Plan() []maze.Heading {
	out := make([]maze.Heading, len(a.plan))
	copy(out, a.plan)
	return out
}

// Finished reports whether the quota is met and the agent stands on an exit.
func (a *Agent) Finished() bool {
	return a.collected >= a.target && a.oracle.ExitPositions().Has(a.position)
}

// Score returns the food reward minus the steps taken.
func (a *Agent) Score() int {
	return a.collected*FoodReward - a.steps
}
