package agent

import (
	"github.com/felixgeelhaar/maze-agent/domain/maze"
	"github.com/felixgeelhaar/maze-agent/domain/navigation"
)

// Decision is the outcome of plan selection. Target is TargetNone when no
// tier produced a route, in which case Path and Headings are empty.
type Decision struct {
	Target   navigation.Target `json:"target"`
	Path     []maze.Position   `json:"path,omitempty"`
	Headings []maze.Heading    `json:"headings,omitempty"`
}

// Installed reports whether the decision carries a plan.
func (d Decision) Installed() bool {
	return d.Target != navigation.TargetNone && len(d.Headings) > 0
}

// selectPlan walks the tiers in priority order and returns the first route
// longer than the current cell. Each tier is evaluated from scratch against
// current memory.
func (a *Agent) selectPlan() (Decision, error) {
	for _, t := range navigation.Targets() {
		d, ok, err := a.seek(t)
		if err != nil {
			return Decision{}, err
		}
		if ok {
			return d, nil
		}
	}
	return Decision{Target: navigation.TargetNone}, nil
}

// goalFor builds the goal predicate of a tier. ok is false when the tier is
// ineligible or has nothing to aim for.
func (a *Agent) goalFor(t navigation.Target) (navigation.Goal, bool) {
	switch t {
	case navigation.TargetFood:
		foods := a.memory.CellsOf(maze.Food)
		if foods.Size() == 0 {
			return nil, false
		}
		return navigation.InSet(foods), true
	case navigation.TargetFrontier:
		frontiers := a.memory.Frontiers()
		if frontiers.Size() == 0 {
			return nil, false
		}
		return navigation.InSet(frontiers), true
	case navigation.TargetExit:
		if a.collected < a.target {
			return nil, false
		}
		exits := a.memory.CellsOf(maze.Exit)
		if exits.Size() == 0 {
			return nil, false
		}
		return navigation.InSet(exits), true
	default:
		return nil, false
	}
}

// seek searches one tier. A route crossing a cell that ground truth reports
// as a wall is discarded, the wall is written into memory and the tier is
// searched again. Every retry adds a wall to memory, so the loop terminates.
func (a *Agent) seek(t navigation.Target) (Decision, bool, error) {
	for {
		goal, ok := a.goalFor(t)
		if !ok {
			return Decision{}, false, nil
		}
		path, found := navigation.FindPath(a.memory, a.position, goal)
		if !found || len(path) < 2 {
			return Decision{}, false, nil
		}
		if a.markStaleWalls(path) {
			continue
		}
		headings, err := navigation.Translate(path)
		if err != nil {
			return Decision{}, false, err
		}
		return Decision{Target: t, Path: path, Headings: headings}, true, nil
	}
}

// markStaleWalls re-reads every cell after the start of path and records
// ground-truth walls in memory. It reports whether any were found.
func (a *Agent) markStaleWalls(path []maze.Position) bool {
	stale := false
	for _, p := range path[1:] {
		if a.oracle.CellKind(p) != maze.Wall {
			continue
		}
		if k, ok := a.memory.Lookup(p); ok && k == maze.Wall {
			continue
		}
		a.memory.MarkWall(p)
		stale = true
	}
	return stale
}
