package navigation

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/maze-agent/domain/belief"
	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

// FindPath runs a breadth-first search from start over the known, non-wall
// cells of m and returns the route to the first cell satisfying goal,
// including both endpoints. The route is shortest over the known subgraph.
//
// Neighbors are enqueued in ascending visit count so that among equally
// short routes the search leans toward less visited ground.
func FindPath(m *belief.Map, start maze.Position, goal Goal) ([]maze.Position, bool) {
	queue := []maze.Position{start}
	parent := map[maze.Position]maze.Position{}
	seen := map[maze.Position]bool{start: true}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		if goal(u) {
			return reconstruct(parent, start, u), true
		}

		next := m.FreeNeighbors(u)
		sort.SliceStable(next, func(i, j int) bool {
			return m.Visits(next[i]) < m.Visits(next[j])
		})
		for _, v := range next {
			if seen[v] {
				continue
			}
			seen[v] = true
			parent[v] = u
			queue = append(queue, v)
		}
	}
	return nil, false
}

func reconstruct(parent map[maze.Position]maze.Position, start, end maze.Position) []maze.Position {
	path := []maze.Position{end}
	for cur := end; cur != start; {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Translate turns a cell route into the headings that walk it.
// A step between non-adjacent cells is an internal defect and is reported as
// ErrNonAdjacentStep rather than skipped.
func Translate(path []maze.Position) ([]maze.Heading, error) {
	if len(path) < 2 {
		return nil, nil
	}
	out := make([]maze.Heading, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		h, ok := maze.HeadingBetween(path[i-1], path[i])
		if !ok {
			return nil, fmt.Errorf("%w: %s -> %s", ErrNonAdjacentStep, path[i-1], path[i])
		}
		out = append(out, h)
	}
	return out, nil
}
