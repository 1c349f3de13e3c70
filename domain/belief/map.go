// Package belief provides the agent's partial memory of the grid: what it has
// observed so far and how often it has stood on each cell.
package belief

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

// Map is the agent's belief about the grid. Entries are only ever written from
// ground truth and are never removed, so the key set grows monotonically.
// A position absent from the map is Unknown.
type Map struct {
	cells   map[maze.Position]maze.CellKind
	visits  map[maze.Position]int
	outside mapset.Set[maze.Position]
}

// New creates an empty belief map.
func New() *Map {
	return &Map{
		cells:   make(map[maze.Position]maze.CellKind),
		visits:  make(map[maze.Position]int),
		outside: mapset.New[maze.Position](),
	}
}

// Merge folds a perception into the map. The origin and every in-bounds
// neighbor are re-read from the oracle rather than copied from the payload,
// so consumed food is observed even if the perception predates the meal.
// Out-of-bounds neighbors are not stored as cells; they are remembered as
// lying outside the grid so that border cells do not stay frontiers forever.
// The origin's visit counter is incremented by one.
func (m *Map) Merge(o maze.Oracle, p maze.Perception) {
	m.cells[p.Origin] = o.CellKind(p.Origin)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			q := p.Origin.Offset(dr, dc)
			if !o.InBounds(q) {
				m.outside.Put(q)
				continue
			}
			m.cells[q] = o.CellKind(q)
		}
	}
	m.visits[p.Origin]++
}

// Lookup returns the remembered kind at p. ok is false when p is Unknown.
func (m *Map) Lookup(p maze.Position) (maze.CellKind, bool) {
	kind, ok := m.cells[p]
	return kind, ok
}

// Known reports whether p has been observed.
func (m *Map) Known(p maze.Position) bool {
	_, ok := m.cells[p]
	return ok
}

// FreeNeighbors returns the orthogonal neighbors of p that are known and not
// walls, in heading order. Unknown cells are never routable.
func (m *Map) FreeNeighbors(p maze.Position) []maze.Position {
	out := make([]maze.Position, 0, 4)
	for _, q := range p.Neighbors() {
		kind, ok := m.cells[q]
		if !ok || kind == maze.Wall {
			continue
		}
		out = append(out, q)
	}
	return out
}

// IsFrontier reports whether p is known-traversable with at least one
// orthogonal neighbor that has not been observed. Neighbors known to lie
// outside the grid do not count.
func (m *Map) IsFrontier(p maze.Position) bool {
	kind, ok := m.cells[p]
	if !ok || !kind.Traversable() {
		return false
	}
	for _, q := range p.Neighbors() {
		if _, known := m.cells[q]; !known && !m.outside.Has(q) {
			return true
		}
	}
	return false
}

// Frontiers returns every frontier cell currently in the map.
func (m *Map) Frontiers() mapset.Set[maze.Position] {
	out := mapset.New[maze.Position]()
	for p := range m.cells {
		if m.IsFrontier(p) {
			out.Put(p)
		}
	}
	return out
}

// CellsOf returns the known cells of the given kind.
func (m *Map) CellsOf(kind maze.CellKind) mapset.Set[maze.Position] {
	out := mapset.New[maze.Position]()
	for p, k := range m.cells {
		if k == kind {
			out.Put(p)
		}
	}
	return out
}

// MarkWall records p as a wall. Used when a planned route turns out to cross
// a cell that ground truth reports as a wall.
func (m *Map) MarkWall(p maze.Position) {
	m.cells[p] = maze.Wall
}

// Visits returns how many times the agent has stood on p.
func (m *Map) Visits(p maze.Position) int {
	return m.visits[p]
}

// Len returns the number of observed cells.
func (m *Map) Len() int {
	return len(m.cells)
}

// Each calls fn for every observed cell, in no particular order.
func (m *Map) Each(fn func(maze.Position, maze.CellKind)) {
	for p, k := range m.cells {
		fn(p, k)
	}
}
