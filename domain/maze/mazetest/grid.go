// Package mazetest provides a small in-memory oracle for tests.
package mazetest

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

// Grid is a maze.Oracle built from rows of map symbols. It performs no
// validation beyond what tests need: unknown symbols read as Wall.
type Grid struct {
	cells    [][]maze.CellKind
	entry    maze.Position
	exits    mapset.Set[maze.Position]
	food     int
	Consumed []maze.Position
}

// New builds a Grid from rows such as "XEX", "X_X".
func New(rows ...string) *Grid {
	g := &Grid{exits: mapset.New[maze.Position]()}
	for r, row := range rows {
		line := make([]maze.CellKind, 0, len(row))
		for c, ch := range row {
			kind, ok := maze.KindForSymbol(ch)
			if !ok {
				kind = maze.Wall
			}
			p := maze.Pos(r, c)
			switch kind {
			case maze.Entry:
				g.entry = p
			case maze.Exit:
				g.exits.Put(p)
			case maze.Food:
				g.food++
			}
			line = append(line, kind)
		}
		g.cells = append(g.cells, line)
	}
	return g
}

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p maze.Position) bool {
	return p.Row >= 0 && p.Row < len(g.cells) && p.Col >= 0 && p.Col < len(g.cells[p.Row])
}

// CellKind returns the kind at p, or Wall outside the grid.
func (g *Grid) CellKind(p maze.Position) maze.CellKind {
	if !g.InBounds(p) {
		return maze.Wall
	}
	return g.cells[p.Row][p.Col]
}

// ConsumeFoodIfPresent turns food at p into a free cell and records p in
// Consumed.
func (g *Grid) ConsumeFoodIfPresent(p maze.Position) bool {
	if g.CellKind(p) != maze.Food {
		return false
	}
	g.cells[p.Row][p.Col] = maze.Free
	g.Consumed = append(g.Consumed, p)
	return true
}

// EntryPosition returns the E cell.
func (g *Grid) EntryPosition() maze.Position { return g.entry }

// ExitPositions returns the S cells.
func (g *Grid) ExitPositions() mapset.Set[maze.Position] { return g.exits }

// TotalFoodCount returns the food count the grid was built with.
func (g *Grid) TotalFoodCount() int { return g.food }

// Set overwrites a cell, for tests that change the world behind the agent's back.
func (g *Grid) Set(p maze.Position, kind maze.CellKind) {
	g.cells[p.Row][p.Col] = kind
}
