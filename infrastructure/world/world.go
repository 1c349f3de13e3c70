// Package world provides the ground-truth maze loaded from a map file.
package world

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

// World is the authoritative grid. It implements maze.Oracle.
// Food consumption is its only mutation; a World is not safe for concurrent
// use while an agent is stepping on it.
type World struct {
	name      string
	cells     [][]maze.CellKind
	entry     maze.Position
	exits     mapset.Set[maze.Position]
	food      int
	remaining int
}

var _ maze.Oracle = (*World)(nil)

// Load reads and validates the map file at path.
func Load(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	return Parse(filepath.Base(path), f)
}

// Name returns the label the map was parsed with.
func (w *World) Name() string { return w.name }

// Rows returns the grid height.
func (w *World) Rows() int { return len(w.cells) }

// Cols returns the grid width.
func (w *World) Cols() int { return len(w.cells[0]) }

// InBounds reports whether p lies inside the grid.
func (w *World) InBounds(p maze.Position) bool {
	return p.Row >= 0 && p.Row < w.Rows() && p.Col >= 0 && p.Col < w.Cols()
}

// CellKind returns the kind at p, or Wall when p is out of bounds.
func (w *World) CellKind(p maze.Position) maze.CellKind {
	if !w.InBounds(p) {
		return maze.Wall
	}
	return w.cells[p.Row][p.Col]
}

// ConsumeFoodIfPresent turns Food at p into Free.
func (w *World) ConsumeFoodIfPresent(p maze.Position) bool {
	if w.CellKind(p) != maze.Food {
		return false
	}
	w.cells[p.Row][p.Col] = maze.Free
	w.remaining--
	return true
}

// EntryPosition returns the entry cell.
func (w *World) EntryPosition() maze.Position { return w.entry }

// ExitPositions returns the exit cells. Callers must not modify the set.
func (w *World) ExitPositions() mapset.Set[maze.Position] { return w.exits }

// TotalFoodCount returns the food the map started with.
func (w *World) TotalFoodCount() int { return w.food }

// RemainingFood returns the food not yet eaten.
func (w *World) RemainingFood() int { return w.remaining }

// Clone returns an independent copy with its current food state.
func (w *World) Clone() *World {
	c := &World{
		name:      w.name,
		cells:     make([][]maze.CellKind, len(w.cells)),
		entry:     w.entry,
		exits:     mapset.New[maze.Position](),
		food:      w.food,
		remaining: w.remaining,
	}
	for i, row := range w.cells {
		c.cells[i] = append([]maze.CellKind(nil), row...)
	}
	w.exits.Each(func(p maze.Position) {
		c.exits.Put(p)
	})
	return c
}

// Render draws the grid with the agent shown by its heading letter.
func (w *World) Render(at maze.Position, h maze.Heading) string {
	var b strings.Builder
	b.Grow(w.Rows() * (w.Cols() + 1))
	for r, row := range w.cells {
		for c, kind := range row {
			if at.Row == r && at.Col == c {
				b.WriteRune(h.Letter())
				continue
			}
			b.WriteRune(kind.Symbol())
		}
		if r < len(w.cells)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Summary describes the map the way the console header does.
func (w *World) Summary() string {
	exits := make([]string, 0, w.exits.Size())
	w.exits.Each(func(p maze.Position) {
		exits = append(exits, p.String())
	})
	sort.Strings(exits)
	return fmt.Sprintf("size %dx%d, entry %s, exits [%s], food %d",
		w.Rows(), w.Cols(), w.entry, strings.Join(exits, " "), w.food)
}
