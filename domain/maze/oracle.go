package maze

import "github.com/zyedidia/generic/mapset"

// Oracle is the authoritative ground-truth grid. The agent never trusts its
// own memory for movement legality or food state; it asks the oracle.
type Oracle interface {
	// CellKind returns the kind at p, or Wall when p is out of bounds.
	CellKind(p Position) CellKind

	// InBounds reports whether p lies inside the grid.
	InBounds(p Position) bool

	// ConsumeFoodIfPresent turns Food at p into Free and reports whether
	// there was food to eat.
	ConsumeFoodIfPresent(p Position) bool

	// EntryPosition returns the designated start cell.
	EntryPosition() Position

	// ExitPositions returns the set of exit cells.
	ExitPositions() mapset.Set[Position]

	// TotalFoodCount returns the number of food cells the map started with.
	TotalFoodCount() int
}
