// Package maze provides the grid vocabulary shared by the agent, its planner
// and the ground-truth world: positions, headings, cell kinds and the oracle
// contract the agent consults for legality and food state.
package maze

import "fmt"

// Position is a (row, col) cell coordinate. Row grows southward, Col grows eastward.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// Add returns the position one step away in the given heading.
func (p Position) Add(h Heading) Position {
	dr, dc := h.Delta()
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

// Offset returns the position shifted by (dr, dc).
func (p Position) Offset(dr, dc int) Position {
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

// Neighbors returns the four orthogonal neighbors in heading order.
func (p Position) Neighbors() [4]Position {
	var out [4]Position
	for i, h := range Headings() {
		out[i] = p.Add(h)
	}
	return out
}

// String returns the position as "(row,col)".
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}
