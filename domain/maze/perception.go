package maze

import "strings"

// Perception is a 3×3 reading around the agent.
// The center slot carries no cell kind; the agent's pose is in Heading.
type Perception struct {
	Origin  Position
	Heading Heading
	cells   [3][3]CellKind
}

// Sense reads the 3×3 neighborhood around at. Out-of-bounds neighbors read as Wall.
func Sense(o Oracle, at Position, h Heading) Perception {
	p := Perception{Origin: at, Heading: h}
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			q := at.Offset(dr, dc)
			kind := Wall
			if o.InBounds(q) {
				kind = o.CellKind(q)
			}
			p.cells[dr+1][dc+1] = kind
		}
	}
	return p
}

// At returns the kind seen at offset (dr, dc) from the origin, each in [-1, 1].
// ok is false for the center and for offsets outside the window.
func (p Perception) At(dr, dc int) (CellKind, bool) {
	if dr < -1 || dr > 1 || dc < -1 || dc > 1 || (dr == 0 && dc == 0) {
		return 0, false
	}
	return p.cells[dr+1][dc+1], true
}

// String renders the window as three lines of map symbols with the heading
// letter in the center.
func (p Perception) String() string {
	var b strings.Builder
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if r == 1 && c == 1 {
				b.WriteRune(p.Heading.Letter())
				continue
			}
			b.WriteRune(p.cells[r][c].Symbol())
		}
		if r < 2 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
