package maze

import "strings"

// Heading is one of the four cardinal directions the agent can face.
type Heading string

// Cardinal headings, named by the letter a renderer draws in the agent's cell.
const (
	North Heading = "N"
	South Heading = "S"
	East  Heading = "E"
	West  Heading = "W"
)

// headingOrder is the fixed iteration order used for ties everywhere.
var headingOrder = [4]Heading{North, South, East, West}

// Headings returns the headings in their canonical order: N, S, E, W.
func Headings() [4]Heading {
	return headingOrder
}

// Delta returns the unit (row, col) displacement for the heading.
func (h Heading) Delta() (dr, dc int) {
	switch h {
	case North:
		return -1, 0
	case South:
		return 1, 0
	case East:
		return 0, 1
	case West:
		return 0, -1
	default:
		return 0, 0
	}
}

// HeadingFor maps a unit displacement back to its heading.
// ok is false when (dr, dc) is not a 4-connected unit step.
func HeadingFor(dr, dc int) (Heading, bool) {
	for _, h := range headingOrder {
		hr, hc := h.Delta()
		if hr == dr && hc == dc {
			return h, true
		}
	}
	return "", false
}

// HeadingBetween returns the heading that leads from one position to an
// adjacent one.
func HeadingBetween(from, to Position) (Heading, bool) {
	return HeadingFor(to.Row-from.Row, to.Col-from.Col)
}

// IsValid reports whether h is one of the four cardinal headings.
func (h Heading) IsValid() bool {
	switch h {
	case North, South, East, West:
		return true
	default:
		return false
	}
}

// Letter returns the one-letter marker for the heading.
func (h Heading) Letter() rune {
	if !h.IsValid() {
		return '?'
	}
	return rune(h[0])
}

// String returns the string representation of the heading.
func (h Heading) String() string {
	return string(h)
}

// ParseHeading accepts a cardinal heading letter or name, case-insensitively
// ("n", "north", "N").
func ParseHeading(s string) (Heading, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "north":
		return North, nil
	case "s", "south":
		return South, nil
	case "e", "east":
		return East, nil
	case "w", "west":
		return West, nil
	default:
		return "", ErrInvalidHeading
	}
}
