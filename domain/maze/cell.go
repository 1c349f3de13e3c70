package maze

// CellKind is what occupies a grid cell.
// Unknown is deliberately not a CellKind: an unobserved cell is simply absent
// from the agent's belief map.
type CellKind uint8

const (
	Wall CellKind = iota + 1
	Free
	Entry
	Exit
	Food
)

// Map-file symbols for each cell kind.
const (
	SymbolWall  = 'X'
	SymbolFree  = '_'
	SymbolEntry = 'E'
	SymbolExit  = 'S'
	SymbolFood  = 'o'
)

// Symbol returns the map-file rune for the kind.
func (k CellKind) Symbol() rune {
	switch k {
	case Wall:
		return SymbolWall
	case Free:
		return SymbolFree
	case Entry:
		return SymbolEntry
	case Exit:
		return SymbolExit
	case Food:
		return SymbolFood
	default:
		return '?'
	}
}

// KindForSymbol maps a map-file rune to its cell kind.
func KindForSymbol(r rune) (CellKind, bool) {
	switch r {
	case SymbolWall:
		return Wall, true
	case SymbolFree:
		return Free, true
	case SymbolEntry:
		return Entry, true
	case SymbolExit:
		return Exit, true
	case SymbolFood:
		return Food, true
	default:
		return 0, false
	}
}

// Traversable reports whether the agent may stand on a cell of this kind.
func (k CellKind) Traversable() bool {
	switch k {
	case Free, Entry, Exit, Food:
		return true
	default:
		return false
	}
}

// IsValid reports whether k is a recognized cell kind.
func (k CellKind) IsValid() bool {
	return k >= Wall && k <= Food
}

// String returns a lowercase name for the kind.
func (k CellKind) String() string {
	switch k {
	case Wall:
		return "wall"
	case Free:
		return "free"
	case Entry:
		return "entry"
	case Exit:
		return "exit"
	case Food:
		return "food"
	default:
		return "invalid"
	}
}
