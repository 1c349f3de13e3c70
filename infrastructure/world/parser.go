package world

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/zyedidia/generic/mapset"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

// mapFile is the parsed form of a maze file: one line per row. Blank lines
// carry no row and are dropped.
type mapFile struct {
	Lines []*mapLine `parser:"( @@ | EOL )*"`
}

// mapLine is one row. Spaces between symbols are elided, so "X _ E" and
// "X_E" read the same.
type mapLine struct {
	Pos    lexer.Position
	Chunks []string `parser:"@Row+ EOL?"`
}

var mapLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "EOL", Pattern: `\r?\n`},
	{Name: "Row", Pattern: `[^\s]+`},
})

var mapParser = participle.MustBuild[mapFile](
	participle.Lexer(mapLexer),
	participle.Elide("Whitespace"),
)

// Parse reads a maze from r. name labels errors and the resulting World.
func Parse(name string, r io.Reader) (*World, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", name, err)
	}
	return ParseString(name, string(data))
}

// ParseString reads a maze from s.
func ParseString(name, s string) (*World, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyMap)
	}
	ast, err := mapParser.ParseString(name, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return build(name, ast)
}

func build(name string, ast *mapFile) (*World, error) {
	if len(ast.Lines) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyMap)
	}

	w := &World{
		name:  name,
		cells: make([][]maze.CellKind, 0, len(ast.Lines)),
		exits: mapset.New[maze.Position](),
	}
	entries := 0
	width := -1

	for r, line := range ast.Lines {
		row := make([]maze.CellKind, 0, width+1)
		for _, chunk := range line.Chunks {
			for _, ch := range chunk {
				kind, ok := maze.KindForSymbol(ch)
				if !ok {
					return nil, fmt.Errorf("%s:%d: %w %q", name, line.Pos.Line, ErrInvalidSymbol, ch)
				}
				p := maze.Pos(r, len(row))
				switch kind {
				case maze.Entry:
					entries++
					w.entry = p
				case maze.Exit:
					w.exits.Put(p)
				case maze.Food:
					w.food++
				}
				row = append(row, kind)
			}
		}
		if width < 0 {
			width = len(row)
		} else if len(row) != width {
			return nil, fmt.Errorf("%s:%d: %w: %d cells, want %d", name, line.Pos.Line, ErrRaggedRows, len(row), width)
		}
		w.cells = append(w.cells, row)
	}

	switch {
	case entries == 0:
		return nil, fmt.Errorf("%s: %w", name, ErrMissingEntry)
	case entries > 1:
		return nil, fmt.Errorf("%s: %w (%d found)", name, ErrMultipleEntries, entries)
	}
	w.remaining = w.food
	return w, nil
}
