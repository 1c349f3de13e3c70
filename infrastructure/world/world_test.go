package world

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

const sample = `XXXXX
XE_oX
XXX_X
XXS_X
XXXXX
`

func TestParseString(t *testing.T) {
	t.Parallel()

	w, err := ParseString("sample", sample)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if w.Rows() != 5 || w.Cols() != 5 {
		t.Errorf("size = %dx%d, want 5x5", w.Rows(), w.Cols())
	}
	if w.EntryPosition() != maze.Pos(1, 1) {
		t.Errorf("EntryPosition() = %s, want (1,1)", w.EntryPosition())
	}
	if !w.ExitPositions().Has(maze.Pos(3, 2)) || w.ExitPositions().Size() != 1 {
		t.Error("ExitPositions() should be exactly {(3,2)}")
	}
	if w.TotalFoodCount() != 1 {
		t.Errorf("TotalFoodCount() = %d, want 1", w.TotalFoodCount())
	}
	if w.Name() != "sample" {
		t.Errorf("Name() = %q, want sample", w.Name())
	}
}

func TestParseString_Layout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		rows  int
		cols  int
	}{
		{"no trailing newline", "XEX\nXSX", 2, 3},
		{"blank trailing lines", "XEX\nXSX\n\n\n", 2, 3},
		{"spaced symbols", "X E X\nX S X\n", 2, 3},
		{"crlf", "XEX\r\nXSX\r\n", 2, 3},
		{"tabs and trailing spaces", "XEX  \n\tXSX\n", 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, err := ParseString(tt.name, tt.input)
			if err != nil {
				t.Fatalf("ParseString() error = %v", err)
			}
			if w.Rows() != tt.rows || w.Cols() != tt.cols {
				t.Errorf("size = %dx%d, want %dx%d", w.Rows(), w.Cols(), tt.rows, tt.cols)
			}
		})
	}
}

func TestParseString_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyMap},
		{"only blank lines", "\n\n", ErrEmptyMap},
		{"ragged", "XEX\nXX\n", ErrRaggedRows},
		{"no entry", "XXX\nX_X\n", ErrMissingEntry},
		{"two entries", "XEX\nXEX\n", ErrMultipleEntries},
		{"unknown symbol", "XEX\nX#X\n", ErrInvalidSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseString(tt.name, tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseString() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "maze.txt")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	w, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if w.Name() != "maze.txt" {
		t.Errorf("Name() = %q, want maze.txt", w.Name())
	}

	if _, err := Load(filepath.Join(dir, "missing.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want not exist", err)
	}
}

func TestWorld_Oracle(t *testing.T) {
	t.Parallel()

	w, err := ParseString("sample", sample)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if w.CellKind(maze.Pos(-1, 0)) != maze.Wall || w.InBounds(maze.Pos(5, 0)) {
		t.Error("out-of-bounds cells must read as walls")
	}
	food := maze.Pos(1, 3)
	if !w.ConsumeFoodIfPresent(food) {
		t.Fatal("ConsumeFoodIfPresent() = false on food")
	}
	if w.ConsumeFoodIfPresent(food) {
		t.Error("food consumed twice")
	}
	if w.CellKind(food) != maze.Free {
		t.Errorf("CellKind() = %s after consumption, want free", w.CellKind(food))
	}
	if w.RemainingFood() != 0 || w.TotalFoodCount() != 1 {
		t.Errorf("RemainingFood() = %d, TotalFoodCount() = %d", w.RemainingFood(), w.TotalFoodCount())
	}
}

func TestWorld_Clone(t *testing.T) {
	t.Parallel()

	w, err := ParseString("sample", sample)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	c := w.Clone()
	c.ConsumeFoodIfPresent(maze.Pos(1, 3))

	if w.CellKind(maze.Pos(1, 3)) != maze.Food {
		t.Error("consuming food on a clone changed the original")
	}
	if !c.ExitPositions().Has(maze.Pos(3, 2)) {
		t.Error("clone lost its exits")
	}
}

func TestWorld_Render(t *testing.T) {
	t.Parallel()

	w, err := ParseString("sample", sample)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	got := w.Render(maze.Pos(1, 2), maze.East)
	want := strings.Join([]string{
		"XXXXX",
		"XEEoX",
		"XXX_X",
		"XXS_X",
		"XXXXX",
	}, "\n")
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestWorld_Summary(t *testing.T) {
	t.Parallel()

	w, err := ParseString("sample", sample)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	want := "size 5x5, entry (1,1), exits [(3,2)], food 1"
	if got := w.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
