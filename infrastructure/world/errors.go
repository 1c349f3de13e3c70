package world

import "errors"

// Map loading errors. All are fatal: a World is never built from a map that
// fails any of these checks.
var (
	// ErrEmptyMap indicates the file contains no rows.
	ErrEmptyMap = errors.New("map has no rows")

	// ErrRaggedRows indicates rows of different widths.
	ErrRaggedRows = errors.New("map rows differ in width")

	// ErrMissingEntry indicates no entry cell.
	ErrMissingEntry = errors.New("map has no entry")

	// ErrMultipleEntries indicates more than one entry cell.
	ErrMultipleEntries = errors.New("map has more than one entry")

	// ErrInvalidSymbol indicates a character outside the map alphabet.
	ErrInvalidSymbol = errors.New("invalid map symbol")

	// ErrSyntax indicates the file could not be tokenized.
	ErrSyntax = errors.New("malformed map file")
)
