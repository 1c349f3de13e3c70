package maze

import "errors"

// Domain errors for the grid vocabulary.
var (
	// ErrInvalidHeading indicates a heading string could not be parsed.
	ErrInvalidHeading = errors.New("invalid heading")
)
