package navigation

import "errors"

// ErrNonAdjacentStep indicates a route contains two consecutive cells that
// are not orthogonal neighbors. Routes produced by FindPath never do.
var ErrNonAdjacentStep = errors.New("route step is not between adjacent cells")
