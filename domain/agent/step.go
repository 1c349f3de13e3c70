package agent

import (
	"sort"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
)

// Source identifies what chose the heading of a step.
type Source string

const (
	SourcePlan    Source = "plan"             // Popped from the active plan
	SourceExplore Source = "explore-fallback" // Unknown neighbor
	SourceKnown   Source = "known-fallback"   // Known non-wall neighbor
	SourceIdle    Source = "idle"             // Nowhere to go
)

// String returns the string representation of the source.
func (s Source) String() string {
	return string(s)
}

// StepResult describes one call to Step.
type StepResult struct {
	Source   Source        `json:"source"`
	Heading  maze.Heading  `json:"heading,omitempty"`
	From     maze.Position `json:"from"`
	To       maze.Position `json:"to"`
	Moved    bool          `json:"moved"`
	Ate      bool          `json:"ate"`
	Decision *Decision     `json:"decision,omitempty"`
}

// Blocked reports whether a move was attempted into a wall.
func (r StepResult) Blocked() bool {
	return r.Source != SourceIdle && !r.Moved
}

// Step advances the agent by one action. With an empty plan the selection
// policy runs first; without a plan the fallbacks pick a single heading.
// A bump into a wall is not an error: it consumes the heading and leaves the
// step count unchanged. The only error is a defective route.
func (a *Agent) Step() (StepResult, error) {
	res := StepResult{From: a.position, To: a.position}

	if len(a.plan) == 0 {
		d, err := a.selectPlan()
		if err != nil {
			return res, err
		}
		if d.Installed() {
			a.plan = d.Headings
			res.Decision = &d
		}
	}

	var h maze.Heading
	if len(a.plan) > 0 {
		h = a.plan[0]
		a.plan = a.plan[1:]
		res.Source = SourcePlan
	} else {
		var ok bool
		h, res.Source, ok = a.fallback()
		if !ok {
			return res, nil
		}
	}

	res.Heading = h
	res.Moved, res.Ate = a.move(h)
	res.To = a.position
	return res, nil
}

// move faces h and walks one cell if ground truth allows it.
func (a *Agent) move(h maze.Heading) (moved, ate bool) {
	a.heading = h
	next := a.position.Add(h)
	if a.oracle.CellKind(next) == maze.Wall {
		return false, false
	}
	prev := a.position
	a.position = next
	a.steps++
	if a.oracle.ConsumeFoodIfPresent(next) {
		a.collected++
		ate = true
	}
	a.last = &prev
	a.perceive()
	return true, ate
}

// fallback picks an unknown neighbor first and a known non-wall neighbor
// second, both in anti-bounce order.
func (a *Agent) fallback() (maze.Heading, Source, bool) {
	order := a.antiBounceOrder()
	for _, h := range order {
		if !a.memory.Known(a.position.Add(h)) {
			return h, SourceExplore, true
		}
	}
	for _, h := range order {
		if k, ok := a.memory.Lookup(a.position.Add(h)); ok && k != maze.Wall {
			return h, SourceKnown, true
		}
	}
	return "", SourceIdle, false
}

// antiBounceOrder returns the headings toward non-wall neighbors sorted by
// (leads back to the last cell, visit count), ties kept in heading order.
func (a *Agent) antiBounceOrder() []maze.Heading {
	type candidate struct {
		heading maze.Heading
		back    int
		visits  int
	}

	cands := make([]candidate, 0, 4)
	for _, h := range maze.Headings() {
		q := a.position.Add(h)
		if a.oracle.CellKind(q) == maze.Wall {
			continue
		}
		c := candidate{heading: h, visits: a.memory.Visits(q)}
		if a.last != nil && *a.last == q {
			c.back = 1
		}
		cands = append(cands, c)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].back != cands[j].back {
			return cands[i].back < cands[j].back
		}
		return cands[i].visits < cands[j].visits
	})

	out := make([]maze.Heading, len(cands))
	for i, c := range cands {
		out[i] = c.heading
	}
	return out
}
