package agent

import (
	"testing"

	"github.com/felixgeelhaar/maze-agent/domain/maze"
	"github.com/felixgeelhaar/maze-agent/domain/maze/mazetest"
	"github.com/felixgeelhaar/maze-agent/domain/navigation"
)

// stepUntilFinished drives the agent with a safety bound.
func stepUntilFinished(t *testing.T, a *Agent, limit int) {
	t.Helper()
	for i := 0; i < limit && !a.Finished(); i++ {
		if _, err := a.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}
}

// learnAt merges a perception taken at p, as if the agent had stood there.
func learnAt(a *Agent, g *mazetest.Grid, p maze.Position) {
	a.memory.Merge(g, maze.Sense(g, p, maze.North))
}

func TestNew(t *testing.T) {
	t.Parallel()

	g := mazetest.New(
		"XXXXX",
		"XE_oX",
		"XXXSX",
	)
	a := New(g)

	if a.Position() != maze.Pos(1, 1) {
		t.Errorf("Position() = %s, want (1,1)", a.Position())
	}
	if a.Heading() != maze.North {
		t.Errorf("Heading() = %s, want N", a.Heading())
	}
	if a.TargetFood() != 1 {
		t.Errorf("TargetFood() = %d, want 1", a.TargetFood())
	}
	if a.Steps() != 0 || a.Collected() != 0 {
		t.Errorf("counters = %d/%d, want 0/0", a.Steps(), a.Collected())
	}
	if a.Memory().Len() != 9 {
		t.Errorf("Memory().Len() = %d, want 9 after the first reading", a.Memory().Len())
	}
	if a.Memory().Visits(a.Position()) != 1 {
		t.Errorf("Visits(entry) = %d, want 1", a.Memory().Visits(a.Position()))
	}
	if _, ok := a.Last(); ok {
		t.Error("Last() ok = true before any move")
	}
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	g := mazetest.New("XXX", "XEX", "XSX")
	a := New(g, WithHeading(maze.East), WithTargetFood(3))

	if a.Heading() != maze.East {
		t.Errorf("Heading() = %s, want E", a.Heading())
	}
	if a.TargetFood() != 3 {
		t.Errorf("TargetFood() = %d, want 3", a.TargetFood())
	}

	b := New(g, WithHeading(maze.Heading("Q")), WithTargetFood(-1))
	if b.Heading() != maze.North || b.TargetFood() != 0 {
		t.Errorf("invalid options applied: heading %s, target %d", b.Heading(), b.TargetFood())
	}
}

func TestAgent_Finished(t *testing.T) {
	t.Parallel()

	g := mazetest.New(
		"XXXXX",
		"XE_SX",
		"XXXXX",
	)
	exit := maze.Pos(1, 3)

	tests := []struct {
		name      string
		collected int
		at        maze.Position
		want      bool
	}{
		{"quota met on exit", 2, exit, true},
		{"quota met off exit", 2, maze.Pos(1, 2), false},
		{"quota short on exit", 1, exit, false},
		{"quota short off exit", 0, maze.Pos(1, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := New(g, WithTargetFood(2))
			a.collected = tt.collected
			a.position = tt.at
			if got := a.Finished(); got != tt.want {
				t.Errorf("Finished() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAgent_Score(t *testing.T) {
	t.Parallel()

	a := New(mazetest.New("XEX"))
	a.collected = 3
	a.steps = 12
	if got := a.Score(); got != 18 {
		t.Errorf("Score() = %d, want 18", got)
	}
}

func TestAgent_EndToEnd(t *testing.T) {
	t.Parallel()

	g := mazetest.New(
		"XXXXX",
		"XE_oX",
		"XXX_X",
		"XXS_X",
		"XXXXX",
	)
	a := New(g)
	stepUntilFinished(t, a, 100)

	if !a.Finished() {
		t.Fatal("agent did not finish")
	}
	if a.Collected() != 1 {
		t.Errorf("Collected() = %d, want 1", a.Collected())
	}
	if a.Steps() != 5 {
		t.Errorf("Steps() = %d, want 5", a.Steps())
	}
	if a.Position() != maze.Pos(3, 2) {
		t.Errorf("Position() = %s, want the exit (3,2)", a.Position())
	}
	if len(g.Consumed) != 1 {
		t.Errorf("food consumed %d times, want exactly once", len(g.Consumed))
	}
}

func TestAgent_FinishesLargerMaze(t *testing.T) {
	t.Parallel()

	g := mazetest.New(
		"XXXXXXXXXX",
		"XE__X___oX",
		"X_X_X_XX_X",
		"X_Xo__X__X",
		"X_XXX_X_XX",
		"Xo____X__S",
		"XXXXXXXXXX",
	)
	a := New(g)
	stepUntilFinished(t, a, 1000)

	if !a.Finished() {
		t.Fatalf("agent did not finish: at %s with %d/%d food", a.Position(), a.Collected(), a.TargetFood())
	}
	if a.Collected() != g.TotalFoodCount() {
		t.Errorf("Collected() = %d, want %d", a.Collected(), g.TotalFoodCount())
	}
}

func TestAgent_KnowledgeOnlyGrows(t *testing.T) {
	t.Parallel()

	g := mazetest.New(
		"XXXXXXXXXX",
		"XE__X___oX",
		"X_X_X_XX_X",
		"X_Xo__X__X",
		"X_XXX_X_XX",
		"Xo____X__S",
		"XXXXXXXXXX",
	)
	a := New(g)

	seen := make(map[maze.Position]bool)
	for i := 0; i < 1000 && !a.Finished(); i++ {
		if _, err := a.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		for p := range seen {
			if !a.memory.Known(p) {
				t.Fatalf("step %d: %s dropped from memory", i+1, p)
			}
		}
		a.memory.Each(func(p maze.Position, kind maze.CellKind) {
			seen[p] = true
			if truth := g.CellKind(p); kind != truth {
				t.Errorf("step %d: memory at %s = %s, want %s", i+1, p, kind, truth)
			}
		})
	}

	if !a.Finished() {
		t.Fatalf("agent did not finish: at %s with %d/%d food", a.Position(), a.Collected(), a.TargetFood())
	}
	if a.memory.Len() != len(seen) {
		t.Errorf("memory.Len() = %d, want %d", a.memory.Len(), len(seen))
	}
}

func TestAgent_StepIdleWhenBoxedIn(t *testing.T) {
	t.Parallel()

	a := New(mazetest.New("XXX", "XEX", "XXX"))
	res, err := a.Step()
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if res.Source != SourceIdle || res.Moved || res.Blocked() {
		t.Errorf("Step() = %+v, want idle", res)
	}
	if a.Steps() != 0 {
		t.Errorf("Steps() = %d, want 0", a.Steps())
	}
}

func TestAgent_PlanPrefersFood(t *testing.T) {
	t.Parallel()

	g := mazetest.New(
		"XXXXXXX",
		"X_oE__X",
		"XXXXXXX",
	)
	a := New(g)
	res, err := a.Step()
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if res.Decision == nil || res.Decision.Target != navigation.TargetFood {
		t.Fatalf("Step().Decision = %+v, want a food plan", res.Decision)
	}
	if res.Heading != maze.West || !res.Ate {
		t.Errorf("Step() = %+v, want to eat west", res)
	}
	if a.Collected() != 1 {
		t.Errorf("Collected() = %d, want 1", a.Collected())
	}
}

func TestAgent_ExitOnlyAfterQuota(t *testing.T) {
	t.Parallel()

	g := mazetest.New(
		"XXXXX",
		"XE_SX",
		"XXXXX",
	)
	a := New(g, WithTargetFood(1))
	learnAt(a, g, maze.Pos(1, 2))
	learnAt(a, g, maze.Pos(1, 3))

	d, err := a.selectPlan()
	if err != nil {
		t.Fatalf("selectPlan() error = %v", err)
	}
	if d.Target != navigation.TargetNone {
		t.Errorf("selectPlan() target = %s before quota, want none", d.Target)
	}

	a.collected = 1
	d, err = a.selectPlan()
	if err != nil {
		t.Fatalf("selectPlan() error = %v", err)
	}
	if d.Target != navigation.TargetExit {
		t.Fatalf("selectPlan() target = %s, want exit", d.Target)
	}
	want := []maze.Heading{maze.East, maze.East}
	if len(d.Headings) != len(want) || d.Headings[0] != want[0] || d.Headings[1] != want[1] {
		t.Errorf("selectPlan() headings = %v, want %v", d.Headings, want)
	}
}

func TestAgent_IntegrityCheckRetriesTier(t *testing.T) {
	t.Parallel()

	g := mazetest.New(
		"XXXXX",
		"XE_oX",
		"X___X",
		"XXXXX",
	)
	a := New(g)
	learnAt(a, g, maze.Pos(1, 2))
	g.Set(maze.Pos(1, 2), maze.Wall)

	d, err := a.selectPlan()
	if err != nil {
		t.Fatalf("selectPlan() error = %v", err)
	}
	if d.Target != navigation.TargetFood {
		t.Fatalf("selectPlan() target = %s, want food", d.Target)
	}
	want := []maze.Heading{maze.South, maze.East, maze.East, maze.North}
	if len(d.Headings) != len(want) {
		t.Fatalf("selectPlan() headings = %v, want %v", d.Headings, want)
	}
	for i := range want {
		if d.Headings[i] != want[i] {
			t.Errorf("headings[%d] = %s, want %s", i, d.Headings[i], want[i])
		}
	}
	if k, _ := a.Memory().Lookup(maze.Pos(1, 2)); k != maze.Wall {
		t.Errorf("Lookup(1,2) = %s, want wall after the check", k)
	}
}

func TestAgent_IntegrityCheckFallsThrough(t *testing.T) {
	t.Parallel()

	g := mazetest.New(
		"XXXXXXX",
		"XE____X",
		"XXXXXXX",
	)
	a := New(g)
	learnAt(a, g, maze.Pos(1, 2))
	learnAt(a, g, maze.Pos(1, 3))
	g.Set(maze.Pos(1, 3), maze.Wall)

	d, err := a.selectPlan()
	if err != nil {
		t.Fatalf("selectPlan() error = %v", err)
	}
	if d.Target != navigation.TargetNone {
		t.Errorf("selectPlan() target = %s, want none", d.Target)
	}
	if k, _ := a.Memory().Lookup(maze.Pos(1, 3)); k != maze.Wall {
		t.Errorf("Lookup(1,3) = %s, want wall", k)
	}
}
