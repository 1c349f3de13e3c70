package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/felixgeelhaar/maze-agent/application"
	"github.com/felixgeelhaar/maze-agent/domain/agent"
	"github.com/felixgeelhaar/maze-agent/domain/event"
	"github.com/felixgeelhaar/maze-agent/domain/maze"
	"github.com/felixgeelhaar/maze-agent/infrastructure/observability"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage/memory"
	"github.com/felixgeelhaar/maze-agent/infrastructure/world"
)

const sampleMap = `XXXXX
XE_oX
XXX_X
XXS_X
XXXXX
`

const boxedMap = `XXX
XEX
XXX
`

func newWorld(t *testing.T, layout string) *world.World {
	t.Helper()
	w, err := world.ParseString("test", layout)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return w
}

func newEngine(t *testing.T, opts ...application.Option) *application.Engine {
	t.Helper()
	e, err := application.NewEngineWithOptions(opts...)
	if err != nil {
		t.Fatalf("NewEngineWithOptions() error = %v", err)
	}
	return e
}

func countTypes(events []event.Event) map[event.Type]int {
	counts := make(map[event.Type]int)
	for _, e := range events {
		counts[e.Type]++
	}
	return counts
}

// failingStore rejects every append.
type failingStore struct {
	err error
}

func (s *failingStore) Append(context.Context, ...event.Event) error { return s.err }

func (s *failingStore) LoadEvents(context.Context, string) ([]event.Event, error) {
	return nil, s.err
}

func (s *failingStore) LoadEventsFrom(context.Context, string, uint64) ([]event.Event, error) {
	return nil, s.err
}

// countingStore counts the Append calls that reach a memory store.
type countingStore struct {
	*memory.EventStore
	mu      sync.Mutex
	appends int
}

func (s *countingStore) Append(ctx context.Context, events ...event.Event) error {
	s.mu.Lock()
	s.appends++
	s.mu.Unlock()
	return s.EventStore.Append(ctx, events...)
}

// recordingMetrics counts the calls the engine makes.
type recordingMetrics struct {
	mu      sync.Mutex
	steps   int
	food    int
	plans   int
	errors  []string
	runs    []string
	active  int
	maxLive int
}

func (m *recordingMetrics) RecordStep(context.Context, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps++
}

func (m *recordingMetrics) RecordFoodCollected(context.Context, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.food++
}

func (m *recordingMetrics) RecordPlan(context.Context, string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans++
}

func (m *recordingMetrics) RecordError(_ context.Context, op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, op)
}

func (m *recordingMetrics) RecordRun(_ context.Context, status string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, status)
}

func (m *recordingMetrics) IncrementActiveRuns(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active++
	if m.active > m.maxLive {
		m.maxLive = m.active
	}
}

func (m *recordingMetrics) DecrementActiveRuns(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active--
}

func TestNewEngine_Defaults(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	if e.MaxSteps() != application.DefaultMaxSteps {
		t.Errorf("MaxSteps() = %d, want %d", e.MaxSteps(), application.DefaultMaxSteps)
	}
	if e.Store() == nil {
		t.Error("Store() = nil, want an in-memory store")
	}
}

func TestNewEngine_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []application.Option
	}{
		{"negative steps", []application.Option{application.WithMaxSteps(-1)}},
		{"bad heading", []application.Option{application.WithHeading("L")}},
		{"negative food", []application.Option{application.WithTargetFood(-2)}},
		{"negative delay", []application.Option{application.WithFrameDelay(-time.Second)}},
		{"negative batch", []application.Option{application.WithEventBatch(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := application.NewEngineWithOptions(tt.opts...)
			if !errors.Is(err, application.ErrInvalidConfig) {
				t.Errorf("NewEngineWithOptions() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestEngine_RunNilWorld(t *testing.T) {
	t.Parallel()

	_, err := newEngine(t).Run(context.Background(), nil)
	if !errors.Is(err, application.ErrNilWorld) {
		t.Errorf("Run() error = %v, want ErrNilWorld", err)
	}
}

func TestEngine_RunSucceeds(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	metrics := &recordingMetrics{}
	e := newEngine(t, application.WithStore(store), application.WithMetrics(metrics))

	run, err := e.Run(context.Background(), newWorld(t, sampleMap))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if run.Status != agent.RunStatusSucceeded {
		t.Errorf("Status = %s, want succeeded", run.Status)
	}
	if run.Collected != 1 || run.TotalFood != 1 {
		t.Errorf("food = %d/%d, want 1/1", run.Collected, run.TotalFood)
	}
	if run.Steps != 5 {
		t.Errorf("Steps = %d, want 5", run.Steps)
	}
	if run.Score != 5 {
		t.Errorf("Score = %d, want 5", run.Score)
	}
	if run.Position != maze.Pos(3, 2) {
		t.Errorf("Position = %s, want (3,2)", run.Position)
	}
	if run.Attempts < run.Steps {
		t.Errorf("Attempts = %d, want at least %d", run.Attempts, run.Steps)
	}
	if run.EndTime.IsZero() {
		t.Error("EndTime is zero")
	}

	events, err := store.LoadEvents(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("LoadEvents() error = %v", err)
	}
	if events[0].Type != event.TypeRunStarted {
		t.Errorf("first event = %s, want run.started", events[0].Type)
	}
	if last := events[len(events)-1]; last.Type != event.TypeRunFinished {
		t.Errorf("last event = %s, want run.finished", last.Type)
	}
	counts := countTypes(events)
	if counts[event.TypeAgentMoved] != 5 {
		t.Errorf("agent.moved = %d, want 5", counts[event.TypeAgentMoved])
	}
	if counts[event.TypeFoodCollected] != 1 {
		t.Errorf("food.collected = %d, want 1", counts[event.TypeFoodCollected])
	}
	if counts[event.TypePlanInstalled] == 0 {
		t.Error("no plan.installed events")
	}

	var finished event.RunFinishedPayload
	if err := events[len(events)-1].UnmarshalPayload(&finished); err != nil {
		t.Fatalf("UnmarshalPayload() error = %v", err)
	}
	if finished.Status != agent.RunStatusSucceeded || finished.Score != 5 {
		t.Errorf("run.finished = %+v", finished)
	}

	if metrics.food != 1 {
		t.Errorf("food metric = %d, want 1", metrics.food)
	}
	if metrics.steps != run.Attempts {
		t.Errorf("step metric = %d, want %d", metrics.steps, run.Attempts)
	}
	if metrics.plans != counts[event.TypePlanInstalled] {
		t.Errorf("plan metric = %d, want %d", metrics.plans, counts[event.TypePlanInstalled])
	}
	if len(metrics.runs) != 1 || metrics.runs[0] != "succeeded" {
		t.Errorf("run metric = %v, want [succeeded]", metrics.runs)
	}
	if metrics.active != 0 || metrics.maxLive != 1 {
		t.Errorf("active runs = %d (peak %d), want 0 (peak 1)", metrics.active, metrics.maxLive)
	}
	if len(metrics.errors) != 0 {
		t.Errorf("error metric = %v, want none", metrics.errors)
	}
}

func TestEngine_EventBatch(t *testing.T) {
	t.Parallel()

	direct := &countingStore{EventStore: memory.NewEventStore()}
	want, err := newEngine(t, application.WithStore(direct)).Run(context.Background(), newWorld(t, sampleMap))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	batched := &countingStore{EventStore: memory.NewEventStore()}
	got, err := newEngine(t,
		application.WithStore(batched),
		application.WithEventBatch(100),
	).Run(context.Background(), newWorld(t, sampleMap))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got.Status != want.Status || got.Score != want.Score {
		t.Errorf("batched run = %s/%d, want %s/%d", got.Status, got.Score, want.Status, want.Score)
	}
	if batched.Len() != direct.Len() {
		t.Errorf("batched store has %d events, want %d", batched.Len(), direct.Len())
	}
	if batched.appends != 1 {
		t.Errorf("batched appends = %d, want 1", batched.appends)
	}
	if direct.appends <= batched.appends {
		t.Errorf("direct appends = %d, want more than %d", direct.appends, batched.appends)
	}

	events, err := batched.LoadEvents(context.Background(), got.ID)
	if err != nil {
		t.Fatalf("LoadEvents() error = %v", err)
	}
	if last := events[len(events)-1]; last.Type != event.TypeRunFinished {
		t.Errorf("last event = %s, want run.finished", last.Type)
	}
}

func TestEngine_RunExhausted(t *testing.T) {
	t.Parallel()

	run, err := newEngine(t, application.WithMaxSteps(2)).Run(context.Background(), newWorld(t, sampleMap))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.Status != agent.RunStatusExhausted {
		t.Errorf("Status = %s, want exhausted", run.Status)
	}
	if run.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", run.Attempts)
	}
}

func TestEngine_RunIdleAgent(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	e := newEngine(t, application.WithMaxSteps(5), application.WithStore(store))

	run, err := e.Run(context.Background(), newWorld(t, boxedMap))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.Status != agent.RunStatusExhausted {
		t.Errorf("Status = %s, want exhausted", run.Status)
	}
	if run.Attempts != 5 || run.Steps != 0 {
		t.Errorf("Attempts, Steps = %d, %d, want 5, 0", run.Attempts, run.Steps)
	}

	events, err := store.LoadEvents(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("LoadEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Errorf("recorded %d events, want run.started and run.finished only", len(events))
	}
}

func TestEngine_RunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewEventStore()
	e := newEngine(t,
		application.WithStore(store),
		application.WithFrameObserver(func(f application.Frame) {
			if f.Attempt == 2 {
				cancel()
			}
		}),
	)

	run, err := e.Run(ctx, newWorld(t, sampleMap))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if run.Status != agent.RunStatusCancelled {
		t.Errorf("Status = %s, want cancelled", run.Status)
	}
	if run.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", run.Attempts)
	}

	events, err := store.LoadEvents(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("LoadEvents() error = %v", err)
	}
	if last := events[len(events)-1]; last.Type != event.TypeRunFinished {
		t.Errorf("last event = %s, want run.finished", last.Type)
	}
}

func TestEngine_FrameDelayHonoursCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := newEngine(t,
		application.WithFrameDelay(time.Hour),
		application.WithFrameObserver(func(f application.Frame) {
			if f.Attempt == 1 {
				cancel()
			}
		}),
	)

	done := make(chan struct{})
	var run *agent.Run
	go func() {
		defer close(done)
		run, _ = e.Run(ctx, newWorld(t, sampleMap))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if run.Status != agent.RunStatusCancelled {
		t.Errorf("Status = %s, want cancelled", run.Status)
	}
}

func TestEngine_FrameObserver(t *testing.T) {
	t.Parallel()

	var frames []application.Frame
	e := newEngine(t, application.WithFrameObserver(func(f application.Frame) {
		frames = append(frames, f)
	}))

	run, err := e.Run(context.Background(), newWorld(t, sampleMap))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(frames) != run.Attempts+1 {
		t.Fatalf("got %d frames, want %d", len(frames), run.Attempts+1)
	}
	first, last := frames[0], frames[len(frames)-1]
	if first.Result != nil || first.Attempt != 0 {
		t.Errorf("first frame = %+v, want the pre-step frame", first)
	}
	if first.Position != maze.Pos(1, 1) || first.Heading != maze.North {
		t.Errorf("first frame at %s facing %s, want (1,1) facing N", first.Position, first.Heading)
	}
	if last.Result == nil || last.Position != run.Position || last.Score != run.Score {
		t.Errorf("last frame = %+v, want final state", last)
	}
	for _, f := range frames {
		if f.RunID != run.ID {
			t.Fatalf("frame RunID = %s, want %s", f.RunID, run.ID)
		}
	}
}

func TestEngine_TargetFoodAndHeading(t *testing.T) {
	t.Parallel()

	var first application.Frame
	seen := false
	e := newEngine(t,
		application.WithTargetFood(0),
		application.WithHeading(maze.East),
		application.WithFrameObserver(func(f application.Frame) {
			if !seen {
				first, seen = f, true
			}
		}),
	)

	run, err := e.Run(context.Background(), newWorld(t, sampleMap))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if first.Heading != maze.East {
		t.Errorf("initial heading = %s, want E", first.Heading)
	}
	if run.Status != agent.RunStatusSucceeded || run.TargetFood != 0 {
		t.Errorf("run = %s with target %d, want succeeded with target 0", run.Status, run.TargetFood)
	}
}

func TestEngine_RecordFailureFailsRun(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("disk full")
	metrics := &recordingMetrics{}
	e := newEngine(t,
		application.WithStore(&failingStore{err: storeErr}),
		application.WithMetrics(metrics),
	)

	run, err := e.Run(context.Background(), newWorld(t, sampleMap))
	if !errors.Is(err, application.ErrRecordFailed) || !errors.Is(err, storeErr) {
		t.Fatalf("Run() error = %v, want ErrRecordFailed wrapping %v", err, storeErr)
	}
	if run.Status != agent.RunStatusFailed {
		t.Errorf("Status = %s, want failed", run.Status)
	}
	if run.Error == "" {
		t.Error("run.Error is empty")
	}
	if len(metrics.errors) == 0 {
		t.Error("no error metric recorded")
	}
}

func TestEngine_Spans(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	e := newEngine(t, application.WithTracer(tp.Tracer("test")))

	run, err := e.Run(context.Background(), newWorld(t, sampleMap))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var runs, steps int
	for _, s := range sr.Ended() {
		switch s.Name() {
		case observability.SpanRun:
			runs++
		case observability.SpanStep:
			steps++
		}
	}
	if runs != 1 {
		t.Errorf("run spans = %d, want 1", runs)
	}
	if steps != run.Attempts {
		t.Errorf("step spans = %d, want %d", steps, run.Attempts)
	}
}

func TestEngine_RunsAreIndependent(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	first, err := e.Run(context.Background(), newWorld(t, sampleMap))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := e.Run(context.Background(), newWorld(t, sampleMap))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if first.ID == second.ID {
		t.Error("runs share an ID")
	}
	if first.Score != second.Score {
		t.Errorf("scores differ: %d vs %d", first.Score, second.Score)
	}
}
