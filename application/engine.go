// Package application runs maze simulations and rebuilds them from their
// recorded events.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/maze-agent/domain/agent"
	"github.com/felixgeelhaar/maze-agent/domain/event"
	"github.com/felixgeelhaar/maze-agent/domain/maze"
	eventpub "github.com/felixgeelhaar/maze-agent/infrastructure/event"
	"github.com/felixgeelhaar/maze-agent/infrastructure/logging"
	"github.com/felixgeelhaar/maze-agent/infrastructure/observability"
	"github.com/felixgeelhaar/maze-agent/infrastructure/statemachine"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage/memory"
	"github.com/felixgeelhaar/maze-agent/infrastructure/telemetry"
	"github.com/felixgeelhaar/maze-agent/infrastructure/world"
)

// DefaultMaxSteps is the step attempt budget when none is configured.
const DefaultMaxSteps = 1000

// Frame is the state handed to a FrameObserver. Result is nil for the
// frame drawn before the first step.
type Frame struct {
	RunID     string
	Attempt   int
	Position  maze.Position
	Heading   maze.Heading
	Steps     int
	Collected int
	Score     int
	Result    *agent.StepResult
}

// FrameObserver receives a frame before the first step and after each step.
type FrameObserver func(Frame)

// Engine drives one agent through a world per Run.
type Engine struct {
	maxSteps   int
	heading    maze.Heading
	targetFood *int
	store      event.Store
	eventBatch int
	metrics    telemetry.Metrics
	tracer     trace.Tracer
	observer   FrameObserver
	frameDelay time.Duration
}

// EngineConfig contains configuration for the engine.
type EngineConfig struct {
	MaxSteps   int
	Heading    maze.Heading
	TargetFood *int
	Store      event.Store
	EventBatch int
	Metrics    telemetry.Metrics
	Tracer     trace.Tracer
	Observer   FrameObserver
	FrameDelay time.Duration
}

// NewEngine creates a new engine with the given configuration.
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.MaxSteps < 0 {
		return nil, fmt.Errorf("%w: negative step budget %d", ErrInvalidConfig, config.MaxSteps)
	}
	if config.Heading != "" && !config.Heading.IsValid() {
		return nil, fmt.Errorf("%w: heading %q", ErrInvalidConfig, config.Heading)
	}
	if config.TargetFood != nil && *config.TargetFood < 0 {
		return nil, fmt.Errorf("%w: negative food target %d", ErrInvalidConfig, *config.TargetFood)
	}
	if config.EventBatch < 0 {
		return nil, fmt.Errorf("%w: negative event batch %d", ErrInvalidConfig, config.EventBatch)
	}
	if config.FrameDelay < 0 {
		return nil, fmt.Errorf("%w: negative frame delay", ErrInvalidConfig)
	}

	e := &Engine{
		maxSteps:   config.MaxSteps,
		heading:    config.Heading,
		targetFood: config.TargetFood,
		store:      config.Store,
		eventBatch: config.EventBatch,
		metrics:    config.Metrics,
		tracer:     config.Tracer,
		observer:   config.Observer,
		frameDelay: config.FrameDelay,
	}

	// Set defaults
	if e.maxSteps == 0 {
		e.maxSteps = DefaultMaxSteps
	}
	if e.heading == "" {
		e.heading = maze.North
	}
	if e.store == nil {
		e.store = memory.NewEventStore()
	}
	if e.metrics == nil {
		e.metrics = &telemetry.NoopMetricsProvider{}
	}
	if e.tracer == nil {
		e.tracer = observability.NewNoopProvider().Tracer()
	}

	return e, nil
}

// Store returns the event store runs are recorded to.
func (e *Engine) Store() event.Store {
	return e.store
}

// MaxSteps returns the step attempt budget.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// Run places a fresh agent on the world's entry and steps it until it is
// finished, the budget runs out, ctx is cancelled or a step fails. The
// world is consumed: food collected here is gone from it afterwards.
//
// The returned run is never nil once the world is valid. The error is nil
// for succeeded and exhausted runs.
func (e *Engine) Run(ctx context.Context, w *world.World) (*agent.Run, error) {
	if w == nil {
		return nil, ErrNilWorld
	}

	opts := []agent.Option{agent.WithHeading(e.heading)}
	if e.targetFood != nil {
		opts = append(opts, agent.WithTargetFood(*e.targetFood))
	}
	a := agent.New(w, opts...)

	run := agent.NewRun(uuid.NewString(), w.Name())
	run.TotalFood = w.TotalFoodCount()
	run.Record(a)

	machine, err := statemachine.NewRunMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(run, a, e.maxSteps))
	interp.Start()
	defer interp.Stop()

	ctx, span := observability.StartRunSpan(ctx, e.tracer, run.ID, run.MapName)
	e.metrics.IncrementActiveRuns(ctx)
	defer e.metrics.DecrementActiveRuns(ctx)

	if err := interp.Transition(agent.RunStatusRunning, nil); err != nil {
		observability.EndSpan(span, err)
		return run, err
	}

	logging.Info().
		Add(logging.RunID(run.ID)).
		Add(logging.MapName(run.MapName)).
		Add(logging.Position(a.Position())).
		Add(logging.Heading(a.Heading())).
		Add(logging.Food(0, a.TargetFood())).
		Msg("run started")

	pub := eventpub.NewPublisher(e.store, eventpub.WithBufferSize(e.eventBatch))
	status, cause := e.loop(ctx, pub, run, a, w)

	// Terminal bookkeeping outlives a cancelled run context.
	finishCtx := context.WithoutCancel(ctx)
	if err := interp.Transition(status, cause); err != nil {
		e.metrics.RecordError(finishCtx, "transition")
		observability.EndSpan(span, err)
		return run, errors.Join(cause, err)
	}

	recErr := e.record(finishCtx, pub, run.ID, recordedEvent{event.TypeRunFinished, event.RunFinishedPayload{
		Status:    run.Status,
		Attempts:  run.Attempts,
		Steps:     run.Steps,
		Collected: run.Collected,
		TotalFood: run.TotalFood,
		Score:     run.Score,
		Position:  run.Position,
		Error:     run.Error,
		Duration:  run.Duration(),
	}})
	if recErr == nil {
		recErr = e.flush(finishCtx, pub, run.ID)
	}

	e.metrics.RecordRun(finishCtx, run.Status.String(), run.Score, run.Duration())
	observability.RecordRun(span, run)
	observability.EndSpan(span, cause)

	e.logFinish(run, cause)
	return run, errors.Join(cause, recErr)
}

// loop steps the agent and returns the terminal status and its cause.
func (e *Engine) loop(ctx context.Context, pub *eventpub.Publisher, run *agent.Run, a *agent.Agent, w *world.World) (agent.RunStatus, error) {
	if err := e.record(context.WithoutCancel(ctx), pub, run.ID, recordedEvent{event.TypeRunStarted, event.RunStartedPayload{
		MapName:    run.MapName,
		Rows:       w.Rows(),
		Cols:       w.Cols(),
		Entry:      a.Position(),
		Heading:    a.Heading(),
		TargetFood: a.TargetFood(),
		TotalFood:  run.TotalFood,
		MaxSteps:   e.maxSteps,
	}}); err != nil {
		return agent.RunStatusFailed, err
	}

	e.observe(run, a, nil)

	for run.Attempts < e.maxSteps {
		if a.Finished() {
			return agent.RunStatusSucceeded, nil
		}
		if err := ctx.Err(); err != nil {
			return agent.RunStatusCancelled, err
		}

		run.Attempts++
		res, err := e.step(ctx, pub, run, a)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return agent.RunStatusCancelled, ctxErr
			}
			return agent.RunStatusFailed, err
		}
		e.observe(run, a, &res)

		if err := e.pause(ctx); err != nil {
			return agent.RunStatusCancelled, err
		}
	}

	if a.Finished() {
		return agent.RunStatusSucceeded, nil
	}
	return agent.RunStatusExhausted, nil
}

// step runs one agent step inside a span and records what it did.
func (e *Engine) step(ctx context.Context, pub *eventpub.Publisher, run *agent.Run, a *agent.Agent) (agent.StepResult, error) {
	ctx, span := observability.StartStepSpan(ctx, e.tracer, run.Attempts)

	res, err := a.Step()
	if err != nil {
		e.metrics.RecordError(ctx, "step")
		logging.Error().
			Add(logging.RunID(run.ID)).
			Add(logging.Position(a.Position())).
			Add(logging.ErrorField(err)).
			Msg("step failed")
		observability.EndSpan(span, err)
		return res, err
	}
	observability.RecordStep(span, res)

	events := make([]recordedEvent, 0, 3)
	if d := res.Decision; d != nil {
		events = append(events, recordedEvent{event.TypePlanInstalled, event.PlanInstalledPayload{
			Target:   d.Target,
			Path:     d.Path,
			Headings: d.Headings,
		}})
		e.metrics.RecordPlan(ctx, d.Target.String(), len(d.Headings))
		logging.Debug().
			Add(logging.RunID(run.ID)).
			Add(logging.Target(d.Target)).
			Add(logging.PlanLength(len(d.Headings))).
			Msg("plan installed")
	}

	switch {
	case res.Moved:
		events = append(events, recordedEvent{event.TypeAgentMoved, event.AgentMovedPayload{
			From:    res.From,
			To:      res.To,
			Heading: res.Heading,
			Source:  res.Source,
			Steps:   a.Steps(),
		}})
	case res.Blocked():
		events = append(events, recordedEvent{event.TypeAgentBlocked, event.AgentBlockedPayload{
			At:      res.From,
			Heading: res.Heading,
			Source:  res.Source,
		}})
		logging.Debug().
			Add(logging.RunID(run.ID)).
			Add(logging.Position(res.From)).
			Add(logging.Heading(res.Heading)).
			Add(logging.Source(res.Source)).
			Msg("agent blocked")
	}

	if res.Ate {
		events = append(events, recordedEvent{event.TypeFoodCollected, event.FoodCollectedPayload{
			At:        res.To,
			Collected: a.Collected(),
			Target:    a.TargetFood(),
		}})
		e.metrics.RecordFoodCollected(ctx, run.MapName)
		logging.Info().
			Add(logging.RunID(run.ID)).
			Add(logging.Position(res.To)).
			Add(logging.Food(a.Collected(), a.TargetFood())).
			Msg("food collected")
	}

	e.metrics.RecordStep(ctx, res.Source.String(), res.Moved)

	if err := e.record(ctx, pub, run.ID, events...); err != nil {
		observability.EndSpan(span, err)
		return res, err
	}
	observability.EndSpan(span, nil)
	return res, nil
}

// recordedEvent is an event type and payload not yet stamped for a run.
type recordedEvent struct {
	typ     event.Type
	payload any
}

// record stamps events for a run and hands them to the publisher as one
// batch.
func (e *Engine) record(ctx context.Context, pub *eventpub.Publisher, runID string, pending ...recordedEvent) error {
	if len(pending) == 0 {
		return nil
	}

	events := make([]event.Event, 0, len(pending))
	for _, p := range pending {
		evt, err := event.NewEvent(runID, p.typ, p.payload)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRecordFailed, err)
		}
		evt.ID = uuid.NewString()
		events = append(events, evt)
	}

	if err := pub.Publish(ctx, events...); err != nil {
		return e.recordFailed(ctx, runID, err)
	}
	return nil
}

// flush writes events still buffered for a run.
func (e *Engine) flush(ctx context.Context, pub *eventpub.Publisher, runID string) error {
	if err := pub.Flush(ctx); err != nil {
		return e.recordFailed(ctx, runID, err)
	}
	return nil
}

func (e *Engine) recordFailed(ctx context.Context, runID string, err error) error {
	e.metrics.RecordError(ctx, "record")
	logging.Error().
		Add(logging.RunID(runID)).
		Add(logging.ErrorField(err)).
		Msg("failed to record events")
	return fmt.Errorf("%w: %w", ErrRecordFailed, err)
}

func (e *Engine) observe(run *agent.Run, a *agent.Agent, res *agent.StepResult) {
	if e.observer == nil {
		return
	}
	e.observer(Frame{
		RunID:     run.ID,
		Attempt:   run.Attempts,
		Position:  a.Position(),
		Heading:   a.Heading(),
		Steps:     a.Steps(),
		Collected: a.Collected(),
		Score:     a.Score(),
		Result:    res,
	})
}

// pause waits for the frame delay or until ctx is done.
func (e *Engine) pause(ctx context.Context) error {
	if e.frameDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(e.frameDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) logFinish(run *agent.Run, cause error) {
	switch run.Status {
	case agent.RunStatusExhausted:
		logging.Warn().
			Add(logging.RunID(run.ID)).
			Add(logging.Steps(run.Attempts)).
			Add(logging.Position(run.Position)).
			Msg("step budget exhausted; the agent may be stuck in a loop")
	case agent.RunStatusFailed, agent.RunStatusCancelled:
		logging.Error().
			Add(logging.RunID(run.ID)).
			Add(logging.Status(run.Status)).
			Add(logging.ErrorField(cause)).
			Msg("run stopped")
		return
	}

	logging.Info().
		Add(logging.RunID(run.ID)).
		Add(logging.Status(run.Status)).
		Add(logging.Food(run.Collected, run.TotalFood)).
		Add(logging.Steps(run.Steps)).
		Add(logging.Score(run.Score)).
		Add(logging.Duration(run.Duration())).
		Msg("run completed")
}
