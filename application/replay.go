package application

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/maze-agent/domain/agent"
	"github.com/felixgeelhaar/maze-agent/domain/event"
	"github.com/felixgeelhaar/maze-agent/domain/maze"
	"github.com/felixgeelhaar/maze-agent/domain/navigation"
)

// Replay provides event replay capabilities.
type Replay struct {
	eventStore event.Store
}

// NewReplay creates a new replay engine.
func NewReplay(eventStore event.Store) *Replay {
	return &Replay{
		eventStore: eventStore,
	}
}

// PlanRecord is one installed plan.
type PlanRecord struct {
	Attempt int               `json:"attempt"`
	Target  navigation.Target `json:"target"`
	Length  int               `json:"length"`
}

// Trajectory is a run rebuilt from its events.
type Trajectory struct {
	// Run is the summary; Status stays running if run.finished was never
	// recorded.
	Run *agent.Run `json:"run"`
	// Heading is the initial heading.
	Heading maze.Heading `json:"heading"`
	// Rows and Cols are the map dimensions.
	Rows int `json:"rows"`
	Cols int `json:"cols"`
	// Trail starts at the entry and holds every cell entered, in order.
	Trail []maze.Position `json:"trail"`
	// Food holds the cells where food was eaten.
	Food []maze.Position `json:"food,omitempty"`
	// Plans lists installed plans in order.
	Plans []PlanRecord `json:"plans,omitempty"`
	// Blocked counts bumps into walls.
	Blocked int `json:"blocked"`
	// Events is the number of events replayed.
	Events int `json:"events"`
}

// Complete reports whether the run reached a terminal status.
func (t *Trajectory) Complete() bool {
	return t.Run.Status.IsTerminal()
}

// Reconstruct rebuilds a run's trajectory from its event history.
func (r *Replay) Reconstruct(ctx context.Context, runID string) (*Trajectory, error) {
	events, err := r.eventStore.LoadEvents(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	if len(events) == 0 {
		return nil, event.ErrRunNotFound
	}

	return applyEvents(events)
}

// applyEvents folds events into a trajectory. Events before run.started
// are skipped.
func applyEvents(events []event.Event) (*Trajectory, error) {
	var t *Trajectory
	attempts := 0

	for _, e := range events {
		if t == nil && e.Type != event.TypeRunStarted {
			continue
		}

		switch e.Type {
		case event.TypeRunStarted:
			var payload event.RunStartedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal run.started: %w", err)
			}
			run := agent.NewRun(e.RunID, payload.MapName)
			run.Status = agent.RunStatusRunning
			run.StartTime = e.Timestamp
			run.TargetFood = payload.TargetFood
			run.TotalFood = payload.TotalFood
			run.Position = payload.Entry
			t = &Trajectory{
				Run:     run,
				Heading: payload.Heading,
				Rows:    payload.Rows,
				Cols:    payload.Cols,
				Trail:   []maze.Position{payload.Entry},
			}

		case event.TypePlanInstalled:
			var payload event.PlanInstalledPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal plan.installed: %w", err)
			}
			t.Plans = append(t.Plans, PlanRecord{
				Attempt: attempts + 1,
				Target:  payload.Target,
				Length:  len(payload.Headings),
			})

		case event.TypeAgentMoved:
			var payload event.AgentMovedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal agent.moved: %w", err)
			}
			attempts++
			t.Trail = append(t.Trail, payload.To)
			t.Run.Position = payload.To
			t.Run.Steps = payload.Steps

		case event.TypeAgentBlocked:
			attempts++
			t.Blocked++

		case event.TypeFoodCollected:
			var payload event.FoodCollectedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal food.collected: %w", err)
			}
			t.Food = append(t.Food, payload.At)
			t.Run.Collected = payload.Collected

		case event.TypeRunFinished:
			var payload event.RunFinishedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal run.finished: %w", err)
			}
			t.Run.Status = payload.Status
			t.Run.Attempts = payload.Attempts
			t.Run.Steps = payload.Steps
			t.Run.Collected = payload.Collected
			t.Run.Score = payload.Score
			t.Run.Position = payload.Position
			t.Run.Error = payload.Error
			t.Run.EndTime = e.Timestamp
		}
		t.Events++
	}

	if t == nil {
		return nil, event.ErrRunNotFound
	}

	if !t.Complete() {
		// Idle steps leave no event, so this is a lower bound.
		t.Run.Attempts = attempts
		t.Run.Score = t.Run.Collected*agent.FoodReward - t.Run.Steps
	}
	return t, nil
}

// Timeline provides a time-based view of events.
type Timeline struct {
	events []event.Event
}

// NewTimeline creates a timeline from events.
func (r *Replay) NewTimeline(ctx context.Context, runID string) (*Timeline, error) {
	events, err := r.eventStore.LoadEvents(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	return &Timeline{events: events}, nil
}

// Len returns the number of events.
func (tl *Timeline) Len() int {
	return len(tl.events)
}

// Start returns the timestamp of the first event, or the zero time.
func (tl *Timeline) Start() time.Time {
	if len(tl.events) == 0 {
		return time.Time{}
	}
	return tl.events[0].Timestamp
}

// Duration returns the time between the first and last event.
func (tl *Timeline) Duration() time.Duration {
	if len(tl.events) < 2 {
		return 0
	}
	first := tl.events[0].Timestamp
	last := tl.events[len(tl.events)-1].Timestamp
	return last.Sub(first)
}

// EventsInRange returns events within a time range. A zero bound is open.
func (tl *Timeline) EventsInRange(from, to time.Time) []event.Event {
	var result []event.Event
	for _, e := range tl.events {
		if (from.IsZero() || !e.Timestamp.Before(from)) &&
			(to.IsZero() || !e.Timestamp.After(to)) {
			result = append(result, e)
		}
	}
	return result
}

// EventsByType returns events of a specific type.
func (tl *Timeline) EventsByType(eventType event.Type) []event.Event {
	var result []event.Event
	for _, e := range tl.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

// CountByType returns the number of events per type.
func (tl *Timeline) CountByType() map[event.Type]int {
	counts := make(map[event.Type]int)
	for _, e := range tl.events {
		counts[e.Type]++
	}
	return counts
}
