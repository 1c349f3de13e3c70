// Package storetest checks event.Store implementations against shared
// expectations.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/maze-agent/domain/event"
)

// Factory returns an empty store. Cleanup belongs to the factory.
type Factory func(t *testing.T) event.Store

// NewEvent builds a valid event for runID.
func NewEvent(t *testing.T, runID string, typ event.Type, payload any) event.Event {
	t.Helper()

	e, err := event.NewEvent(runID, typ, payload)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	e.Timestamp = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return e
}

// Run exercises the behavior every backend shares.
func Run(t *testing.T, newStore Factory) {
	t.Run("append assigns sequences per run", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.Append(ctx,
			NewEvent(t, "run-a", event.TypeRunStarted, event.RunStartedPayload{MapName: "a"}),
			NewEvent(t, "run-a", event.TypeAgentMoved, event.AgentMovedPayload{Steps: 1}),
			NewEvent(t, "run-b", event.TypeRunStarted, event.RunStartedPayload{MapName: "b"}),
		)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if err := s.Append(ctx, NewEvent(t, "run-a", event.TypeRunFinished, event.RunFinishedPayload{Status: "succeeded"})); err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		loaded, err := s.LoadEvents(ctx, "run-a")
		if err != nil {
			t.Fatalf("LoadEvents() error = %v", err)
		}
		if len(loaded) != 3 {
			t.Fatalf("LoadEvents() returned %d events, want 3", len(loaded))
		}
		wantTypes := []event.Type{event.TypeRunStarted, event.TypeAgentMoved, event.TypeRunFinished}
		for i, e := range loaded {
			if e.Sequence != uint64(i+1) {
				t.Errorf("events[%d].Sequence = %d, want %d", i, e.Sequence, i+1)
			}
			if e.Type != wantTypes[i] {
				t.Errorf("events[%d].Type = %s, want %s", i, e.Type, wantTypes[i])
			}
			if e.ID == "" {
				t.Errorf("events[%d].ID is empty", i)
			}
		}

		var moved event.AgentMovedPayload
		if err := loaded[1].UnmarshalPayload(&moved); err != nil {
			t.Fatalf("UnmarshalPayload() error = %v", err)
		}
		if moved.Steps != 1 {
			t.Errorf("payload Steps = %d, want 1", moved.Steps)
		}

		other, err := s.LoadEvents(ctx, "run-b")
		if err != nil {
			t.Fatalf("LoadEvents() error = %v", err)
		}
		if len(other) != 1 || other[0].Sequence != 1 {
			t.Errorf("LoadEvents(run-b) = %+v, want one event with sequence 1", other)
		}
	})

	t.Run("load from sequence", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i := 1; i <= 4; i++ {
			e := NewEvent(t, "run-from", event.TypeAgentMoved, event.AgentMovedPayload{Steps: i})
			if err := s.Append(ctx, e); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}

		loaded, err := s.LoadEventsFrom(ctx, "run-from", 3)
		if err != nil {
			t.Fatalf("LoadEventsFrom() error = %v", err)
		}
		if len(loaded) != 2 || loaded[0].Sequence != 3 || loaded[1].Sequence != 4 {
			t.Errorf("LoadEventsFrom(3) = %d events, want sequences 3 and 4", len(loaded))
		}
	})

	t.Run("unknown run is empty", func(t *testing.T) {
		s := newStore(t)

		loaded, err := s.LoadEvents(context.Background(), "missing")
		if err != nil {
			t.Fatalf("LoadEvents() error = %v", err)
		}
		if len(loaded) != 0 {
			t.Errorf("LoadEvents() = %d events, want 0", len(loaded))
		}
	})

	t.Run("invalid event rejects the batch", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.Append(ctx,
			NewEvent(t, "run-bad", event.TypeRunStarted, event.RunStartedPayload{}),
			event.Event{RunID: "run-bad", Type: "bogus"},
		)
		if !errors.Is(err, event.ErrInvalidEvent) {
			t.Fatalf("Append() error = %v, want ErrInvalidEvent", err)
		}

		loaded, err := s.LoadEvents(ctx, "run-bad")
		if err != nil {
			t.Fatalf("LoadEvents() error = %v", err)
		}
		if len(loaded) != 0 {
			t.Errorf("LoadEvents() = %d events after a rejected batch, want 0", len(loaded))
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := s.Append(ctx, NewEvent(t, "run-c", event.TypeRunStarted, event.RunStartedPayload{})); err == nil {
			t.Error("Append() with cancelled context error = nil")
		}
	})

	t.Run("querier", func(t *testing.T) {
		s := newStore(t)
		q, ok := s.(event.Querier)
		if !ok {
			t.Skip("store does not implement event.Querier")
		}
		ctx := context.Background()

		for _, runID := range []string{"run-2", "run-1", "run-2"} {
			if err := s.Append(ctx, NewEvent(t, runID, event.TypeAgentMoved, event.AgentMovedPayload{})); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}

		count, err := q.CountEvents(ctx, "run-2")
		if err != nil {
			t.Fatalf("CountEvents() error = %v", err)
		}
		if count != 2 {
			t.Errorf("CountEvents(run-2) = %d, want 2", count)
		}

		runs, err := q.ListRuns(ctx)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 2 || runs[0] != "run-1" || runs[1] != "run-2" {
			t.Errorf("ListRuns() = %v, want [run-1 run-2]", runs)
		}
	})
}
