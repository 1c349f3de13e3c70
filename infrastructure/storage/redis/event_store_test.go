package redis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/maze-agent/domain/event"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage/storetest"
)

func TestEventStore_Keys(t *testing.T) {
	t.Parallel()

	s := NewEventStoreFromClient(nil, "maze:")
	if got := s.eventsKey("run-1"); got != "maze:events:run-1" {
		t.Errorf("eventsKey() = %s, want maze:events:run-1", got)
	}
	if got := s.seqKey("run-1"); got != "maze:seq:run-1" {
		t.Errorf("seqKey() = %s, want maze:seq:run-1", got)
	}
	if got := s.runsKey(); got != "maze:runs" {
		t.Errorf("runsKey() = %s, want maze:runs", got)
	}
}

func TestEventStore_AppendValidatesFirst(t *testing.T) {
	t.Parallel()

	// A nil client would panic if Append reached Redis.
	s := NewEventStoreFromClient(nil, "maze:")
	err := s.Append(context.Background(), event.Event{Type: event.TypeRunStarted})
	if !errors.Is(err, event.ErrInvalidEvent) {
		t.Errorf("Append() error = %v, want ErrInvalidEvent", err)
	}
}

func TestStamp(t *testing.T) {
	t.Parallel()

	events := []event.Event{
		{ID: "a", RunID: "run-1", Type: event.TypeAgentMoved},
		{ID: "b", RunID: "run-1", Type: event.TypeFoodCollected},
	}
	data, err := stamp(events, 7)
	if err != nil {
		t.Fatalf("stamp() error = %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("stamp() = %d payloads, want 2", len(data))
	}
	for i, raw := range data {
		var got event.Event
		if err := json.Unmarshal(raw.([]byte), &got); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if want := uint64(8 + i); got.Sequence != want {
			t.Errorf("payload %d Sequence = %d, want %d", i, got.Sequence, want)
		}
		if got.ID != events[i].ID {
			t.Errorf("payload %d ID = %s, want %s", i, got.ID, events[i].ID)
		}
	}
	if events[0].Sequence != 0 {
		t.Errorf("stamp() mutated its input: Sequence = %d", events[0].Sequence)
	}
}

func TestEventStore_wrapError(t *testing.T) {
	t.Parallel()

	s := NewEventStoreFromClient(nil, "")
	if err := s.wrapError(nil); err != nil {
		t.Errorf("wrapError(nil) = %v, want nil", err)
	}
	if err := s.wrapError(context.Canceled); !errors.Is(err, context.Canceled) || errors.Is(err, event.ErrConnectionFailed) {
		t.Errorf("wrapError(Canceled) = %v, want the context error", err)
	}
	if err := s.wrapError(errors.New("dial tcp: refused")); !errors.Is(err, event.ErrConnectionFailed) {
		t.Errorf("wrapError() = %v, want ErrConnectionFailed", err)
	}
}

// TestEventStore_Integration runs against MAZE_REDIS_ADDR when set.
func TestEventStore_Integration(t *testing.T) {
	addr := os.Getenv("MAZE_REDIS_ADDR")
	if addr == "" {
		t.Skip("MAZE_REDIS_ADDR not set")
	}

	storetest.Run(t, func(t *testing.T) event.Store {
		prefix := "maze-test:" + uuid.New().String() + ":"
		s, err := NewEventStore(context.Background(), DefaultConfig(), WithAddress(addr), WithKeyPrefix(prefix))
		if err != nil {
			t.Fatalf("NewEventStore() error = %v", err)
		}
		t.Cleanup(func() {
			ctx := context.Background()
			if keys, err := s.client.Keys(ctx, prefix+"*").Result(); err == nil && len(keys) > 0 {
				_ = s.client.Del(ctx, keys...).Err()
			}
			_ = s.Close()
		})
		return s
	})
}

// TestEventStore_ConcurrentAppendsAreDense runs against MAZE_REDIS_ADDR when
// set. Writers racing on one run must leave sequences 1..n without gaps.
func TestEventStore_ConcurrentAppendsAreDense(t *testing.T) {
	addr := os.Getenv("MAZE_REDIS_ADDR")
	if addr == "" {
		t.Skip("MAZE_REDIS_ADDR not set")
	}

	ctx := context.Background()
	prefix := "maze-test:" + uuid.New().String() + ":"
	s, err := NewEventStore(ctx, DefaultConfig(), WithAddress(addr), WithKeyPrefix(prefix))
	if err != nil {
		t.Fatalf("NewEventStore() error = %v", err)
	}
	t.Cleanup(func() {
		if keys, err := s.client.Keys(ctx, prefix+"*").Result(); err == nil && len(keys) > 0 {
			_ = s.client.Del(ctx, keys...).Err()
		}
		_ = s.Close()
	})

	const writers, batches = 4, 10
	var wg sync.WaitGroup
	errs := make(chan error, writers*batches)
	moved := storetest.NewEvent(t, "run-1", event.TypeAgentMoved, event.AgentMovedPayload{})
	blocked := storetest.NewEvent(t, "run-1", event.TypeAgentBlocked, event.AgentBlockedPayload{})
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := 0; b < batches; b++ {
				if err := s.Append(ctx, moved, blocked); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Append() error = %v", err)
	}

	events, err := s.LoadEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadEvents() error = %v", err)
	}
	if len(events) != writers*batches*2 {
		t.Fatalf("LoadEvents() = %d events, want %d", len(events), writers*batches*2)
	}
	for i, e := range events {
		if e.Sequence != uint64(i+1) {
			t.Fatalf("events[%d].Sequence = %d, want %d", i, e.Sequence, i+1)
		}
	}
}
