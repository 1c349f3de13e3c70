package badger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/maze-agent/domain/event"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage/badger"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage/storetest"
)

func newTestEventStore(t *testing.T) *badger.EventStore {
	t.Helper()

	store, err := badger.NewEventStore(badger.DefaultConfig(), badger.WithInMemory())
	if err != nil {
		t.Fatalf("NewEventStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEventStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) event.Store {
		return newTestEventStore(t)
	})
}

func TestEventStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := badger.NewEventStore(badger.DefaultConfig(), badger.WithDir(dir))
	if err != nil {
		t.Fatalf("NewEventStore() error = %v", err)
	}
	if err := store.Append(ctx, storetest.NewEvent(t, "run-1", event.TypeRunStarted, event.RunStartedPayload{})); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := badger.NewEventStore(badger.DefaultConfig(), badger.WithDir(dir))
	if err != nil {
		t.Fatalf("NewEventStore() reopen error = %v", err)
	}
	defer reopened.Close()

	if err := reopened.Append(ctx, storetest.NewEvent(t, "run-1", event.TypeAgentMoved, event.AgentMovedPayload{})); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	loaded, err := reopened.LoadEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadEvents() error = %v", err)
	}
	if len(loaded) != 2 || loaded[1].Sequence != 2 {
		t.Errorf("LoadEvents() = %d events, want 2 with the sequence continued", len(loaded))
	}
}

func TestEventStore_KeyPrefixIsolation(t *testing.T) {
	a := newTestEventStore(t)
	b := badger.NewEventStoreFromDB(a.DB(), "other:")
	ctx := context.Background()

	if err := a.Append(ctx, storetest.NewEvent(t, "run-1", event.TypeRunStarted, event.RunStartedPayload{})); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	runs, err := b.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("ListRuns() under another prefix = %v, want none", runs)
	}
}

func TestEventStore_Closed(t *testing.T) {
	store := newTestEventStore(t)
	_ = store.Close()

	_, err := store.LoadEvents(context.Background(), "run-1")
	if !errors.Is(err, event.ErrStoreClosed) {
		t.Errorf("LoadEvents() after Close error = %v, want ErrStoreClosed", err)
	}
}
