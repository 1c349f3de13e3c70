package event

import "context"

// Store defines the interface for event persistence.
// Implementations may be in-memory, embedded or networked.
type Store interface {
	// Append persists one or more events atomically.
	// Events are assigned sequence numbers in order of appearance.
	Append(ctx context.Context, events ...Event) error

	// LoadEvents retrieves all events for a run in sequence order.
	LoadEvents(ctx context.Context, runID string) ([]Event, error)

	// LoadEventsFrom retrieves events starting from a specific sequence number.
	LoadEventsFrom(ctx context.Context, runID string, fromSeq uint64) ([]Event, error)
}

// Querier is an optional interface for stores that can enumerate runs.
type Querier interface {
	// CountEvents returns the number of events for a run.
	CountEvents(ctx context.Context, runID string) (int64, error)

	// ListRuns returns all run IDs with events in the store.
	ListRuns(ctx context.Context) ([]string, error)
}
