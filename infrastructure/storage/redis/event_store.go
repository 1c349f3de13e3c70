package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/maze-agent/domain/event"
)

// EventStore is a Redis-backed implementation of event.Store.
//
// Keys:
//
//	prefix + "events:" + runID  list of JSON events in sequence order
//	prefix + "seq:" + runID     last assigned sequence
//	prefix + "runs"             set of run IDs
type EventStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewEventStore connects to Redis and creates an event store.
func NewEventStore(ctx context.Context, cfg Config, opts ...ConfigOption) (*EventStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(event.ErrConnectionFailed, err)
	}

	s := NewEventStoreFromClient(client, cfg.KeyPrefix)
	s.ttl = cfg.TTL
	return s, nil
}

// NewEventStoreFromClient creates an event store from an existing Redis client.
func NewEventStoreFromClient(client *redis.Client, keyPrefix string) *EventStore {
	return &EventStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *EventStore) eventsKey(runID string) string {
	return s.keyPrefix + "events:" + runID
}

func (s *EventStore) seqKey(runID string) string {
	return s.keyPrefix + "seq:" + runID
}

func (s *EventStore) runsKey() string {
	return s.keyPrefix + "runs"
}

// appendAttempts bounds how often Append re-runs its transaction when a
// watched sequence key changes underneath it.
const appendAttempts = 16

// Append persists events. The sequence keys of every run in the batch are
// watched, read and advanced in the same MULTI/EXEC block that pushes the
// events, so a failed or conflicting transaction leaves no gap.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	byRun := make(map[string][]event.Event)
	var order []string
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
		e := events[i]
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if _, ok := byRun[e.RunID]; !ok {
			order = append(order, e.RunID)
		}
		byRun[e.RunID] = append(byRun[e.RunID], e)
	}

	seqKeys := make([]string, len(order))
	for i, runID := range order {
		seqKeys[i] = s.seqKey(runID)
	}

	for attempt := 0; attempt < appendAttempts; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			return s.appendTx(ctx, tx, order, byRun)
		}, seqKeys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return s.wrapError(err)
		}
	}
	return event.ErrAppendConflict
}

// appendTx reads the current sequence of each run and writes the stamped
// events together with the new sequence.
func (s *EventStore) appendTx(ctx context.Context, tx *redis.Tx, order []string, byRun map[string][]event.Event) error {
	payloads := make(map[string][]any, len(order))
	lasts := make(map[string]uint64, len(order))
	for _, runID := range order {
		last, err := tx.Get(ctx, s.seqKey(runID)).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		data, err := stamp(byRun[runID], last)
		if err != nil {
			return err
		}
		payloads[runID] = data
		lasts[runID] = last + uint64(len(data))
	}

	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, runID := range order {
			pipe.Set(ctx, s.seqKey(runID), lasts[runID], s.ttl)
			pipe.RPush(ctx, s.eventsKey(runID), payloads[runID]...)
			pipe.SAdd(ctx, s.runsKey(), runID)
			if s.ttl > 0 {
				pipe.Expire(ctx, s.eventsKey(runID), s.ttl)
			}
		}
		return nil
	})
	return err
}

// stamp numbers events from last+1 and encodes them for RPUSH.
func stamp(events []event.Event, last uint64) ([]any, error) {
	out := make([]any, 0, len(events))
	for i, e := range events {
		e.Sequence = last + uint64(i) + 1
		data, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// LoadEvents retrieves all events for a run in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, runID string) ([]event.Event, error) {
	return s.LoadEventsFrom(ctx, runID, 0)
}

// LoadEventsFrom retrieves events starting from a specific sequence number.
func (s *EventStore) LoadEventsFrom(ctx context.Context, runID string, fromSeq uint64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.client.LRange(ctx, s.eventsKey(runID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, s.wrapError(err)
	}

	events := make([]event.Event, 0, len(raw))
	for _, item := range raw {
		var e event.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, err
		}
		if e.Sequence >= fromSeq {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Sequence < events[j].Sequence
	})
	return events, nil
}

// CountEvents returns the number of events for a run.
func (s *EventStore) CountEvents(ctx context.Context, runID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := s.client.LLen(ctx, s.eventsKey(runID)).Result()
	if err != nil {
		return 0, s.wrapError(err)
	}
	return n, nil
}

// ListRuns returns all run IDs with events in the store, sorted.
func (s *EventStore) ListRuns(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runs, err := s.client.SMembers(ctx, s.runsKey()).Result()
	if err != nil {
		return nil, s.wrapError(err)
	}
	sort.Strings(runs)
	return runs, nil
}

// wrapError wraps client errors with domain errors.
func (s *EventStore) wrapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, redis.ErrClosed):
		return errors.Join(event.ErrStoreClosed, err)
	default:
		return errors.Join(event.ErrConnectionFailed, err)
	}
}

// Close closes the client.
func (s *EventStore) Close() error {
	return s.client.Close()
}

// Ensure EventStore implements event.Store and event.Querier
var (
	_ event.Store   = (*EventStore)(nil)
	_ event.Querier = (*EventStore)(nil)
)
