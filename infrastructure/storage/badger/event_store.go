package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sort"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/maze-agent/domain/event"
)

// EventStore is a BadgerDB-backed implementation of event.Store.
//
// Keys:
//
//	prefix + "events:" + runID + ":" + seq (8 bytes, big-endian) -> JSON event
//	prefix + "seq:" + runID                                      -> last seq
type EventStore struct {
	db        *badger.DB
	keyPrefix string
	closed    atomic.Bool
}

// NewEventStore opens a BadgerDB event store with the given configuration.
func NewEventStore(cfg Config, opts ...Option) (*EventStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return NewEventStoreFromDB(db, cfg.KeyPrefix), nil
}

// NewEventStoreFromDB creates an event store from an existing BadgerDB database.
func NewEventStoreFromDB(db *badger.DB, keyPrefix string) *EventStore {
	return &EventStore{
		db:        db,
		keyPrefix: keyPrefix,
	}
}

func (s *EventStore) runPrefix(runID string) []byte {
	return []byte(s.keyPrefix + "events:" + runID + ":")
}

func (s *EventStore) eventKey(runID string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(s.runPrefix(runID), seq)
}

func (s *EventStore) seqKey(runID string) []byte {
	return []byte(s.keyPrefix + "seq:" + runID)
}

func (s *EventStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return event.ErrStoreClosed
	}
	return nil
}

// Append persists one or more events in a single transaction.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}

	return s.db.Update(func(txn *badger.Txn) error {
		sequences := make(map[string]uint64)
		for _, e := range events {
			seq, ok := sequences[e.RunID]
			if !ok {
				var err error
				if seq, err = s.lastSequence(txn, e.RunID); err != nil {
					return err
				}
			}
			seq++
			sequences[e.RunID] = seq

			if e.ID == "" {
				e.ID = uuid.New().String()
			}
			e.Sequence = seq

			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := txn.Set(s.eventKey(e.RunID, seq), data); err != nil {
				return err
			}
		}

		for runID, seq := range sequences {
			if err := txn.Set(s.seqKey(runID), binary.BigEndian.AppendUint64(nil, seq)); err != nil {
				return err
			}
		}
		return nil
	})
}

// lastSequence reads the stored counter for a run; zero when absent.
func (s *EventStore) lastSequence(txn *badger.Txn, runID string) (uint64, error) {
	item, err := txn.Get(s.seqKey(runID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var seq uint64
	err = item.Value(func(val []byte) error {
		if len(val) == 8 {
			seq = binary.BigEndian.Uint64(val)
		}
		return nil
	})
	return seq, err
}

// LoadEvents retrieves all events for a run in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, runID string) ([]event.Event, error) {
	return s.LoadEventsFrom(ctx, runID, 0)
}

// LoadEventsFrom retrieves events starting from a specific sequence number.
func (s *EventStore) LoadEventsFrom(ctx context.Context, runID string, fromSeq uint64) ([]event.Event, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	events := []event.Event{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.runPrefix(runID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(s.eventKey(runID, fromSeq)); it.Valid(); it.Next() {
			var e event.Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return err
			}
			events = append(events, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// CountEvents returns the number of events for a run.
func (s *EventStore) CountEvents(ctx context.Context, runID string) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = s.runPrefix(runID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// ListRuns returns all run IDs with events in the store, sorted.
func (s *EventStore) ListRuns(ctx context.Context) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "seq:")
	var runs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			runs = append(runs, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	sort.Strings(runs)
	return runs, err
}

// Close closes the database.
func (s *EventStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying BadgerDB database.
func (s *EventStore) DB() *badger.DB {
	return s.db
}

// Ensure EventStore implements event.Store and event.Querier
var (
	_ event.Store   = (*EventStore)(nil)
	_ event.Querier = (*EventStore)(nil)
)
