package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/maze-agent/domain/event"
)

// EventStore is a PostgreSQL-backed implementation of event.Store.
type EventStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewEventStore creates a new PostgreSQL event store.
func NewEventStore(pool *pgxpool.Pool, schema string) *EventStore {
	if schema == "" {
		schema = "public"
	}
	return &EventStore{
		pool:   pool,
		schema: schema,
	}
}

// tableName returns the fully qualified table name.
func (s *EventStore) tableName() string {
	return pgx.Identifier{s.schema, "events"}.Sanitize()
}

// migrationSQL returns the statements that create the events table.
func (s *EventStore) migrationSQL() string {
	return fmt.Sprintf(`
		CREATE SCHEMA IF NOT EXISTS %s;
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			type TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL,
			sequence BIGINT NOT NULL,
			version INT NOT NULL DEFAULT 1,
			UNIQUE (run_id, sequence)
		);
	`, pgx.Identifier{s.schema}.Sanitize(), s.tableName())
}

// Migrate creates the schema and events table if they don't exist.
func (s *EventStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, s.migrationSQL()); err != nil {
		return s.wrapError(err)
	}
	return nil
}

// Append persists one or more events in a single transaction.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return s.wrapError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (id, run_id, type, timestamp, payload, sequence, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.tableName())

	sequences := make(map[string]uint64)
	for _, e := range events {
		seq, ok := sequences[e.RunID]
		if !ok {
			var maxSeq *int64
			err := tx.QueryRow(ctx,
				fmt.Sprintf("SELECT MAX(sequence) FROM %s WHERE run_id = $1", s.tableName()),
				e.RunID,
			).Scan(&maxSeq)
			if err != nil {
				return s.wrapError(err)
			}
			if maxSeq != nil {
				seq = uint64(*maxSeq)
			}
		}
		seq++
		sequences[e.RunID] = seq

		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.Version == 0 {
			e.Version = 1
		}

		_, err := tx.Exec(ctx, insertQuery,
			e.ID, e.RunID, string(e.Type), e.Timestamp, []byte(e.Payload), int64(seq), e.Version,
		)
		if err != nil {
			return s.wrapError(err)
		}
	}

	return s.wrapError(tx.Commit(ctx))
}

// LoadEvents retrieves all events for a run in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, runID string) ([]event.Event, error) {
	return s.LoadEventsFrom(ctx, runID, 0)
}

// LoadEventsFrom retrieves events starting from a specific sequence number.
func (s *EventStore) LoadEventsFrom(ctx context.Context, runID string, fromSeq uint64) ([]event.Event, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, type, timestamp, payload, sequence, version
		FROM %s
		WHERE run_id = $1 AND sequence >= $2
		ORDER BY sequence ASC
	`, s.tableName())

	rows, err := s.pool.Query(ctx, query, runID, int64(fromSeq))
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// CountEvents returns the number of events for a run.
func (s *EventStore) CountEvents(ctx context.Context, runID string) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE run_id = $1`, s.tableName())

	var count int64
	if err := s.pool.QueryRow(ctx, query, runID).Scan(&count); err != nil {
		return 0, s.wrapError(err)
	}
	return count, nil
}

// ListRuns returns all run IDs with events in the store.
func (s *EventStore) ListRuns(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT run_id FROM %s ORDER BY run_id`, s.tableName())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, s.wrapError(err)
		}
		runs = append(runs, runID)
	}
	return runs, rows.Err()
}

// scanEvents scans rows into Event structs.
func scanEvents(rows pgx.Rows) ([]event.Event, error) {
	events := []event.Event{}
	for rows.Next() {
		var e event.Event
		var eventType string
		var seq int64
		var payload []byte

		if err := rows.Scan(&e.ID, &e.RunID, &eventType, &e.Timestamp, &payload, &seq, &e.Version); err != nil {
			return nil, err
		}
		e.Type = event.Type(eventType)
		e.Sequence = uint64(seq)
		e.Payload = payload
		events = append(events, e)
	}
	return events, rows.Err()
}

// wrapError wraps database errors with domain errors.
func (s *EventStore) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(event.ErrConnectionFailed, err)
}

// Close releases the pool.
func (s *EventStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ensure EventStore implements event.Store and event.Querier
var (
	_ event.Store   = (*EventStore)(nil)
	_ event.Querier = (*EventStore)(nil)
)
