// Package storage opens the configured event store backend.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/felixgeelhaar/maze-agent/domain/config"
	"github.com/felixgeelhaar/maze-agent/domain/event"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage/badger"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage/memory"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage/postgres"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage/redis"
	"github.com/felixgeelhaar/maze-agent/infrastructure/storage/sqlite"
)

// Store is an event store that also enumerates runs and owns resources.
type Store interface {
	event.Store
	event.Querier
	io.Closer
}

type memoryStore struct {
	*memory.EventStore
}

func (memoryStore) Close() error { return nil }

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return memoryStore{memory.NewEventStore()}, nil

	case config.BackendBadger:
		opts := []badger.Option{badger.WithDir(cfg.Badger.Dir)}
		if cfg.Badger.InMemory {
			opts = append(opts, badger.WithInMemory())
		}
		store, err := badger.NewEventStore(badger.DefaultConfig(), opts...)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendSQLite:
		store, err := sqlite.NewEventStore(sqlite.DefaultConfig(), sqlite.WithPath(cfg.SQLite.Path))
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, postgres.DefaultConfig(), postgres.WithDSN(cfg.Postgres.DSN))
		if err != nil {
			return nil, err
		}
		store := postgres.NewEventStore(pool, cfg.Postgres.Schema)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil

	case config.BackendRedis:
		store, err := redis.NewEventStore(ctx, redis.DefaultConfig(),
			redis.WithAddress(cfg.Redis.Addr),
			redis.WithPassword(cfg.Redis.Password),
			redis.WithDB(cfg.Redis.DB),
			redis.WithKeyPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL.Duration()),
		)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
