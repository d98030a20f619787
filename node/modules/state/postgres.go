package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	postgresQueryTimeout = 10 * time.Second

	createStateTable = `CREATE TABLE IF NOT EXISTS rta_state (
	key   TEXT PRIMARY KEY,
	value BYTEA NOT NULL
)`
	selectValue = `SELECT value FROM rta_state WHERE key = $1`
	upsertValue = `INSERT INTO rta_state (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	deleteValue = `DELETE FROM rta_state WHERE key = $1`
)

var _ State = (*PostgresState)(nil)

// PostgresState stores the node state in a single key/value table. A cache
// wrap commits inside one SQL transaction.
type PostgresState struct {
	pool *pgxpool.Pool
}

func NewPostgresState(ctx context.Context, dsn string) (*PostgresState, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createStateTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}
	return &PostgresState{pool: pool}, nil
}

func (s *PostgresState) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), postgresQueryTimeout)
	defer cancel()

	var value []byte
	err := s.pool.QueryRow(ctx, selectValue, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get value with key {%s} from postgres: %w", key, err)
	}
	return value, nil
}

func (s *PostgresState) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), postgresQueryTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, upsertValue, key, value); err != nil {
		return fmt.Errorf("failed to save value with key %s: %w", key, err)
	}
	return nil
}

func (s *PostgresState) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), postgresQueryTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, deleteValue, key); err != nil {
		return fmt.Errorf("failed to delete value with key {%s}: %w", key, err)
	}
	return nil
}

func (s *PostgresState) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(s, s.commit)
}

func (s *PostgresState) commit(ops []Op) error {
	ctx, cancel := context.WithTimeout(context.Background(), postgresQueryTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, op := range ops {
		if op.Deleted {
			batch.Queue(deleteValue, op.Key)
		} else {
			batch.Queue(upsertValue, op.Key, op.Value)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write batch of %d ops: %w", len(ops), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresState) Close() error {
	s.pool.Close()
	return nil
}
