package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	internalerrors "github.com/Schera-ole/hostagent/internal/errors"
)

// DBStorage writes batches to PostgreSQL with COPY, one transaction per tick.
type DBStorage struct {
	pool *pgxpool.Pool
}

// NewDBStorage connects to the store and fails when no connection can be made.
func NewDBStorage(ctx context.Context, dsn string) (*DBStorage, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid dsn: %w", internalerrors.ErrStoreUnavailable, err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internalerrors.ErrStoreUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", internalerrors.ErrStoreUnavailable, err)
	}
	return &DBStorage{pool: pool}, nil
}

func (storage *DBStorage) WriteBatches(ctx context.Context, batches []Batch) error {
	return pgx.BeginFunc(ctx, storage.pool, func(tx pgx.Tx) error {
		for _, batch := range batches {
			copied, err := tx.CopyFrom(
				ctx,
				pgx.Identifier{batch.Table.Name},
				batch.Table.Columns,
				pgx.CopyFromRows(batch.Rows),
			)
			if err != nil {
				return fmt.Errorf("error copying %d rows into %s: %w", len(batch.Rows), batch.Table.Name, err)
			}
			if copied != int64(len(batch.Rows)) {
				return fmt.Errorf("copied %d of %d rows into %s", copied, len(batch.Rows), batch.Table.Name)
			}
		}
		return nil
	})
}

// Reconnect drops every pooled connection and dials a fresh one.
func (storage *DBStorage) Reconnect(ctx context.Context) error {
	storage.pool.Reset()
	return storage.Ping(ctx)
}

func (storage *DBStorage) Ping(ctx context.Context) error {
	if err := storage.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (storage *DBStorage) Close() {
	storage.pool.Close()
}
