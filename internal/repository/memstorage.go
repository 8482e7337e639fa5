package repository

import (
	"context"
	"sync"
)

// MemStorage keeps written rows in memory, per table.
type MemStorage struct {
	// mu provides thread-safe access to rows
	mu sync.RWMutex

	// rows stores written rows as table name -> rows
	rows map[string][][]any

	// writes counts successful WriteBatches calls
	writes int
}

func NewMemStorage() *MemStorage {
	return &MemStorage{rows: make(map[string][][]any)}
}

// WriteBatches appends the rows of every batch to its table.
func (ms *MemStorage) WriteBatches(ctx context.Context, batches []Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, batch := range batches {
		ms.rows[batch.Table.Name] = append(ms.rows[batch.Table.Name], batch.Rows...)
	}
	ms.writes++
	return nil
}

// Rows returns a copy of the rows written to table.
func (ms *MemStorage) Rows(table string) [][]any {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return append([][]any(nil), ms.rows[table]...)
}

// Writes returns the number of successful WriteBatches calls.
func (ms *MemStorage) Writes() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.writes
}

func (ms *MemStorage) Reconnect(ctx context.Context) error {
	return nil
}

// Ping always succeeds since there are no external dependencies.
func (ms *MemStorage) Ping(ctx context.Context) error {
	return nil
}

func (ms *MemStorage) Close() {}
