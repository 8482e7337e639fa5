// Package repository persists samples to the store.
package repository

import (
	"context"

	models "github.com/Schera-ole/hostagent/internal/model"
)

// Batch is the set of rows of one kind collected in one tick.
type Batch struct {
	Kind  models.Kind
	Table models.Table
	Rows  [][]any
}

// Store accepts the batches of a tick. All batches passed to one WriteBatches
// call are written together or not at all.
type Store interface {
	WriteBatches(ctx context.Context, batches []Batch) error
	Reconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

// GroupBatches groups samples by kind into one batch per kind, in canonical kind order.
func GroupBatches(samples []models.Sample) []Batch {
	byKind := make(map[models.Kind][][]any)
	for _, s := range samples {
		byKind[s.Kind()] = append(byKind[s.Kind()], s.Row())
	}

	batches := make([]Batch, 0, len(byKind))
	for _, kind := range models.Kinds {
		rows, ok := byKind[kind]
		if !ok {
			continue
		}
		batches = append(batches, Batch{Kind: kind, Table: models.Tables[kind], Rows: rows})
	}
	return batches
}

func countRows(batches []Batch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Rows)
	}
	return n
}
