// Package storage defines the persistence contract for assembled customer
// feature tables.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"customer-segmentation/internal/assemble"
)

// Snapshot identifies one batch pipeline run. Every persisted feature row
// hangs off a snapshot so that re-runs over the same source never collide.
type Snapshot struct {
	ID           uuid.UUID
	SourceFile   string
	SnapshotDate time.Time // the Recency reference date of the run
	RowCount     int
	CreatedAt    time.Time
}

// NewSnapshot stamps a snapshot for the current run.
func NewSnapshot(sourceFile string, snapshotDate time.Time, rowCount int) *Snapshot {
	return &Snapshot{
		ID:           uuid.New(),
		SourceFile:   sourceFile,
		SnapshotDate: snapshotDate,
		RowCount:     rowCount,
		CreatedAt:    time.Now().UTC(),
	}
}

// FeatureStore persists one feature table per pipeline run. Non-finite
// feature cells are stored as SQL NULL, never coerced to zero.
type FeatureStore interface {
	SaveSnapshot(ctx context.Context, snapshot *Snapshot, table *assemble.Table) error
	Close() error
}
