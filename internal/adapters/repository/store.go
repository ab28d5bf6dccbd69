// Package repository stores submitted runs and their results.
package repository

import (
	"context"
	"time"

	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/simulation"
	"github.com/okian/seirsim/pkg/metrics"
)

// Store provides read/write access to run records. Implementations are safe
// for concurrent use.
type Store interface {
	// Create inserts a new run. It returns ErrDuplicateID if the ID exists.
	Create(ctx context.Context, run *model.Run) error

	// MarkRunning, Complete and Fail move a run through its lifecycle.
	// They return ErrNotFound for unknown IDs.
	MarkRunning(ctx context.Context, id string, at time.Time) error
	Complete(ctx context.Context, id string, series *simulation.Series, at time.Time) error
	Fail(ctx context.Context, id, kind, reason string, at time.Time) error

	// Get returns the run with its series. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (*model.Run, error)

	// List returns up to limit runs, newest first, without their series.
	List(ctx context.Context, limit int) ([]*model.Run, error)

	// Count returns the number of stored runs.
	Count(ctx context.Context) (int, error)

	Close() error
}

// observe records the latency of a store operation started at start.
func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// withoutSeries returns a shallow copy of r with the series dropped.
func withoutSeries(r *model.Run) *model.Run {
	c := *r
	c.Series = nil
	return &c
}
