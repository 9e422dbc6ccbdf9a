// Package store tracks job state for the lifetime of the process.
package store

import (
	"context"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
)

// Stats summarizes the store for the health endpoint.
type Stats struct {
	ActiveJobs int
	TotalJobs  int
}

// JobStore is the process-wide mapping from job id to job record. Each job
// is mutated by exactly one runner; reads may happen concurrently with that
// writer and must never observe a status/result pair that violates the
// terminal-field invariant.
type JobStore interface {
	// Create inserts a new record with status pending.
	// Returns domain.ErrDuplicateJob if the id is already present.
	Create(ctx context.Context, job *domain.Job) error

	// Get returns a copy of the job, or domain.ErrJobNotFound.
	Get(ctx context.Context, jobID string) (*domain.Job, error)

	// Transition moves the job to a new status, atomically populating the
	// result (completed) or error message (failed) alongside it. Returns
	// domain.ErrTerminalState if the job already reached a terminal status.
	Transition(ctx context.Context, jobID, status string, result *domain.GradeResult, errMsg string) error

	// List returns copies of all known jobs, newest first.
	List(ctx context.Context) ([]*domain.Job, error)

	// Stats returns active (pending+processing) and total job counts.
	Stats(ctx context.Context) (Stats, error)
}
