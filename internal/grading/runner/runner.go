// Package runner orchestrates one grading job end-to-end: frame sampling,
// per-frame classification, score aggregation, state transitions, artifact
// cleanup and outbound notification.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/aggregate"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/classifier"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/notify"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/sampler"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/store"
)

// Config holds runner dependencies and tuning.
type Config struct {
	Logger   *slog.Logger
	Store    store.JobStore
	Sampler  *sampler.Sampler
	Registry *classifier.Registry
	Notifier notify.Notifier
	Sampling sampler.Params
	// MaxConcurrent bounds simultaneously executing jobs; a value <= 0
	// disables the bound
	MaxConcurrent int64
}

// Runner drives submitted jobs to a terminal state on background goroutines.
// Once dispatched a job always runs to completion or failure; there is no
// client-initiated cancellation.
type Runner struct {
	logger   *slog.Logger
	store    store.JobStore
	sampler  *sampler.Sampler
	registry *classifier.Registry
	notifier notify.Notifier
	sampling sampler.Params

	sem *semaphore.Weighted
	ctx context.Context
	// cancel releases stragglers if Shutdown gives up waiting
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Runner. Jobs dispatched after Shutdown returns are not
// guaranteed to run.
func New(cfg *Config) *Runner {
	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		logger:   cfg.Logger,
		store:    cfg.Store,
		sampler:  cfg.Sampler,
		registry: cfg.Registry,
		notifier: cfg.Notifier,
		sampling: cfg.Sampling,
		ctx:      ctx,
		cancel:   cancel,
	}

	if cfg.Notifier == nil {
		r.notifier = notify.Noop{}
	}
	if cfg.MaxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}

	return r
}

// Dispatch records a new pending job and schedules its execution. It returns
// immediately after kicking off background processing; the outcome is only
// observable through the job store or the notifier.
func (r *Runner) Dispatch(ctx context.Context, jobID, cropType, videoPath string) error {
	job := &domain.Job{
		ID:        jobID,
		CropType:  cropType,
		Status:    domain.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.store.Create(ctx, job); err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}

	r.wg.Add(1)
	go r.process(jobID, cropType, videoPath)

	r.logger.Info("Job dispatched",
		slog.String("job_id", jobID),
		slog.String("crop_type", cropType),
		slog.String("video_path", videoPath),
	)

	return nil
}

// Shutdown waits for in-flight jobs to reach a terminal state. If the
// context expires first, remaining jobs are abandoned via context
// cancellation and an error is returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.cancel()
		return fmt.Errorf("runner shutdown timed out: %w", ctx.Err())
	}
}

// process owns one job from scheduling to notification.
func (r *Runner) process(jobID, cropType, videoPath string) {
	defer r.wg.Done()

	if r.sem != nil {
		if err := r.sem.Acquire(r.ctx, 1); err != nil {
			msg := fmt.Sprintf("job never started: %s", err)
			r.fail(jobID, msg)
			r.cleanupArtifact(jobID, videoPath)
			r.notifier.Notify(r.ctx, notify.Outcome{
				JobID:  jobID,
				Status: domain.JobStatusFailed,
				Error:  msg,
			})
			return
		}
		defer r.sem.Release(1)
	}

	outcome := r.run(jobID, cropType, videoPath)

	// Exactly one notification per job, after the terminal transition and
	// after cleanup. Failures inside the notifier never reach this point.
	r.notifier.Notify(r.ctx, outcome)
}

// run executes the grading pipeline and returns the terminal outcome. The
// temporary artifact is removed on every exit path, including panics.
func (r *Runner) run(jobID, cropType, videoPath string) (outcome notify.Outcome) {
	outcome = notify.Outcome{JobID: jobID}

	defer r.cleanupArtifact(jobID, videoPath)
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("unexpected fault: %v", rec)
			r.logger.Error("Job processing panicked",
				slog.String("job_id", jobID),
				slog.Any("panic", rec),
			)
			r.fail(jobID, msg)
			outcome.Status = domain.JobStatusFailed
			outcome.Result = nil
			outcome.Error = msg
		}
	}()

	result, err := r.execute(jobID, cropType, videoPath)
	if err != nil {
		r.fail(jobID, err.Error())
		outcome.Status = domain.JobStatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	if err := r.store.Transition(r.ctx, jobID, domain.JobStatusCompleted, result, ""); err != nil {
		r.logger.Error("Failed to mark job completed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}

	r.logger.Info("Job completed",
		slog.String("job_id", jobID),
		slog.String("grade", result.Grade),
		slog.Float64("confidence", result.Confidence),
		slog.Int("frames_analyzed", result.FramesAnalyzed),
	)

	outcome.Status = domain.JobStatusCompleted
	outcome.Result = result
	return outcome
}

// execute runs the linear pipeline: sample, classify per frame, aggregate.
func (r *Runner) execute(jobID, cropType, videoPath string) (*domain.GradeResult, error) {
	if err := r.store.Transition(r.ctx, jobID, domain.JobStatusProcessing, nil, ""); err != nil {
		return nil, fmt.Errorf("failed to start job: %w", err)
	}

	frames, err := r.sampler.Sample(r.ctx, videoPath, r.sampling)
	if err != nil {
		return nil, err
	}

	clf, err := r.registry.Lookup(cropType)
	if err != nil {
		return nil, err
	}

	frameScores := make([][]float64, 0, len(frames))
	for idx, frame := range frames {
		scores, err := clf.Classify(r.ctx, frame)
		if err != nil {
			// A single bad frame never fails the job; only total
			// exhaustion does.
			r.logger.Warn("Frame classification failed",
				slog.String("job_id", jobID),
				slog.Int("frame", idx),
				slog.String("error", err.Error()),
			)
			continue
		}
		frameScores = append(frameScores, scores)
	}

	result := aggregate.Aggregate(frameScores)
	if result.FramesAnalyzed == 0 {
		return nil, domain.ErrNoFramesScored
	}

	return &result, nil
}

// fail records the failed terminal transition; a transition error here means
// the job already reached a terminal state and is only logged.
func (r *Runner) fail(jobID, msg string) {
	if err := r.store.Transition(r.ctx, jobID, domain.JobStatusFailed, nil, msg); err != nil {
		r.logger.Error("Failed to mark job failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}

// cleanupArtifact deletes the temporary video file. Failure is logged, never
// escalated: it must not overturn the job's terminal status.
func (r *Runner) cleanupArtifact(jobID, videoPath string) {
	if videoPath == "" {
		return
	}

	if err := os.Remove(videoPath); err != nil {
		if os.IsNotExist(err) {
			return
		}
		r.logger.Warn("Failed to remove temp video",
			slog.String("job_id", jobID),
			slog.String("video_path", videoPath),
			slog.String("error", err.Error()),
		)
		return
	}

	r.logger.Debug("Temp video removed",
		slog.String("job_id", jobID),
		slog.String("video_path", videoPath),
	)
}
