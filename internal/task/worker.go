package task

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/events"
	"github.com/daystart-app/daystart-api/internal/store"
)

// StageWorkerConfig holds the lease and polling parameters for one stage
// worker. Values come from JobsConfig.
type StageWorkerConfig struct {
	// PollInterval is the cadence at which the worker polls for leasable jobs.
	PollInterval time.Duration

	// LeaseDuration is how long each claimed job is owned before the lease
	// expires.
	LeaseDuration time.Duration

	// LeaseHorizon bounds how far ahead of scheduled_at jobs are claimed.
	LeaseHorizon time.Duration

	// BatchSize caps how many jobs one lease call claims.
	BatchSize int
}

// StageWorker leases jobs for one pipeline stage, runs the stage processor on
// each, and reports the outcome through the completion protocol. Several
// workers for the same stage may run concurrently across processes; the lease
// manager guarantees they never hold the same job at once.
type StageWorker struct {
	jobStore store.JobStore
	stage    StageProcessor
	workerID string
	cfg      StageWorkerConfig
	logger   *slog.Logger
	nudge    chan struct{}
}

// NewStageWorker creates a worker around the given stage processor. workerID
// must be unique per worker instance; it is the lease holder identity.
func NewStageWorker(
	jobStore store.JobStore,
	stage StageProcessor,
	workerID string,
	cfg StageWorkerConfig,
	logger *slog.Logger,
) *StageWorker {
	return &StageWorker{
		jobStore: jobStore,
		stage:    stage,
		workerID: workerID,
		cfg:      cfg,
		logger: logger.With(
			"component", "stage_worker",
			"stage", string(stage.TargetStatus()),
			"worker_id", workerID,
		),
		nudge: make(chan struct{}, 1),
	}
}

// HandleEvent implements events.EventHandler. A job-created event wakes the
// worker early instead of waiting out the current poll interval; the signal
// is coalesced, so a burst of events causes at most one extra poll.
func (w *StageWorker) HandleEvent(ctx context.Context, event *events.JobCreatedEvent) error {
	select {
	case w.nudge <- struct{}{}:
	default:
	}
	return nil
}

// Run polls for work until ctx is cancelled. It blocks; callers start it in
// its own goroutine.
func (w *StageWorker) Run(ctx context.Context) {
	w.logger.Info("stage worker started",
		"poll_interval", w.cfg.PollInterval,
		"lease_duration", w.cfg.LeaseDuration,
		"batch_size", w.cfg.BatchSize)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	// Stagger the first poll so workers sharing a cadence do not hit the
	// database in lockstep after a deploy.
	select {
	case <-ctx.Done():
		w.logger.Info("stage worker stopping")
		return
	case <-time.After(rand.N(w.cfg.PollInterval/4 + 1)):
	case <-w.nudge:
	}
	w.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stage worker stopping")
			return
		case <-ticker.C:
		case <-w.nudge:
		}

		w.drain(ctx)
	}
}

// drain leases and processes batches until the backlog for this stage is
// empty or ctx is cancelled.
func (w *StageWorker) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		jobs, err := w.jobStore.Lease(ctx, store.LeaseRequest{
			TargetStatus:  w.stage.TargetStatus(),
			WorkerID:      w.workerID,
			LeaseDuration: w.cfg.LeaseDuration,
			Horizon:       w.cfg.LeaseHorizon,
			Limit:         w.cfg.BatchSize,
		})
		if err != nil {
			w.logger.ErrorContext(ctx, "failed to lease jobs", "error", err)
			return
		}

		for _, job := range jobs {
			w.processJob(ctx, job)
		}

		// A short batch means the backlog is drained.
		if len(jobs) < w.cfg.BatchSize {
			return
		}
	}
}

// stuckAttemptThreshold is the attempt count past which a job is worth
// flagging in the logs. Leases are never force-cancelled; this only makes a
// repeatedly reclaimed job visible to operators.
const stuckAttemptThreshold = 3

// processJob runs the stage on one leased job and completes it. An error from
// the stage abandons the job: the lease lapses and a later claim retries it.
func (w *StageWorker) processJob(ctx context.Context, job *domain.Job) {
	logger := w.logger.With("job_id", job.ID, "attempt", job.AttemptCount)

	if job.AttemptCount > stuckAttemptThreshold {
		logger.WarnContext(ctx, "job reclaimed repeatedly, stage may be stuck")
	}

	result, err := w.stage.Process(ctx, job)
	if err != nil {
		logger.WarnContext(ctx, "abandoning job for retry after lease expiry", "error", err)
		return
	}

	completed, err := w.jobStore.CompleteStep(ctx, store.CompleteRequest{
		JobID:         job.ID,
		WorkerID:      w.workerID,
		NewStatus:     result.NewStatus,
		Script:        result.Script,
		AudioPath:     result.AudioPath,
		FailureReason: result.FailureReason,
	})
	if err != nil {
		switch {
		case store.IsLeaseError(err):
			// Another worker owns the job now; our result is discarded and
			// theirs will land instead.
			logger.WarnContext(ctx, "lease lost before completion, discarding result")
		case errors.Is(err, domain.ErrInvalidTransition):
			logger.WarnContext(ctx, "job status changed underneath worker, discarding result",
				"error", err)
		default:
			logger.ErrorContext(ctx, "failed to complete job step", "error", err)
		}
		return
	}

	logger.InfoContext(ctx, "job step completed", "status", completed.Status)
}
