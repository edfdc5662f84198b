package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/daystart-app/daystart-api/internal/store"
)

// reaperBatchSize caps how many jobs one sweep pass retires; the sweep loops
// until a pass comes back short.
const reaperBatchSize = 100

// Reaper periodically retires jobs whose delivery window closed before the
// pipeline finished them, moving them to failed_missed. It is the only
// component that writes failed_missed for unleased jobs; workers report their
// own misses through the completion protocol.
type Reaper struct {
	jobStore store.JobStore
	interval time.Duration
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// NewReaper creates a new Reaper sweeping at the given interval.
func NewReaper(jobStore store.JobStore, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		jobStore: jobStore,
		interval: interval,
		logger:   logger.With("component", "deadline_reaper"),
		nowFunc:  func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps until ctx is cancelled. It blocks; callers start it in its own
// goroutine.
func (r *Reaper) Run(ctx context.Context) {
	r.logger.Info("deadline reaper started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("deadline reaper stopping")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

// sweep retires missed jobs in batches until none remain.
func (r *Reaper) sweep(ctx context.Context) {
	total := 0
	for {
		n, err := r.jobStore.MarkMissed(ctx, r.nowFunc(), reaperBatchSize)
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to retire missed jobs", "error", err)
			return
		}
		total += n
		if n < reaperBatchSize {
			break
		}
	}

	if total > 0 {
		r.logger.InfoContext(ctx, "retired jobs past their delivery window", "count", total)
	}
}
