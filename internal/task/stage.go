package task

import (
	"context"

	"github.com/daystart-app/daystart-api/internal/domain"
)

// StageResult is the outcome of one stage execution, expressed in the terms
// the completion protocol accepts. A stage that fails permanently reports the
// failure here; returning an error from Process instead means the job is
// abandoned without a status change so the lease can lapse and another worker
// can retry it.
type StageResult struct {
	// NewStatus is the completion target: script_ready or ready on success,
	// failed on a permanent error.
	NewStatus domain.BriefingStatus

	Script        *string
	AudioPath     *string
	FailureReason *string
}

// StageProcessor runs one pipeline stage against a job the worker has leased.
type StageProcessor interface {
	// TargetStatus is the leasable status this stage drains: queued for the
	// script stage, script_ready for the audio stage.
	TargetStatus() domain.BriefingStatus

	// Process executes the stage. A returned error abandons the job for
	// retry after lease expiry; permanent failures are reported through the
	// result instead.
	Process(ctx context.Context, job *domain.Job) (StageResult, error)
}

func failureResult(reason string) StageResult {
	return StageResult{
		NewStatus:     domain.StatusFailed,
		FailureReason: &reason,
	}
}
