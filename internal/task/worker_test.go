package task_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/events"
	"github.com/daystart-app/daystart-api/internal/store"
	"github.com/daystart-app/daystart-api/internal/task"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func testWorkerConfig() task.StageWorkerConfig {
	return task.StageWorkerConfig{
		PollInterval:  5 * time.Millisecond,
		LeaseDuration: 30 * time.Minute,
		LeaseHorizon:  6 * time.Hour,
		BatchSize:     10,
	}
}

func leasedJob(status domain.BriefingStatus) *domain.Job {
	script := "good morning"
	job := &domain.Job{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		LocalDate:    "2026-08-24",
		Status:       status,
		AttemptCount: 1,
		Snapshot:     domain.PreferencesSnapshot{Voice: "aurora", LengthSeconds: 180},
	}
	if status == domain.StatusAudioProcessing {
		job.Script = &script
	}
	return job
}

func TestStageWorkerCompletesLeasedJob(t *testing.T) {
	t.Parallel()

	job := leasedJob(domain.StatusScriptProcessing)
	var served atomic.Bool

	jobStore := &mockJobStore{
		leaseFn: func(ctx context.Context, req store.LeaseRequest) ([]*domain.Job, error) {
			if served.CompareAndSwap(false, true) {
				return []*domain.Job{job}, nil
			}
			return nil, nil
		},
		completeStepFn: func(ctx context.Context, req store.CompleteRequest) (*domain.Job, error) {
			done := *job
			done.Status = req.NewStatus
			return &done, nil
		},
	}

	script := "generated script"
	stage := &stubStage{
		target: domain.StatusQueued,
		processFn: func(ctx context.Context, j *domain.Job) (task.StageResult, error) {
			return task.StageResult{NewStatus: domain.StatusScriptReady, Script: &script}, nil
		},
	}

	worker := task.NewStageWorker(jobStore, stage, "worker-1", testWorkerConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(jobStore.completions()) > 0
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	completions := jobStore.completions()
	require.Len(t, completions, 1)
	assert.Equal(t, job.ID, completions[0].JobID)
	assert.Equal(t, "worker-1", completions[0].WorkerID)
	assert.Equal(t, domain.StatusScriptReady, completions[0].NewStatus)
	require.NotNil(t, completions[0].Script)
	assert.Equal(t, script, *completions[0].Script)

	// Lease requests carry the stage's entry status and the worker identity.
	assert.Equal(t, domain.StatusQueued, jobStore.leaseRequests[0].TargetStatus)
	assert.Equal(t, "worker-1", jobStore.leaseRequests[0].WorkerID)
}

func TestStageWorkerAbandonsJobOnStageError(t *testing.T) {
	t.Parallel()

	job := leasedJob(domain.StatusScriptProcessing)
	var served atomic.Bool

	jobStore := &mockJobStore{
		leaseFn: func(ctx context.Context, req store.LeaseRequest) ([]*domain.Job, error) {
			if served.CompareAndSwap(false, true) {
				return []*domain.Job{job}, nil
			}
			return nil, nil
		},
		completeStepFn: func(ctx context.Context, req store.CompleteRequest) (*domain.Job, error) {
			t.Error("CompleteStep must not be called for an abandoned job")
			return nil, nil
		},
	}

	stage := &stubStage{
		target: domain.StatusQueued,
		processFn: func(ctx context.Context, j *domain.Job) (task.StageResult, error) {
			return task.StageResult{}, assert.AnError
		},
	}

	worker := task.NewStageWorker(jobStore, stage, "worker-1", testWorkerConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return stage.processedCount() > 0
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	assert.Empty(t, jobStore.completions())
}

func TestStageWorkerToleratesLostLease(t *testing.T) {
	t.Parallel()

	job := leasedJob(domain.StatusScriptProcessing)
	var served atomic.Bool

	jobStore := &mockJobStore{
		leaseFn: func(ctx context.Context, req store.LeaseRequest) ([]*domain.Job, error) {
			if served.CompareAndSwap(false, true) {
				return []*domain.Job{job}, nil
			}
			return nil, nil
		},
		completeStepFn: func(ctx context.Context, req store.CompleteRequest) (*domain.Job, error) {
			return nil, store.ErrLeaseExpired
		},
	}

	stage := &stubStage{
		target: domain.StatusQueued,
		processFn: func(ctx context.Context, j *domain.Job) (task.StageResult, error) {
			return task.StageResult{NewStatus: domain.StatusScriptReady}, nil
		},
	}

	worker := task.NewStageWorker(jobStore, stage, "worker-1", testWorkerConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		// A lost lease is logged and swallowed; the loop keeps running.
		worker.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(jobStore.completions()) > 0 && jobStore.leaseCount() > 1
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestStageWorkerNudgeWakesEarly(t *testing.T) {
	t.Parallel()

	jobStore := &mockJobStore{
		leaseFn: func(ctx context.Context, req store.LeaseRequest) ([]*domain.Job, error) {
			return nil, nil
		},
	}
	stage := &stubStage{target: domain.StatusQueued}

	cfg := testWorkerConfig()
	cfg.PollInterval = time.Hour // only a nudge can trigger a poll

	worker := task.NewStageWorker(jobStore, stage, "worker-1", cfg, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	event := events.NewJobCreatedEvent(uuid.New(), time.Now().UTC())
	require.NoError(t, worker.HandleEvent(ctx, event))

	require.Eventually(t, func() bool {
		return jobStore.leaseCount() > 0
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}
