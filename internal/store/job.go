package store

import (
	"context"
	"time"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/google/uuid"
)

// LeaseRequest describes one leaseJobs call: which pipeline entry point to
// drain, on whose behalf, for how long, and how many rows at most.
type LeaseRequest struct {
	// TargetStatus must be StatusQueued or StatusScriptReady, the two
	// pipeline entry points. Anything else is rejected with
	// domain.ErrInvalidLeaseStatus before touching the database.
	TargetStatus domain.BriefingStatus

	// WorkerID identifies the lease holder in worker_id.
	WorkerID string

	// LeaseDuration sets lease_until = now + LeaseDuration on claimed rows.
	LeaseDuration time.Duration

	// Horizon excludes jobs whose scheduled_at is further in the future than
	// now + Horizon, so near-term work is not starved by far-off jobs.
	Horizon time.Duration

	// Limit caps the batch size.
	Limit int
}

// CompleteRequest describes one completeStep call. Exactly one of Script or
// AudioPath is expected for the success targets; FailureReason accompanies
// the failure targets.
type CompleteRequest struct {
	JobID    uuid.UUID
	WorkerID string

	// NewStatus must be one of script_ready, ready, failed, failed_missed.
	NewStatus domain.BriefingStatus

	Script        *string
	AudioPath     *string
	FailureReason *string
}

// JobSummary is the slim projection returned by ListInRange for the re-sync
// scheduler; it pre-warms context snapshots without leasing anything.
type JobSummary struct {
	ID           uuid.UUID             `json:"id"`
	UserID       uuid.UUID             `json:"user_id"`
	LocalDate    string                `json:"local_date"`
	ScheduledAt  time.Time             `json:"scheduled_at"`
	Status       domain.BriefingStatus `json:"status"`
	AttemptCount int                   `json:"attempt_count"`
}

// JobStore is the single source of truth for briefing jobs. Implementations
// must enforce the identity invariant (one non-superseded row per user and
// local date) and the lease invariants through storage-level atomicity, not
// application-level checks.
type JobStore interface {
	// CreateOrReset idempotently upserts the job for (user_id, local_date).
	// On conflict the existing row is fully reset: status back to queued,
	// lease, outputs, attempt count and failure reason cleared, snapshot and
	// timing overwritten. Returns the persisted job, whose ID is the
	// existing row's ID when the row already existed.
	CreateOrReset(ctx context.Context, job *domain.Job) (*domain.Job, error)

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// GetByUserDate retrieves the job for a user's local calendar day.
	// Returns ErrJobNotFound if no job exists for the pair.
	GetByUserDate(ctx context.Context, userID uuid.UUID, localDate string) (*domain.Job, error)

	// Lease atomically claims up to req.Limit eligible jobs for req.WorkerID,
	// ordered by ascending scheduled_at. Eligible means: status equals
	// req.TargetStatus or its in-flight sibling, scheduled_at within the
	// horizon, and the lease is null or expired. Including the in-flight
	// status is what reclaims jobs abandoned by a crashed worker; their
	// worker_id is never cleared, expiry alone frees them. Claimed rows have
	// worker_id, lease_until and the in-flight status set, and attempt_count
	// incremented. Rows locked by a concurrent claimant are skipped, never
	// double-claimed. An empty result is valid.
	Lease(ctx context.Context, req LeaseRequest) ([]*domain.Job, error)

	// CompleteStep advances or terminates a leased job. The precondition
	// (worker_id == req.WorkerID AND lease_until > now) is checked atomically
	// with the update; on violation nothing is mutated and ErrLeaseExpired is
	// returned. On success the artifact and its ready timestamp are
	// persisted, the lease is cleared unconditionally, and a job log entry
	// is recorded.
	CompleteStep(ctx context.Context, req CompleteRequest) (*domain.Job, error)

	// MarkMissed retires jobs whose window_end passed while the job was
	// still unfinished, moving them to failed_missed. Leased rows are
	// skipped; their worker may still complete in time, and if not the next
	// sweep catches them once the lease lapses. Returns the number of jobs
	// retired.
	MarkMissed(ctx context.Context, now time.Time, limit int) (int, error)

	// ListInRange returns summaries of jobs whose scheduled_at falls within
	// [from, to), ordered by scheduled_at.
	ListInRange(ctx context.Context, from, to time.Time) ([]JobSummary, error)

	// MarkDownloaded stamps downloaded_at on a ready job as client-confirmed
	// receipt. Returns ErrJobNotFound if the job does not exist or is not
	// ready.
	MarkDownloaded(ctx context.Context, id uuid.UUID) error
}
