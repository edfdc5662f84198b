package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/events"
	"github.com/daystart-app/daystart-api/internal/redact"
	"github.com/daystart-app/daystart-api/internal/store"
)

// CreateBriefingRequest carries everything needed to schedule (or reschedule)
// a user's briefing for one local calendar day.
type CreateBriefingRequest struct {
	UserID      uuid.UUID
	LocalDate   string
	ScheduledAt time.Time
	WindowStart time.Time
	WindowEnd   time.Time
	Snapshot    domain.PreferencesSnapshot
}

// BriefingService provides job scheduling and status operations for the
// briefing pipeline. All time-based validation uses the clock injected via
// nowFunc so tests can pin the current instant.
type BriefingService struct {
	jobStore         store.JobStore
	logStore         store.JobLogStore
	eventEmitter     events.EventEmitter
	minLengthSeconds int
	maxLengthSeconds int
	logger           *slog.Logger
	nowFunc          func() time.Time
}

// NewBriefingService creates a new BriefingService. The length bounds come
// from JobsConfig and gate the snapshot's desired briefing length at creation
// time. logStore may be nil when the deployment does not expose job logs.
func NewBriefingService(
	jobStore store.JobStore,
	logStore store.JobLogStore,
	eventEmitter events.EventEmitter,
	minLengthSeconds, maxLengthSeconds int,
	logger *slog.Logger,
) *BriefingService {
	return &BriefingService{
		jobStore:         jobStore,
		logStore:         logStore,
		eventEmitter:     eventEmitter,
		minLengthSeconds: minLengthSeconds,
		maxLengthSeconds: maxLengthSeconds,
		logger:           logger.With("component", "briefing_service"),
		nowFunc:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrResetJob validates the request, then idempotently upserts the job
// for (user, local date). Repeating the call with identical input converges on
// one queued row; repeating it with changed preferences resets the existing
// row and overwrites its snapshot. Returns the persisted job and whether a new
// row was created (false means an existing row was reset).
func (s *BriefingService) CreateOrResetJob(
	ctx context.Context,
	req CreateBriefingRequest,
) (*domain.Job, bool, error) {
	now := s.nowFunc()

	if !req.ScheduledAt.After(now) {
		return nil, false, domain.ErrScheduledInPast
	}

	if err := req.Snapshot.Validate(s.minLengthSeconds, s.maxLengthSeconds); err != nil {
		return nil, false, err
	}

	job, err := domain.NewJob(
		req.UserID,
		req.LocalDate,
		req.ScheduledAt,
		req.WindowStart,
		req.WindowEnd,
		req.Snapshot,
	)
	if err != nil {
		return nil, false, err
	}

	saved, err := s.jobStore.CreateOrReset(ctx, job)
	if err != nil {
		return nil, false, NewBriefingServiceError("create_or_reset", "failed to upsert job", err)
	}

	// The store keeps the existing row's ID on conflict, so a preserved ID
	// tells us this call created the row rather than reset one.
	created := saved.ID == job.ID

	s.logger.InfoContext(ctx, "briefing job created or reset",
		"job_id", saved.ID,
		"user_ref", redact.UserRef(saved.UserID),
		"local_date", saved.LocalDate,
		"scheduled_at", saved.ScheduledAt,
		"created", created)

	// Best-effort nudge so a stage worker polls before its next tick; the job
	// row is already committed, so a lost event only adds latency.
	if s.eventEmitter != nil {
		event := events.NewJobCreatedEvent(saved.ID, saved.ScheduledAt)
		if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to emit job created event",
				"error", err,
				"job_id", saved.ID)
		}
	}

	return saved, created, nil
}

// GetJob retrieves a job by its unique ID.
// Returns store.ErrJobNotFound if no such job exists.
func (s *BriefingService) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	job, err := s.jobStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewBriefingServiceError("get_job", "failed to fetch job", err)
	}
	return job, nil
}

// GetJobForUserDate retrieves the job for a user's local calendar day.
// Returns store.ErrJobNotFound if no job exists for the pair.
func (s *BriefingService) GetJobForUserDate(
	ctx context.Context,
	userID uuid.UUID,
	localDate string,
) (*domain.Job, error) {
	job, err := s.jobStore.GetByUserDate(ctx, userID, localDate)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewBriefingServiceError("get_job_for_user_date", "failed to fetch job", err)
	}
	return job, nil
}

// ListJobsInRange returns summaries of jobs scheduled within [from, to).
// The re-sync scheduler uses this to pre-warm upstream content for upcoming
// briefings without claiming any leases.
func (s *BriefingService) ListJobsInRange(
	ctx context.Context,
	from, to time.Time,
) ([]store.JobSummary, error) {
	if !from.Before(to) {
		return nil, ErrInvalidTimeRange
	}

	summaries, err := s.jobStore.ListInRange(ctx, from, to)
	if err != nil {
		return nil, NewBriefingServiceError("list_jobs_in_range", "failed to list jobs", err)
	}
	return summaries, nil
}

// ListJobLogs returns the most recent pipeline log entries for a job, newest
// first. Entries come from the append-only audit trail written alongside every
// upsert, completion and reaper sweep.
func (s *BriefingService) ListJobLogs(
	ctx context.Context,
	jobID uuid.UUID,
	limit int,
) ([]*domain.JobLogEntry, error) {
	if s.logStore == nil {
		return []*domain.JobLogEntry{}, nil
	}

	entries, err := s.logStore.ListByJob(ctx, jobID, limit)
	if err != nil {
		return nil, NewBriefingServiceError("list_job_logs", "failed to list job logs", err)
	}
	return entries, nil
}

// MarkDownloaded records that the client fetched the finished briefing audio.
// Returns store.ErrJobNotFound if the job does not exist or is not ready.
func (s *BriefingService) MarkDownloaded(ctx context.Context, id uuid.UUID) error {
	if err := s.jobStore.MarkDownloaded(ctx, id); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewBriefingServiceError("mark_downloaded", "failed to stamp download", err)
	}

	s.logger.InfoContext(ctx, "briefing marked downloaded", "job_id", id)
	return nil
}
