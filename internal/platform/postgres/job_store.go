package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/platform/logger"
	"github.com/daystart-app/daystart-api/internal/redact"
	"github.com/daystart-app/daystart-api/internal/store"
)

// PostgreSQL error codes
const pgCheckViolationCode = "23514"

// jobColumns is the canonical column list scanned by scanJob.
const jobColumns = `id, user_id, local_date, scheduled_at, window_start, window_end,
	status, attempt_count, worker_id, lease_until, snapshot,
	script, script_ready_at, audio_path, audio_ready_at,
	downloaded_at, failure_reason, created_at, updated_at`

// PostgresJobStore implements the store.JobStore interface using a PostgreSQL
// database as the storage backend. It holds a *sql.DB rather than a DBTX
// because the upsert and completion paths write the job row and its log entry
// in one transaction.
type PostgresJobStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the JobStore
// interface. If logger is nil, a default logger will be used.
func NewPostgresJobStore(db *sql.DB, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements store.JobStore interface
var _ store.JobStore = (*PostgresJobStore)(nil)

// CreateOrReset implements store.JobStore.CreateOrReset.
// The insert and its job_created log entry commit together; a conflicting
// (user_id, local_date) row is fully reset to queued with the new snapshot.
func (s *PostgresJobStore) CreateOrReset(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("job validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_ref", redact.UserRef(job.UserID)))
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	snapshot, err := json.Marshal(job.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO jobs (
			id, user_id, local_date, scheduled_at, window_start, window_end,
			status, attempt_count, snapshot, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $9)
		ON CONFLICT (user_id, local_date) DO UPDATE SET
			scheduled_at   = EXCLUDED.scheduled_at,
			window_start   = EXCLUDED.window_start,
			window_end     = EXCLUDED.window_end,
			status         = EXCLUDED.status,
			attempt_count  = 0,
			worker_id      = NULL,
			lease_until    = NULL,
			snapshot       = EXCLUDED.snapshot,
			script         = NULL,
			script_ready_at = NULL,
			audio_path     = NULL,
			audio_ready_at = NULL,
			downloaded_at  = NULL,
			failure_reason = NULL,
			updated_at     = EXCLUDED.updated_at
		RETURNING ` + jobColumns

	var persisted *domain.Job
	now := time.Now().UTC()

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, query,
			job.ID,
			job.UserID,
			job.LocalDate,
			job.ScheduledAt,
			job.WindowStart,
			job.WindowEnd,
			domain.StatusQueued,
			snapshot,
			now,
		)

		var scanErr error
		persisted, scanErr = scanJob(row)
		if scanErr != nil {
			return scanErr
		}

		return appendJobLog(ctx, tx, persisted.ID, domain.LogLevelInfo, "job_created",
			map[string]any{
				"user_ref":     redact.UserRef(persisted.UserID),
				"local_date":   persisted.LocalDate,
				"scheduled_at": persisted.ScheduledAt,
			})
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolationCode {
			log.Warn("check constraint violation during job upsert",
				slog.String("error", err.Error()),
				slog.String("user_ref", redact.UserRef(job.UserID)))
			return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		log.Error("failed to upsert job",
			slog.String("error", err.Error()),
			slog.String("user_ref", redact.UserRef(job.UserID)),
			slog.String("local_date", job.LocalDate))
		return nil, err
	}

	log.Info("job created or reset",
		slog.String("job_id", persisted.ID.String()),
		slog.String("user_ref", redact.UserRef(persisted.UserID)),
		slog.String("local_date", persisted.LocalDate))
	return persisted, nil
}

// GetByID implements store.JobStore.GetByID.
// Returns store.ErrJobNotFound if the job does not exist.
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		log.Error("failed to get job by ID",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return nil, err
	}

	return job, nil
}

// GetByUserDate implements store.JobStore.GetByUserDate.
// Returns store.ErrJobNotFound if no job exists for the user and date.
func (s *PostgresJobStore) GetByUserDate(
	ctx context.Context,
	userID uuid.UUID,
	localDate string,
) (*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = $1 AND local_date = $2`,
		userID, localDate)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		log.Error("failed to get job by user and date",
			slog.String("error", err.Error()),
			slog.String("user_ref", redact.UserRef(userID)),
			slog.String("local_date", localDate))
		return nil, err
	}

	return job, nil
}

// Lease implements store.JobStore.Lease.
//
// Selection and claim are one statement: the inner SELECT takes row locks
// with FOR UPDATE SKIP LOCKED so rows held by a concurrent claimant are
// excluded rather than waited on, and the UPDATE stamps the lease before the
// locks are released at commit. Two callers can therefore never claim the
// same row while a lease is live.
//
// Besides the entry-point status itself, rows already sitting in its
// in-flight sibling are eligible once their lease has lapsed. That is how a
// crashed worker's job comes back: nothing clears worker_id, expiry alone
// frees the row.
func (s *PostgresJobStore) Lease(ctx context.Context, req store.LeaseRequest) ([]*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	inFlight, err := domain.LeaseTarget(req.TargetStatus)
	if err != nil {
		// Programming error on the caller's side, not a runtime condition.
		return nil, fmt.Errorf("leaseJobs target %q: %w", req.TargetStatus, err)
	}

	if req.WorkerID == "" {
		return nil, fmt.Errorf("%w: worker ID cannot be empty", store.ErrInvalidEntity)
	}
	if req.Limit <= 0 {
		return nil, fmt.Errorf("%w: lease limit must be positive", store.ErrInvalidEntity)
	}

	now := time.Now().UTC()
	query := `
		WITH claimed AS (
			SELECT id FROM jobs
			WHERE status IN ($1, $5)
			  AND scheduled_at <= $2
			  AND (lease_until IS NULL OR lease_until <= $3)
			ORDER BY scheduled_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $4
		)
		UPDATE jobs
		SET status        = $5,
		    worker_id     = $6,
		    lease_until   = $7,
		    attempt_count = attempt_count + 1,
		    updated_at    = $3
		FROM claimed
		WHERE jobs.id = claimed.id
		RETURNING ` + jobColumns

	rows, err := s.db.QueryContext(ctx, query,
		req.TargetStatus,
		now.Add(req.Horizon),
		now,
		req.Limit,
		inFlight,
		req.WorkerID,
		now.Add(req.LeaseDuration),
	)
	if err != nil {
		log.Error("failed to lease jobs",
			slog.String("error", err.Error()),
			slog.String("target_status", string(req.TargetStatus)),
			slog.String("worker_id", req.WorkerID))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	jobs, err := collectJobs(rows)
	if err != nil {
		log.Error("failed to scan leased jobs",
			slog.String("error", err.Error()),
			slog.String("worker_id", req.WorkerID))
		return nil, err
	}

	// UPDATE ... FROM gives no ordering guarantee on RETURNING; restore the
	// soonest-deadline-first contract here.
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].ScheduledAt.Before(jobs[j].ScheduledAt)
	})

	if len(jobs) > 0 {
		log.Info("leased jobs",
			slog.Int("count", len(jobs)),
			slog.String("target_status", string(req.TargetStatus)),
			slog.String("worker_id", req.WorkerID))
	}
	return jobs, nil
}

// CompleteStep implements store.JobStore.CompleteStep.
//
// The lease precondition is folded into the UPDATE's WHERE clause so the
// check and the mutation are a single atomic statement: a worker whose lease
// expired, or whose job was reassigned, matches zero rows and mutates
// nothing. The lease is cleared on every outcome, including failures, so a
// terminated job never stays orphaned behind a dead lease.
func (s *PostgresJobStore) CompleteStep(ctx context.Context, req store.CompleteRequest) (*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !domain.IsValidCompletionTarget(req.NewStatus) {
		return nil, fmt.Errorf("completeStep target %q: %w", req.NewStatus, domain.ErrInvalidTargetStatus)
	}
	if req.WorkerID == "" {
		return nil, fmt.Errorf("%w: worker ID cannot be empty", store.ErrInvalidEntity)
	}

	now := time.Now().UTC()

	query := `
		UPDATE jobs
		SET status          = $1,
		    script          = COALESCE($2, script),
		    script_ready_at = CASE WHEN $1 = 'script_ready' THEN $3 ELSE script_ready_at END,
		    audio_path      = COALESCE($4, audio_path),
		    audio_ready_at  = CASE WHEN $1 = 'ready' THEN $3 ELSE audio_ready_at END,
		    failure_reason  = $5,
		    worker_id       = NULL,
		    lease_until     = NULL,
		    updated_at      = $3
		WHERE id = $6
		  AND worker_id = $7
		  AND lease_until > $3
		  AND status IN (` + completionSourceList(req.NewStatus) + `)
		RETURNING ` + jobColumns

	var completed *domain.Job

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, query,
			req.NewStatus,
			req.Script,
			now,
			req.AudioPath,
			req.FailureReason,
			req.JobID,
			req.WorkerID,
		)

		var scanErr error
		completed, scanErr = scanJob(row)
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return s.classifyCompletionRefusal(ctx, tx, req)
			}
			return scanErr
		}

		level := domain.LogLevelInfo
		if req.NewStatus == domain.StatusFailed || req.NewStatus == domain.StatusFailedMissed {
			level = domain.LogLevelError
		}

		meta := map[string]any{
			"user_ref":  redact.UserRef(completed.UserID),
			"status":    string(req.NewStatus),
			"worker_id": req.WorkerID,
		}
		if req.FailureReason != nil {
			meta["failure_reason"] = *req.FailureReason
		}

		return appendJobLog(ctx, tx, req.JobID, level, "job_step_completed", meta)
	})

	if err != nil {
		if store.IsLeaseError(err) || store.IsNotFoundError(err) ||
			errors.Is(err, domain.ErrInvalidTransition) {
			log.Warn("completion refused",
				slog.String("error", err.Error()),
				slog.String("job_id", req.JobID.String()),
				slog.String("worker_id", req.WorkerID),
				slog.String("new_status", string(req.NewStatus)))
			return nil, err
		}

		log.Error("failed to complete job step",
			slog.String("error", err.Error()),
			slog.String("job_id", req.JobID.String()),
			slog.String("worker_id", req.WorkerID))
		return nil, err
	}

	log.Info("job step completed",
		slog.String("job_id", req.JobID.String()),
		slog.String("status", string(completed.Status)),
		slog.String("worker_id", req.WorkerID))
	return completed, nil
}

// classifyCompletionRefusal turns a zero-row completion update into a precise
// error. The guarded UPDATE already refused the mutation; this read only
// improves the error the worker sees.
func (s *PostgresJobStore) classifyCompletionRefusal(
	ctx context.Context,
	tx *sql.Tx,
	req store.CompleteRequest,
) error {
	var status domain.BriefingStatus
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM jobs WHERE id = $1`, req.JobID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrJobNotFound
		}
		return err
	}

	if err := domain.ValidateTransition(status, req.NewStatus); err != nil {
		return fmt.Errorf("cannot move %s to %s: %w", status, req.NewStatus, domain.ErrInvalidTransition)
	}

	// Right source status, so the caller lost the lease: expired, or the job
	// was reclaimed by another worker.
	return store.ErrLeaseExpired
}

// MarkMissed implements store.JobStore.MarkMissed.
// Rows with a live lease are skipped; their holder may still finish, and the
// next sweep retires them once the lease lapses.
func (s *PostgresJobStore) MarkMissed(ctx context.Context, now time.Time, limit int) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 100
	}

	query := `
		WITH missed AS (
			SELECT id FROM jobs
			WHERE status IN ('queued', 'script_processing', 'script_ready', 'audio_processing')
			  AND window_end < $1
			  AND (lease_until IS NULL OR lease_until <= $1)
			ORDER BY window_end ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $2
		)
		UPDATE jobs
		SET status         = 'failed_missed',
		    worker_id      = NULL,
		    lease_until    = NULL,
		    failure_reason = 'window_end passed before completion',
		    updated_at     = $1
		FROM missed
		WHERE jobs.id = missed.id
		RETURNING jobs.id, jobs.user_id`

	var count int

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, now, limit)
		if err != nil {
			return err
		}
		defer func() {
			if err := rows.Close(); err != nil {
				log.Error("failed to close rows", slog.String("error", err.Error()))
			}
		}()

		type missedJob struct {
			id     uuid.UUID
			userID uuid.UUID
		}
		var missed []missedJob

		for rows.Next() {
			var m missedJob
			if err := rows.Scan(&m.id, &m.userID); err != nil {
				return err
			}
			missed = append(missed, m)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, m := range missed {
			err := appendJobLog(ctx, tx, m.id, domain.LogLevelError, "job_missed_deadline",
				map[string]any{
					"user_ref": redact.UserRef(m.userID),
					"status":   string(domain.StatusFailedMissed),
				})
			if err != nil {
				return err
			}
		}

		count = len(missed)
		return nil
	})

	if err != nil {
		log.Error("failed to mark missed jobs", slog.String("error", err.Error()))
		return 0, err
	}

	if count > 0 {
		log.Info("marked missed jobs", slog.Int("count", count))
	}
	return count, nil
}

// ListInRange implements store.JobStore.ListInRange.
func (s *PostgresJobStore) ListInRange(ctx context.Context, from, to time.Time) ([]store.JobSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, local_date, scheduled_at, status, attempt_count
		FROM jobs
		WHERE scheduled_at >= $1 AND scheduled_at < $2
		ORDER BY scheduled_at ASC`,
		from, to)
	if err != nil {
		log.Error("failed to list jobs in range",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	summaries := []store.JobSummary{}
	for rows.Next() {
		var sum store.JobSummary
		var status string
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.LocalDate, &sum.ScheduledAt, &status, &sum.AttemptCount); err != nil {
			return nil, err
		}
		sum.Status = domain.BriefingStatus(status)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// MarkDownloaded implements store.JobStore.MarkDownloaded.
// Only ready jobs accept a receipt; anything else reports not found.
func (s *PostgresJobStore) MarkDownloaded(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET downloaded_at = $1, updated_at = $1
		WHERE id = $2 AND status = 'ready'`,
		time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to mark job downloaded",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrJobNotFound
	}

	return nil
}

// completionSourceList renders the quoted source statuses that may move to
// the given completion target, derived from the shared transition table so
// the SQL can never drift from domain.ValidateTransition.
func completionSourceList(target domain.BriefingStatus) string {
	sources := []domain.BriefingStatus{
		domain.StatusQueued, domain.StatusScriptProcessing,
		domain.StatusScriptReady, domain.StatusAudioProcessing,
	}

	quoted := make([]string, 0, len(sources))
	for _, from := range sources {
		if domain.ValidateTransition(from, target) == nil {
			quoted = append(quoted, "'"+string(from)+"'")
		}
	}
	return strings.Join(quoted, ", ")
}

// appendJobLog inserts an append-only job log row inside the caller's
// transaction so job mutation and audit entry commit or roll back together.
func appendJobLog(
	ctx context.Context,
	tx store.DBTX,
	jobID uuid.UUID,
	level domain.LogLevel,
	message string,
	meta map[string]any,
) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal log meta: %w", err)
	}

	entry, err := domain.NewJobLogEntry(jobID, level, message, payload)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO job_logs (id, job_id, level, message, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.JobID, entry.Level, entry.Message, entry.Meta, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append job log: %w", err)
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanJob.
type scanner interface {
	Scan(dest ...any) error
}

// scanJob reads one job row in jobColumns order.
func scanJob(row scanner) (*domain.Job, error) {
	var job domain.Job
	var localDate time.Time
	var status string
	var workerID sql.NullString
	var leaseUntil, scriptReadyAt, audioReadyAt, downloadedAt sql.NullTime
	var script, audioPath, failureReason sql.NullString
	var snapshot []byte

	err := row.Scan(
		&job.ID,
		&job.UserID,
		&localDate,
		&job.ScheduledAt,
		&job.WindowStart,
		&job.WindowEnd,
		&status,
		&job.AttemptCount,
		&workerID,
		&leaseUntil,
		&snapshot,
		&script,
		&scriptReadyAt,
		&audioPath,
		&audioReadyAt,
		&downloadedAt,
		&failureReason,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.LocalDate = localDate.Format("2006-01-02")
	job.Status = domain.BriefingStatus(status)

	if err := json.Unmarshal(snapshot, &job.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	if workerID.Valid {
		v := workerID.String
		job.WorkerID = &v
	}
	if leaseUntil.Valid {
		t := leaseUntil.Time
		job.LeaseUntil = &t
	}
	if script.Valid {
		v := script.String
		job.Script = &v
	}
	if scriptReadyAt.Valid {
		t := scriptReadyAt.Time
		job.ScriptReadyAt = &t
	}
	if audioPath.Valid {
		v := audioPath.String
		job.AudioPath = &v
	}
	if audioReadyAt.Valid {
		t := audioReadyAt.Time
		job.AudioReadyAt = &t
	}
	if downloadedAt.Valid {
		t := downloadedAt.Time
		job.DownloadedAt = &t
	}
	if failureReason.Valid {
		v := failureReason.String
		job.FailureReason = &v
	}

	return &job, nil
}

// collectJobs scans all rows of a jobColumns query.
func collectJobs(rows *sql.Rows) ([]*domain.Job, error) {
	jobs := []*domain.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}
