package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BriefingStatus represents the processing state of a briefing job.
type BriefingStatus string

// Possible briefing job status values. A job moves forward through the
// pipeline only; the sole way back to queued is an explicit upsert reset.
const (
	StatusQueued           BriefingStatus = "queued"
	StatusScriptProcessing BriefingStatus = "script_processing"
	StatusScriptReady      BriefingStatus = "script_ready"
	StatusAudioProcessing  BriefingStatus = "audio_processing"
	StatusReady            BriefingStatus = "ready"
	StatusFailed           BriefingStatus = "failed"
	StatusFailedMissed     BriefingStatus = "failed_missed"
)

// Common validation errors for Job
var (
	ErrEmptyJobID          = errors.New("job ID cannot be empty")
	ErrEmptyJobUserID      = errors.New("job user ID cannot be empty")
	ErrEmptyLocalDate      = errors.New("job local date cannot be empty")
	ErrInvalidJobStatus    = errors.New("invalid job status")
	ErrInvalidWindow       = errors.New("job window must satisfy window_start < scheduled_at <= window_end")
	ErrScheduledInPast     = errors.New("scheduled_at must be in the future")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidLeaseStatus  = errors.New("status is not leasable")
	ErrInconsistentLease   = errors.New("worker_id and lease_until must both be set or both be null")
	ErrInvalidTargetStatus = errors.New("invalid completion target status")
)

// Job is one scheduled briefing per user per local calendar day, tracked
// through the two-stage generation pipeline (script, then audio).
type Job struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	LocalDate string    `json:"local_date"` // user's calendar day, YYYY-MM-DD, not UTC

	ScheduledAt time.Time `json:"scheduled_at"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	Status       BriefingStatus `json:"status"`
	AttemptCount int            `json:"attempt_count"`
	WorkerID     *string        `json:"worker_id,omitempty"`
	LeaseUntil   *time.Time     `json:"lease_until,omitempty"`

	Snapshot PreferencesSnapshot `json:"snapshot"`

	Script        *string    `json:"script,omitempty"`
	ScriptReadyAt *time.Time `json:"script_ready_at,omitempty"`
	AudioPath     *string    `json:"audio_path,omitempty"`
	AudioReadyAt  *time.Time `json:"audio_ready_at,omitempty"`

	DownloadedAt  *time.Time `json:"downloaded_at,omitempty"`
	FailureReason *string    `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJob creates a queued Job for the given user and local date.
// It generates a new UUID for the job ID and sets the creation timestamps.
// Returns an error if validation fails.
func NewJob(
	userID uuid.UUID,
	localDate string,
	scheduledAt, windowStart, windowEnd time.Time,
	snapshot PreferencesSnapshot,
) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:          uuid.New(),
		UserID:      userID,
		LocalDate:   localDate,
		ScheduledAt: scheduledAt,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Status:      StatusQueued,
		Snapshot:    snapshot,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks the job's identity, timing and lease invariants.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.UserID == uuid.Nil {
		return ErrEmptyJobUserID
	}

	if j.LocalDate == "" {
		return ErrEmptyLocalDate
	}
	if _, err := time.Parse("2006-01-02", j.LocalDate); err != nil {
		return ErrEmptyLocalDate
	}

	if !IsValidStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	if !j.WindowStart.Before(j.ScheduledAt) || j.ScheduledAt.After(j.WindowEnd) {
		return ErrInvalidWindow
	}

	if (j.WorkerID == nil) != (j.LeaseUntil == nil) {
		return ErrInconsistentLease
	}

	return nil
}

// IsTerminal reports whether the job has reached a terminal status. Terminal
// jobs are never offered by the lease manager; only an upsert reset can
// reprocess them.
func (j *Job) IsTerminal() bool {
	return IsTerminalStatus(j.Status)
}

// LeaseExpired reports whether the job's lease has lapsed at the given
// instant. A job with an expired lease is free regardless of its recorded
// worker_id.
func (j *Job) LeaseExpired(now time.Time) bool {
	return j.LeaseUntil == nil || !j.LeaseUntil.After(now)
}

// IsValidStatus checks if the given status is a member of the closed enum.
func IsValidStatus(status BriefingStatus) bool {
	switch status {
	case StatusQueued, StatusScriptProcessing, StatusScriptReady,
		StatusAudioProcessing, StatusReady, StatusFailed, StatusFailedMissed:
		return true
	default:
		return false
	}
}

// IsTerminalStatus reports whether the status ends the pipeline.
func IsTerminalStatus(status BriefingStatus) bool {
	switch status {
	case StatusReady, StatusFailed, StatusFailedMissed:
		return true
	default:
		return false
	}
}

// LeaseTarget returns the in-flight status a lease claim advances the given
// status to. Only queued and script_ready are leasable; anything else returns
// ErrInvalidLeaseStatus, which callers must treat as a programming error
// rather than a runtime condition.
func LeaseTarget(status BriefingStatus) (BriefingStatus, error) {
	switch status {
	case StatusQueued:
		return StatusScriptProcessing, nil
	case StatusScriptReady:
		return StatusAudioProcessing, nil
	default:
		return "", ErrInvalidLeaseStatus
	}
}

// ValidateTransition is the single transition check shared by the lease
// manager and the completion protocol. It permits only forward movement
// through the pipeline:
//
//	queued            -> script_processing            (lease)
//	script_processing -> script_ready | failed | failed_missed
//	script_ready      -> audio_processing             (lease)
//	audio_processing  -> ready | failed | failed_missed
//
// failed_missed is additionally reachable from queued and script_ready so the
// deadline reaper can retire jobs whose window closed before any worker
// claimed them. The upsert reset back to queued happens outside this
// function; no completion or lease call may regress a status.
func ValidateTransition(from, to BriefingStatus) error {
	if !IsValidStatus(from) || !IsValidStatus(to) {
		return ErrInvalidJobStatus
	}

	allowed := map[BriefingStatus][]BriefingStatus{
		StatusQueued:           {StatusScriptProcessing, StatusFailedMissed},
		StatusScriptProcessing: {StatusScriptReady, StatusFailed, StatusFailedMissed},
		StatusScriptReady:      {StatusAudioProcessing, StatusFailedMissed},
		StatusAudioProcessing:  {StatusReady, StatusFailed, StatusFailedMissed},
	}

	for _, next := range allowed[from] {
		if next == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// IsValidCompletionTarget reports whether a completeStep call may name the
// given status. The two in-flight statuses are reachable only through the
// lease manager, and queued only through an upsert reset.
func IsValidCompletionTarget(status BriefingStatus) bool {
	switch status {
	case StatusScriptReady, StatusReady, StatusFailed, StatusFailedMissed:
		return true
	default:
		return false
	}
}
