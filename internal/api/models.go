package api

import (
	"encoding/json"
	"time"

	"github.com/daystart-app/daystart-api/internal/domain"
)

// jobLogLimit caps how many audit entries GET /jobs/{id}/logs returns.
const jobLogLimit = 50

// SnapshotRequest mirrors domain.PreferencesSnapshot on the wire. The server
// copies it verbatim into the job's immutable snapshot.
type SnapshotRequest struct {
	PreferredName   string   `json:"preferred_name"`
	Location        string   `json:"location"`
	Weather         string   `json:"weather"`
	CalendarContext string   `json:"calendar_context"`
	IncludeNews     bool     `json:"include_news"`
	IncludeSports   bool     `json:"include_sports"`
	IncludeStocks   bool     `json:"include_stocks"`
	StockSymbols    []string `json:"stock_symbols"`
	Voice           string   `json:"voice" validate:"required"`
	LengthSeconds   int      `json:"length_seconds" validate:"required,gt=0"`
}

// CreateJobRequest is the body of POST /jobs. The authenticated user is taken
// from the bearer token, never from the body.
type CreateJobRequest struct {
	LocalDate   string          `json:"local_date" validate:"required,datetime=2006-01-02"`
	ScheduledAt time.Time       `json:"scheduled_at" validate:"required"`
	WindowStart time.Time       `json:"window_start" validate:"required"`
	WindowEnd   time.Time       `json:"window_end" validate:"required"`
	Snapshot    SnapshotRequest `json:"snapshot" validate:"required"`
}

// JobResponse represents one briefing job on the wire. Lease bookkeeping
// (worker_id, lease_until) stays internal.
type JobResponse struct {
	ID            string     `json:"id"`
	LocalDate     string     `json:"local_date"`
	Status        string     `json:"status"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	WindowStart   time.Time  `json:"window_start"`
	WindowEnd     time.Time  `json:"window_end"`
	AttemptCount  int        `json:"attempt_count"`
	Script        *string    `json:"script,omitempty"`
	ScriptReadyAt *time.Time `json:"script_ready_at,omitempty"`
	AudioPath     *string    `json:"audio_path,omitempty"`
	AudioReadyAt  *time.Time `json:"audio_ready_at,omitempty"`
	DownloadedAt  *time.Time `json:"downloaded_at,omitempty"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// jobToResponse converts a domain job to its wire representation.
func jobToResponse(job *domain.Job) JobResponse {
	return JobResponse{
		ID:            job.ID.String(),
		LocalDate:     job.LocalDate,
		Status:        string(job.Status),
		ScheduledAt:   job.ScheduledAt,
		WindowStart:   job.WindowStart,
		WindowEnd:     job.WindowEnd,
		AttemptCount:  job.AttemptCount,
		Script:        job.Script,
		ScriptReadyAt: job.ScriptReadyAt,
		AudioPath:     job.AudioPath,
		AudioReadyAt:  job.AudioReadyAt,
		DownloadedAt:  job.DownloadedAt,
		FailureReason: job.FailureReason,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
}

// JobLogResponse is one audit-trail entry on the wire.
type JobLogResponse struct {
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func jobLogsToResponse(entries []*domain.JobLogEntry) []JobLogResponse {
	out := make([]JobLogResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, JobLogResponse{
			Level:     string(entry.Level),
			Message:   entry.Message,
			Meta:      entry.Meta,
			CreatedAt: entry.CreatedAt,
		})
	}
	return out
}

func snapshotFromRequest(req SnapshotRequest) domain.PreferencesSnapshot {
	return domain.PreferencesSnapshot{
		PreferredName:   req.PreferredName,
		Location:        req.Location,
		Weather:         req.Weather,
		CalendarContext: req.CalendarContext,
		IncludeNews:     req.IncludeNews,
		IncludeSports:   req.IncludeSports,
		IncludeStocks:   req.IncludeStocks,
		StockSymbols:    req.StockSymbols,
		Voice:           req.Voice,
		LengthSeconds:   req.LengthSeconds,
	}
}
