package store

import (
	"context"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/google/uuid"
)

// JobLogStore records append-only structured log entries tied to jobs.
// Entries are never updated or deleted by the application.
type JobLogStore interface {
	// Append persists a new log entry.
	Append(ctx context.Context, entry *domain.JobLogEntry) error

	// ListByJob returns the most recent entries for a job, newest first,
	// capped at limit.
	ListByJob(ctx context.Context, jobID uuid.UUID, limit int) ([]*domain.JobLogEntry, error)
}
