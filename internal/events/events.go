package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobCreatedEvent announces that a briefing job was created or reset back to
// queued. Stage workers subscribe to it so a fresh job is picked up on the
// next poll cycle rather than a full tick later. Delivery is best-effort and
// purely an in-process latency optimization; the database remains the source
// of truth for what is leasable.
type JobCreatedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// JobID identifies the created or reset job
	JobID uuid.UUID `json:"job_id"`

	// ScheduledAt is the job's target delivery instant
	ScheduledAt time.Time `json:"scheduled_at"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewJobCreatedEvent creates an event for the given job.
func NewJobCreatedEvent(jobID uuid.UUID, scheduledAt time.Time) *JobCreatedEvent {
	return &JobCreatedEvent{
		ID:          uuid.New(),
		JobID:       jobID,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *JobCreatedEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *JobCreatedEvent) error
}
