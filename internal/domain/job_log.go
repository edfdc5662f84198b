package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// LogLevel is the severity of a job log entry.
type LogLevel string

// Supported log entry levels.
const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Job log validation errors
var (
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrEmptyLogMessage = errors.New("log message cannot be empty")
)

// JobLogEntry is an append-only structured record tied to a job. Entries are
// never mutated after insert; they are the operator-facing audit trail for
// the pipeline (creation, completion, failure, missed deadlines).
type JobLogEntry struct {
	ID        uuid.UUID       `json:"id"`
	JobID     uuid.UUID       `json:"job_id"`
	Level     LogLevel        `json:"level"`
	Message   string          `json:"message"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewJobLogEntry creates a log entry for the given job. meta may be nil.
func NewJobLogEntry(jobID uuid.UUID, level LogLevel, message string, meta json.RawMessage) (*JobLogEntry, error) {
	entry := &JobLogEntry{
		ID:        uuid.New(),
		JobID:     jobID,
		Level:     level,
		Message:   message,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks the log entry's level and message.
func (e *JobLogEntry) Validate() error {
	switch e.Level {
	case LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}

	if e.Message == "" {
		return ErrEmptyLogMessage
	}

	return nil
}
