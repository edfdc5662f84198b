package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/platform/logger"
	"github.com/daystart-app/daystart-api/internal/store"
)

// PostgresJobLogStore implements the store.JobLogStore interface using a
// PostgreSQL database as the storage backend. Rows are append-only; there is
// deliberately no update or delete path.
type PostgresJobLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobLogStore creates a new PostgreSQL implementation of the
// JobLogStore interface. If logger is nil, a default logger will be used.
func NewPostgresJobLogStore(db store.DBTX, logger *slog.Logger) *PostgresJobLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_log_store")),
	}
}

// Ensure PostgresJobLogStore implements store.JobLogStore interface
var _ store.JobLogStore = (*PostgresJobLogStore)(nil)

// Append implements store.JobLogStore.Append.
func (s *PostgresJobLogStore) Append(ctx context.Context, entry *domain.JobLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("job log validation failed during append",
			slog.String("error", err.Error()),
			slog.String("job_id", entry.JobID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_logs (id, job_id, level, message, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.JobID, entry.Level, entry.Message, entry.Meta, entry.CreatedAt)
	if err != nil {
		log.Error("failed to append job log",
			slog.String("error", err.Error()),
			slog.String("job_id", entry.JobID.String()))
		return err
	}

	return nil
}

// ListByJob implements store.JobLogStore.ListByJob.
func (s *PostgresJobLogStore) ListByJob(
	ctx context.Context,
	jobID uuid.UUID,
	limit int,
) ([]*domain.JobLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, level, message, meta, created_at
		FROM job_logs
		WHERE job_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		jobID, limit)
	if err != nil {
		log.Error("failed to query job logs",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []*domain.JobLogEntry{}
	for rows.Next() {
		var entry domain.JobLogEntry
		var level string
		var meta []byte
		var logJobID uuid.NullUUID

		if err := rows.Scan(&entry.ID, &logJobID, &level, &entry.Message, &meta, &entry.CreatedAt); err != nil {
			return nil, err
		}

		entry.Level = domain.LogLevel(level)
		entry.Meta = meta
		if logJobID.Valid {
			entry.JobID = logJobID.UUID
		}

		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
