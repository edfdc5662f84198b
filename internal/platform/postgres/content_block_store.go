package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/platform/logger"
	"github.com/daystart-app/daystart-api/internal/store"
)

// PostgresContentBlockStore implements the store.ContentBlockStore interface
// using a PostgreSQL database as the storage backend.
type PostgresContentBlockStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresContentBlockStore creates a new PostgreSQL implementation of the
// ContentBlockStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresContentBlockStore(db store.DBTX, logger *slog.Logger) *PostgresContentBlockStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresContentBlockStore{
		db:     db,
		logger: logger.With(slog.String("component", "content_block_store")),
	}
}

// Ensure PostgresContentBlockStore implements store.ContentBlockStore interface
var _ store.ContentBlockStore = (*PostgresContentBlockStore)(nil)

// Upsert implements store.ContentBlockStore.Upsert.
func (s *PostgresContentBlockStore) Upsert(ctx context.Context, block *domain.ContentBlock) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := block.Validate(); err != nil {
		log.Warn("content block validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("content_type", string(block.ContentType)),
			slog.String("region", block.Region))
		return err
	}

	query := `
		INSERT INTO content_blocks (content_type, region, payload, importance, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (content_type, region) DO UPDATE SET
			payload    = EXCLUDED.payload,
			importance = EXCLUDED.importance,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		block.ContentType,
		block.Region,
		block.Payload,
		block.Importance,
		block.ExpiresAt,
		block.CreatedAt,
	)

	if err != nil {
		log.Error("failed to upsert content block",
			slog.String("error", err.Error()),
			slog.String("content_type", string(block.ContentType)),
			slog.String("region", block.Region))
		return err
	}

	log.Debug("content block upserted",
		slog.String("content_type", string(block.ContentType)),
		slog.String("region", block.Region),
		slog.Time("expires_at", block.ExpiresAt))
	return nil
}

// Get implements store.ContentBlockStore.Get.
// Expired blocks are treated as absent so callers re-fetch upstream content
// instead of serving stale payloads.
func (s *PostgresContentBlockStore) Get(
	ctx context.Context,
	contentType domain.ContentType,
	region string,
) (*domain.ContentBlock, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT content_type, region, payload, importance, expires_at, created_at
		FROM content_blocks
		WHERE content_type = $1 AND region = $2 AND expires_at > $3
	`

	var block domain.ContentBlock
	var blockType string

	err := s.db.QueryRowContext(ctx, query, contentType, region, time.Now().UTC()).Scan(
		&blockType,
		&block.Region,
		&block.Payload,
		&block.Importance,
		&block.ExpiresAt,
		&block.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrContentBlockNotFound
		}
		log.Error("failed to get content block",
			slog.String("error", err.Error()),
			slog.String("content_type", string(contentType)),
			slog.String("region", region))
		return nil, err
	}

	block.ContentType = domain.ContentType(blockType)
	return &block, nil
}

// PurgeExpired implements store.ContentBlockStore.PurgeExpired.
func (s *PostgresContentBlockStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM content_blocks WHERE expires_at <= $1`, now)
	if err != nil {
		log.Error("failed to purge expired content blocks",
			slog.String("error", err.Error()))
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if affected > 0 {
		log.Info("purged expired content blocks", slog.Int64("count", affected))
	}
	return int(affected), nil
}
