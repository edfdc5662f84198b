package store

import (
	"context"
	"time"

	"github.com/daystart-app/daystart-api/internal/domain"
)

// ContentBlockStore caches shared upstream content (news/sports/stocks) with
// independent, job-agnostic expiry.
type ContentBlockStore interface {
	// Upsert stores a block, replacing any previous block for the same
	// content type and region.
	Upsert(ctx context.Context, block *domain.ContentBlock) error

	// Get returns the live (unexpired) block for the given type and region.
	// Returns ErrContentBlockNotFound if none exists or the cached block has
	// expired.
	Get(ctx context.Context, contentType domain.ContentType, region string) (*domain.ContentBlock, error)

	// PurgeExpired removes blocks whose expiry has passed and returns how
	// many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
