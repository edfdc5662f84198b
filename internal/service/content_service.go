package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/store"
)

// ContentFetcher retrieves fresh upstream content for a type/region pair.
// Implementations wrap the external news/sports/stocks providers.
type ContentFetcher interface {
	// Fetch returns the payload to cache and its relative importance.
	Fetch(ctx context.Context, contentType domain.ContentType, region string) (json.RawMessage, int, error)
}

// ContentService maintains the shared content cache the script stage reads
// from. Blocks are cross-user: one news fetch serves every briefing in the
// same region until the block expires.
type ContentService struct {
	blockStore store.ContentBlockStore
	fetcher    ContentFetcher
	ttl        time.Duration
	logger     *slog.Logger
}

// NewContentService creates a new ContentService. ttl is how long a freshly
// fetched block stays valid (JobsConfig.ContentTTL). fetcher may be nil when
// content arrives only by push; a cache miss is then reported as not found.
func NewContentService(
	blockStore store.ContentBlockStore,
	fetcher ContentFetcher,
	ttl time.Duration,
	logger *slog.Logger,
) *ContentService {
	return &ContentService{
		blockStore: blockStore,
		fetcher:    fetcher,
		ttl:        ttl,
		logger:     logger.With("component", "content_service"),
	}
}

// GetOrFetch returns the live cached block for the given type and region,
// fetching and caching a fresh one when the cache misses or has expired.
// A fetch failure on a cache miss is returned to the caller; the script stage
// decides whether the briefing can proceed without that segment.
func (s *ContentService) GetOrFetch(
	ctx context.Context,
	contentType domain.ContentType,
	region string,
) (*domain.ContentBlock, error) {
	block, err := s.blockStore.Get(ctx, contentType, region)
	if err == nil {
		return block, nil
	}
	if !errors.Is(err, store.ErrContentBlockNotFound) {
		return nil, fmt.Errorf("failed to read content cache: %w", err)
	}
	if s.fetcher == nil {
		return nil, err
	}

	payload, importance, err := s.fetcher.Fetch(ctx, contentType, region)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s content for %q: %w", contentType, region, err)
	}

	fresh, err := domain.NewContentBlock(contentType, region, payload, importance, s.ttl)
	if err != nil {
		return nil, err
	}

	if err := s.blockStore.Upsert(ctx, fresh); err != nil {
		// The fetched payload is still usable this once; log and serve it.
		s.logger.WarnContext(ctx, "failed to cache content block",
			"error", err,
			"content_type", contentType,
			"region", region)
	} else {
		s.logger.InfoContext(ctx, "content block refreshed",
			"content_type", contentType,
			"region", region,
			"expires_at", fresh.ExpiresAt)
	}

	return fresh, nil
}

// Upsert stores a pushed content block, replacing any cached block for the
// same type and region. The re-sync scheduler uses this to pre-warm content
// ahead of a batch of briefings.
func (s *ContentService) Upsert(
	ctx context.Context,
	contentType domain.ContentType,
	region string,
	payload json.RawMessage,
	importance int,
) (*domain.ContentBlock, error) {
	block, err := domain.NewContentBlock(contentType, region, payload, importance, s.ttl)
	if err != nil {
		return nil, err
	}

	if err := s.blockStore.Upsert(ctx, block); err != nil {
		return nil, fmt.Errorf("failed to store content block: %w", err)
	}

	s.logger.InfoContext(ctx, "content block stored",
		"content_type", contentType,
		"region", region,
		"expires_at", block.ExpiresAt)

	return block, nil
}

// PurgeExpired removes expired blocks and returns how many were removed.
func (s *ContentService) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	n, err := s.blockStore.PurgeExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired content blocks: %w", err)
	}
	return n, nil
}
