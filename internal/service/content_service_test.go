package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/service"
	"github.com/daystart-app/daystart-api/internal/store"
)

func TestGetOrFetch(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{"headlines":["rates hold steady"]}`)

	t.Run("cache hit skips fetcher", func(t *testing.T) {
		t.Parallel()

		cached, err := domain.NewContentBlock(domain.ContentTypeNews, "us-east", payload, 5, time.Hour)
		require.NoError(t, err)

		blockStore := &mockContentBlockStore{
			getFn: func(ctx context.Context, contentType domain.ContentType, region string) (*domain.ContentBlock, error) {
				return cached, nil
			},
		}
		fetcher := &mockFetcher{}
		svc := service.NewContentService(blockStore, fetcher, time.Hour, testLogger())

		got, err := svc.GetOrFetch(context.Background(), domain.ContentTypeNews, "us-east")
		require.NoError(t, err)
		assert.Equal(t, cached, got)
		assert.Zero(t, fetcher.calls)
	})

	t.Run("cache miss fetches and caches", func(t *testing.T) {
		t.Parallel()

		var upserted *domain.ContentBlock
		blockStore := &mockContentBlockStore{
			getFn: func(ctx context.Context, contentType domain.ContentType, region string) (*domain.ContentBlock, error) {
				return nil, store.ErrContentBlockNotFound
			},
			upsertFn: func(ctx context.Context, block *domain.ContentBlock) error {
				upserted = block
				return nil
			},
		}
		fetcher := &mockFetcher{
			fetchFn: func(ctx context.Context, contentType domain.ContentType, region string) (json.RawMessage, int, error) {
				return payload, 7, nil
			},
		}
		svc := service.NewContentService(blockStore, fetcher, time.Hour, testLogger())

		got, err := svc.GetOrFetch(context.Background(), domain.ContentTypeNews, "us-east")
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.calls)
		assert.Equal(t, got, upserted)
		assert.Equal(t, 7, got.Importance)
		assert.False(t, got.Expired(time.Now().UTC()))
	})

	t.Run("cache write failure still serves the fetch", func(t *testing.T) {
		t.Parallel()

		blockStore := &mockContentBlockStore{
			getFn: func(ctx context.Context, contentType domain.ContentType, region string) (*domain.ContentBlock, error) {
				return nil, store.ErrContentBlockNotFound
			},
			upsertFn: func(ctx context.Context, block *domain.ContentBlock) error {
				return assert.AnError
			},
		}
		fetcher := &mockFetcher{
			fetchFn: func(ctx context.Context, contentType domain.ContentType, region string) (json.RawMessage, int, error) {
				return payload, 3, nil
			},
		}
		svc := service.NewContentService(blockStore, fetcher, time.Hour, testLogger())

		got, err := svc.GetOrFetch(context.Background(), domain.ContentTypeNews, "us-east")
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("miss without fetcher reports not found", func(t *testing.T) {
		t.Parallel()

		blockStore := &mockContentBlockStore{
			getFn: func(ctx context.Context, contentType domain.ContentType, region string) (*domain.ContentBlock, error) {
				return nil, store.ErrContentBlockNotFound
			},
		}
		svc := service.NewContentService(blockStore, nil, time.Hour, testLogger())

		_, err := svc.GetOrFetch(context.Background(), domain.ContentTypeNews, "us-east")
		assert.ErrorIs(t, err, store.ErrContentBlockNotFound)
	})

	t.Run("fetch failure surfaces", func(t *testing.T) {
		t.Parallel()

		blockStore := &mockContentBlockStore{
			getFn: func(ctx context.Context, contentType domain.ContentType, region string) (*domain.ContentBlock, error) {
				return nil, store.ErrContentBlockNotFound
			},
		}
		fetcher := &mockFetcher{
			fetchFn: func(ctx context.Context, contentType domain.ContentType, region string) (json.RawMessage, int, error) {
				return nil, 0, assert.AnError
			},
		}
		svc := service.NewContentService(blockStore, fetcher, time.Hour, testLogger())

		_, err := svc.GetOrFetch(context.Background(), domain.ContentTypeNews, "us-east")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestContentUpsert(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{"scores":[{"home":2,"away":1}]}`)

	t.Run("stores pushed block with TTL", func(t *testing.T) {
		t.Parallel()

		var upserted *domain.ContentBlock
		blockStore := &mockContentBlockStore{
			upsertFn: func(ctx context.Context, block *domain.ContentBlock) error {
				upserted = block
				return nil
			},
		}
		svc := service.NewContentService(blockStore, nil, 2*time.Hour, testLogger())

		block, err := svc.Upsert(context.Background(), domain.ContentTypeSports, "uk", payload, 4)
		require.NoError(t, err)
		assert.Equal(t, block, upserted)
		assert.WithinDuration(t, time.Now().UTC().Add(2*time.Hour), block.ExpiresAt, time.Minute)
	})

	t.Run("rejects invalid block", func(t *testing.T) {
		t.Parallel()

		svc := service.NewContentService(&mockContentBlockStore{}, nil, time.Hour, testLogger())

		_, err := svc.Upsert(context.Background(), "weather", "uk", payload, 4)
		assert.ErrorIs(t, err, domain.ErrInvalidContentType)
	})
}

func TestContentPurgeExpired(t *testing.T) {
	t.Parallel()

	blockStore := &mockContentBlockStore{
		purgeExpiredFn: func(ctx context.Context, now time.Time) (int, error) {
			return 3, nil
		},
	}
	svc := service.NewContentService(blockStore, nil, time.Hour, testLogger())

	n, err := svc.PurgeExpired(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
