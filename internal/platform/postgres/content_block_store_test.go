package postgres

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/store"
)

// newTestRegion yields a unique cache key per test so runs never collide on
// the (content_type, region) primary key, and cleans up after itself.
func newTestRegion(t *testing.T) string {
	t.Helper()

	db := getTestDB(t)
	region := fmt.Sprintf("test-%s", uuid.New().String()[:8])
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM content_blocks WHERE region = $1`, region)
	})
	return region
}

func TestContentBlockUpsertAndGet(t *testing.T) {
	db := getTestDB(t)
	ctx := testContext(t)
	blockStore := NewPostgresContentBlockStore(db, slog.Default())
	region := newTestRegion(t)

	block, err := domain.NewContentBlock(
		domain.ContentTypeNews, region,
		json.RawMessage(`{"headlines":["first"]}`), 5, time.Hour)
	require.NoError(t, err)
	require.NoError(t, blockStore.Upsert(ctx, block))

	fetched, err := blockStore.Get(ctx, domain.ContentTypeNews, region)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentTypeNews, fetched.ContentType)
	assert.Equal(t, region, fetched.Region)
	assert.JSONEq(t, `{"headlines":["first"]}`, string(fetched.Payload))
	assert.Equal(t, 5, fetched.Importance)

	// Re-upserting the same key replaces the payload in place.
	fresher, err := domain.NewContentBlock(
		domain.ContentTypeNews, region,
		json.RawMessage(`{"headlines":["second"]}`), 8, time.Hour)
	require.NoError(t, err)
	require.NoError(t, blockStore.Upsert(ctx, fresher))

	fetched, err = blockStore.Get(ctx, domain.ContentTypeNews, region)
	require.NoError(t, err)
	assert.JSONEq(t, `{"headlines":["second"]}`, string(fetched.Payload))
	assert.Equal(t, 8, fetched.Importance)

	// The type is part of the key.
	_, err = blockStore.Get(ctx, domain.ContentTypeSports, region)
	assert.ErrorIs(t, err, store.ErrContentBlockNotFound)
}

func TestContentBlockGetTreatsExpiredAsAbsent(t *testing.T) {
	db := getTestDB(t)
	ctx := testContext(t)
	blockStore := NewPostgresContentBlockStore(db, slog.Default())
	region := newTestRegion(t)

	block, err := domain.NewContentBlock(
		domain.ContentTypeStocks, region,
		json.RawMessage(`{"AAPL":123.45}`), 3, time.Hour)
	require.NoError(t, err)
	require.NoError(t, blockStore.Upsert(ctx, block))

	_, err = db.ExecContext(ctx,
		`UPDATE content_blocks SET expires_at = $1 WHERE content_type = $2 AND region = $3`,
		time.Now().UTC().Add(-time.Minute), domain.ContentTypeStocks, region)
	require.NoError(t, err)

	_, err = blockStore.Get(ctx, domain.ContentTypeStocks, region)
	assert.ErrorIs(t, err, store.ErrContentBlockNotFound)
}

func TestContentBlockPurgeExpired(t *testing.T) {
	db := getTestDB(t)
	ctx := testContext(t)
	blockStore := NewPostgresContentBlockStore(db, slog.Default())
	expiredRegion := newTestRegion(t)
	liveRegion := newTestRegion(t)

	expired, err := domain.NewContentBlock(
		domain.ContentTypeSports, expiredRegion,
		json.RawMessage(`{"scores":[]}`), 2, time.Hour)
	require.NoError(t, err)
	require.NoError(t, blockStore.Upsert(ctx, expired))
	_, err = db.ExecContext(ctx,
		`UPDATE content_blocks SET expires_at = $1 WHERE region = $2`,
		time.Now().UTC().Add(-time.Minute), expiredRegion)
	require.NoError(t, err)

	live, err := domain.NewContentBlock(
		domain.ContentTypeSports, liveRegion,
		json.RawMessage(`{"scores":[1]}`), 2, time.Hour)
	require.NoError(t, err)
	require.NoError(t, blockStore.Upsert(ctx, live))

	n, err := blockStore.PurgeExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_blocks WHERE region = $1`, expiredRegion).Scan(&count))
	assert.Equal(t, 0, count)

	_, err = blockStore.Get(ctx, domain.ContentTypeSports, liveRegion)
	assert.NoError(t, err, "live block survives the purge")
}
