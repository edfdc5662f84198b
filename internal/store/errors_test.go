package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daystart-app/daystart-api/internal/store"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, store.IsNotFoundError(store.ErrNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrJobNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrContentBlockNotFound))
	assert.True(t, store.IsNotFoundError(fmt.Errorf("context: %w", store.ErrJobNotFound)))

	assert.False(t, store.IsNotFoundError(store.ErrLeaseExpired))
	assert.False(t, store.IsNotFoundError(errors.New("something else")))
	assert.False(t, store.IsNotFoundError(nil))
}

func TestIsLeaseError(t *testing.T) {
	t.Parallel()

	assert.True(t, store.IsLeaseError(store.ErrLeaseExpired))
	assert.True(t, store.IsLeaseError(fmt.Errorf("completing job: %w", store.ErrLeaseExpired)))

	assert.False(t, store.IsLeaseError(store.ErrJobNotFound))
	assert.False(t, store.IsLeaseError(nil))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	inner := store.ErrUpdateFailed
	err := store.NewStoreError("job", "lease", "could not claim batch", inner)

	assert.Contains(t, err.Error(), "lease operation on job failed")
	assert.Contains(t, err.Error(), "could not claim batch")
	assert.ErrorIs(t, err, store.ErrUpdateFailed)

	bare := store.NewStoreError("job", "get", "boom", nil)
	assert.Equal(t, "get operation on job failed: boom", bare.Error())
}
