package api_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/store"
)

// mockJobStore implements store.JobStore for handler tests.
type mockJobStore struct {
	createOrResetFn  func(ctx context.Context, job *domain.Job) (*domain.Job, error)
	getByIDFn        func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	getByUserDateFn  func(ctx context.Context, userID uuid.UUID, localDate string) (*domain.Job, error)
	listInRangeFn    func(ctx context.Context, from, to time.Time) ([]store.JobSummary, error)
	markDownloadedFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockJobStore) CreateOrReset(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	return m.createOrResetFn(ctx, job)
}

func (m *mockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockJobStore) GetByUserDate(
	ctx context.Context,
	userID uuid.UUID,
	localDate string,
) (*domain.Job, error) {
	return m.getByUserDateFn(ctx, userID, localDate)
}

func (m *mockJobStore) Lease(ctx context.Context, req store.LeaseRequest) ([]*domain.Job, error) {
	panic("not used in handler tests")
}

func (m *mockJobStore) CompleteStep(
	ctx context.Context,
	req store.CompleteRequest,
) (*domain.Job, error) {
	panic("not used in handler tests")
}

func (m *mockJobStore) MarkMissed(ctx context.Context, now time.Time, limit int) (int, error) {
	panic("not used in handler tests")
}

func (m *mockJobStore) ListInRange(
	ctx context.Context,
	from, to time.Time,
) ([]store.JobSummary, error) {
	return m.listInRangeFn(ctx, from, to)
}

func (m *mockJobStore) MarkDownloaded(ctx context.Context, id uuid.UUID) error {
	return m.markDownloadedFn(ctx, id)
}

// mockJobLogStore implements store.JobLogStore for handler tests.
type mockJobLogStore struct {
	listByJobFn func(ctx context.Context, jobID uuid.UUID, limit int) ([]*domain.JobLogEntry, error)
}

func (m *mockJobLogStore) Append(ctx context.Context, entry *domain.JobLogEntry) error {
	panic("not used in handler tests")
}

func (m *mockJobLogStore) ListByJob(
	ctx context.Context,
	jobID uuid.UUID,
	limit int,
) ([]*domain.JobLogEntry, error) {
	return m.listByJobFn(ctx, jobID, limit)
}
