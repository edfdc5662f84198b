package service_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/events"
	"github.com/daystart-app/daystart-api/internal/store"
)

// mockJobStore implements store.JobStore with configurable function fields.
type mockJobStore struct {
	createOrResetFn  func(ctx context.Context, job *domain.Job) (*domain.Job, error)
	getByIDFn        func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	getByUserDateFn  func(ctx context.Context, userID uuid.UUID, localDate string) (*domain.Job, error)
	leaseFn          func(ctx context.Context, req store.LeaseRequest) ([]*domain.Job, error)
	completeStepFn   func(ctx context.Context, req store.CompleteRequest) (*domain.Job, error)
	markMissedFn     func(ctx context.Context, now time.Time, limit int) (int, error)
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
	return m.leaseFn(ctx, req)
}

func (m *mockJobStore) CompleteStep(
	ctx context.Context,
	req store.CompleteRequest,
) (*domain.Job, error) {
	return m.completeStepFn(ctx, req)
}

func (m *mockJobStore) MarkMissed(ctx context.Context, now time.Time, limit int) (int, error) {
	return m.markMissedFn(ctx, now, limit)
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

// mockJobLogStore implements store.JobLogStore.
type mockJobLogStore struct {
	appendFn    func(ctx context.Context, entry *domain.JobLogEntry) error
	listByJobFn func(ctx context.Context, jobID uuid.UUID, limit int) ([]*domain.JobLogEntry, error)
}

func (m *mockJobLogStore) Append(ctx context.Context, entry *domain.JobLogEntry) error {
	return m.appendFn(ctx, entry)
}

func (m *mockJobLogStore) ListByJob(
	ctx context.Context,
	jobID uuid.UUID,
	limit int,
) ([]*domain.JobLogEntry, error) {
	return m.listByJobFn(ctx, jobID, limit)
}

// mockContentBlockStore implements store.ContentBlockStore.
type mockContentBlockStore struct {
	upsertFn       func(ctx context.Context, block *domain.ContentBlock) error
	getFn          func(ctx context.Context, contentType domain.ContentType, region string) (*domain.ContentBlock, error)
	purgeExpiredFn func(ctx context.Context, now time.Time) (int, error)
}

func (m *mockContentBlockStore) Upsert(ctx context.Context, block *domain.ContentBlock) error {
	return m.upsertFn(ctx, block)
}

func (m *mockContentBlockStore) Get(
	ctx context.Context,
	contentType domain.ContentType,
	region string,
) (*domain.ContentBlock, error) {
	return m.getFn(ctx, contentType, region)
}

func (m *mockContentBlockStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	return m.purgeExpiredFn(ctx, now)
}

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	events []*events.JobCreatedEvent
	err    error
}

func (e *recordingEmitter) EmitEvent(ctx context.Context, event *events.JobCreatedEvent) error {
	e.events = append(e.events, event)
	return e.err
}

// mockFetcher implements service.ContentFetcher.
type mockFetcher struct {
	fetchFn func(ctx context.Context, contentType domain.ContentType, region string) (json.RawMessage, int, error)
	calls   int
}

func (m *mockFetcher) Fetch(
	ctx context.Context,
	contentType domain.ContentType,
	region string,
) (json.RawMessage, int, error) {
	m.calls++
	return m.fetchFn(ctx, contentType, region)
}
