package task_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/store"
	"github.com/daystart-app/daystart-api/internal/task"
)

// mockJobStore implements store.JobStore for worker tests. Only the methods a
// worker touches are scriptable; the rest panic if called.
type mockJobStore struct {
	mu sync.Mutex

	leaseFn        func(ctx context.Context, req store.LeaseRequest) ([]*domain.Job, error)
	completeStepFn func(ctx context.Context, req store.CompleteRequest) (*domain.Job, error)
	markMissedFn   func(ctx context.Context, now time.Time, limit int) (int, error)

	leaseRequests    []store.LeaseRequest
	completeRequests []store.CompleteRequest
}

func (m *mockJobStore) Lease(ctx context.Context, req store.LeaseRequest) ([]*domain.Job, error) {
	m.mu.Lock()
	m.leaseRequests = append(m.leaseRequests, req)
	m.mu.Unlock()
	return m.leaseFn(ctx, req)
}

func (m *mockJobStore) CompleteStep(
	ctx context.Context,
	req store.CompleteRequest,
) (*domain.Job, error) {
	m.mu.Lock()
	m.completeRequests = append(m.completeRequests, req)
	m.mu.Unlock()
	return m.completeStepFn(ctx, req)
}

func (m *mockJobStore) MarkMissed(ctx context.Context, now time.Time, limit int) (int, error) {
	return m.markMissedFn(ctx, now, limit)
}

func (m *mockJobStore) leaseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leaseRequests)
}

func (m *mockJobStore) completions() []store.CompleteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.CompleteRequest, len(m.completeRequests))
	copy(out, m.completeRequests)
	return out
}

func (m *mockJobStore) CreateOrReset(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	panic("not used in worker tests")
}

func (m *mockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	panic("not used in worker tests")
}

func (m *mockJobStore) GetByUserDate(
	ctx context.Context,
	userID uuid.UUID,
	localDate string,
) (*domain.Job, error) {
	panic("not used in worker tests")
}

func (m *mockJobStore) ListInRange(
	ctx context.Context,
	from, to time.Time,
) ([]store.JobSummary, error) {
	panic("not used in worker tests")
}

func (m *mockJobStore) MarkDownloaded(ctx context.Context, id uuid.UUID) error {
	panic("not used in worker tests")
}

// stubStage implements task.StageProcessor with a scripted outcome.
type stubStage struct {
	target    domain.BriefingStatus
	processFn func(ctx context.Context, job *domain.Job) (task.StageResult, error)

	mu        sync.Mutex
	processed []uuid.UUID
}

func (s *stubStage) TargetStatus() domain.BriefingStatus {
	return s.target
}

func (s *stubStage) Process(ctx context.Context, job *domain.Job) (task.StageResult, error) {
	s.mu.Lock()
	s.processed = append(s.processed, job.ID)
	s.mu.Unlock()
	return s.processFn(ctx, job)
}

func (s *stubStage) processedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processed)
}
