package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/event"
	"github.com/utafrali/ToolCatalog/internal/repository"
	pkgkafka "github.com/utafrali/ToolCatalog/pkg/kafka"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry(), "test")
}

// --- Recording publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func newTestProducer() (*event.Producer, *recordingPublisher) {
	rec := &recordingPublisher{}
	return event.NewProducer(rec, newTestLogger()), rec
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock Tool Repository ---

type mockToolRepository struct {
	mock.Mock
}

func (m *mockToolRepository) Create(ctx context.Context, tool *domain.Tool) error {
	args := m.Called(ctx, tool)
	return args.Error(0)
}

func (m *mockToolRepository) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

func (m *mockToolRepository) List(ctx context.Context, filter repository.ToolFilter) ([]domain.Tool, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Tool), args.Int(1), args.Error(2)
}

func (m *mockToolRepository) Update(ctx context.Context, tool *domain.Tool) error {
	args := m.Called(ctx, tool)
	return args.Error(0)
}

func (m *mockToolRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockToolRepository) SetRating(ctx context.Context, id string, agg domain.RatingAggregate) error {
	args := m.Called(ctx, id, agg)
	return args.Error(0)
}

func (m *mockToolRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ApprovedRatings(ctx context.Context, toolID string) ([]int, error) {
	args := m.Called(ctx, toolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockReviewRepository) CountByStatus(ctx context.Context) (map[domain.ReviewStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.ReviewStatus]int), args.Error(1)
}

// --- Mock Tool Cache ---

type mockToolCache struct {
	mock.Mock
}

func (m *mockToolCache) Get(ctx context.Context, id string) (*domain.Tool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

func (m *mockToolCache) Set(ctx context.Context, tool *domain.Tool) error {
	args := m.Called(ctx, tool)
	return args.Error(0)
}

func (m *mockToolCache) Invalidate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// passthroughUnitOfWork runs fn against the given mocks without locking.
type passthroughUnitOfWork struct {
	tools   *mockToolRepository
	reviews *mockReviewRepository
	calls   int
}

func (u *passthroughUnitOfWork) WithToolLock(ctx context.Context, _ string, fn func(context.Context, repository.TxRepositories) error) error {
	u.calls++
	return fn(ctx, repository.TxRepositories{Tools: u.tools, Reviews: u.reviews})
}
