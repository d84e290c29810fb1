package mocks

import (
	"context"

	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockReviewRepository мок для ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) GetByKey(ctx context.Context, customerID, artistID, eventID uuid.UUID) (*entity.Review, error) {
	args := m.Called(ctx, customerID, artistID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) CreatePlaceholder(ctx context.Context, review *entity.Review) (bool, error) {
	args := m.Called(ctx, review)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) CreateRated(ctx context.Context, review *entity.Review) (bool, error) {
	args := m.Called(ctx, review)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) PromoteToRated(ctx context.Context, review *entity.Review) (bool, error) {
	args := m.Called(ctx, review)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) ListRatedByPair(ctx context.Context, artistID, eventID, viewerID uuid.UUID) ([]entity.ReviewWithReactions, error) {
	args := m.Called(ctx, artistID, eventID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReviewWithReactions), args.Error(1)
}

func (m *MockReviewRepository) ListByAuthor(ctx context.Context, customerID uuid.UUID) ([]entity.Review, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) ListRatedPairs(ctx context.Context) ([]entity.PairKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PairKey), args.Error(1)
}

func (m *MockReviewRepository) ScoreCounts(ctx context.Context, artistID, eventID uuid.UUID) (entity.ScoreHistogram, error) {
	args := m.Called(ctx, artistID, eventID)
	return args.Get(0).(entity.ScoreHistogram), args.Error(1)
}

// MockAverageRepository мок для AverageRepository
type MockAverageRepository struct {
	mock.Mock
}

func (m *MockAverageRepository) Get(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error) {
	args := m.Called(ctx, artistID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReviewAverage), args.Error(1)
}

func (m *MockAverageRepository) GetForUpdate(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error) {
	args := m.Called(ctx, artistID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReviewAverage), args.Error(1)
}

func (m *MockAverageRepository) Create(ctx context.Context, avg *entity.ReviewAverage) (bool, error) {
	args := m.Called(ctx, avg)
	return args.Bool(0), args.Error(1)
}

func (m *MockAverageRepository) Update(ctx context.Context, avg *entity.ReviewAverage) error {
	args := m.Called(ctx, avg)
	return args.Error(0)
}

func (m *MockAverageRepository) Save(ctx context.Context, avg *entity.ReviewAverage) error {
	args := m.Called(ctx, avg)
	return args.Error(0)
}

// MockReactionRepository мок для ReactionRepository
type MockReactionRepository struct {
	mock.Mock
}

func (m *MockReactionRepository) Get(ctx context.Context, reviewID, customerID uuid.UUID) (*entity.ReviewReaction, error) {
	args := m.Called(ctx, reviewID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReviewReaction), args.Error(1)
}

func (m *MockReactionRepository) Create(ctx context.Context, reaction *entity.ReviewReaction) error {
	args := m.Called(ctx, reaction)
	return args.Error(0)
}

func (m *MockReactionRepository) Update(ctx context.Context, reaction *entity.ReviewReaction) error {
	args := m.Called(ctx, reaction)
	return args.Error(0)
}

func (m *MockReactionRepository) Delete(ctx context.Context, reviewID, customerID uuid.UUID) error {
	args := m.Called(ctx, reviewID, customerID)
	return args.Error(0)
}

// MockTransactor выполняет fn на переданных мок-репозиториях.
// Ошибка из On("WithinTransaction") имитирует сбой BEGIN/COMMIT
type MockTransactor struct {
	mock.Mock
	Reviews  *MockReviewRepository
	Averages *MockAverageRepository
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(reviews repository.ReviewRepository, averages repository.AverageRepository) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Reviews, m.Averages)
}

// MockAuditRepository мок для AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Insert(ctx context.Context, audit *entity.AggregateAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockAuditRepository) ListRecent(ctx context.Context, limit int64) ([]entity.AggregateAudit, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AggregateAudit), args.Error(1)
}

// MockMessagePublisher мок для Kafka MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockAverageCache мок для кеша агрегатов
type MockAverageCache struct {
	mock.Mock
}

func (m *MockAverageCache) GetAverage(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error) {
	args := m.Called(ctx, artistID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReviewAverage), args.Error(1)
}

func (m *MockAverageCache) SetAverage(ctx context.Context, avg *entity.ReviewAverage) error {
	args := m.Called(ctx, avg)
	return args.Error(0)
}

func (m *MockAverageCache) DeleteAverage(ctx context.Context, artistID, eventID uuid.UUID) error {
	args := m.Called(ctx, artistID, eventID)
	return args.Error(0)
}
