package repository

import (
	"context"
	"errors"

	"stagereviews/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrReviewNotFound   = errors.New("review not found")
	ErrAverageNotFound  = errors.New("review average not found")
	ErrReactionNotFound = errors.New("reaction not found")
	ErrReactionExists   = errors.New("reaction already exists")
)

// ReviewRepository - отзывы в PostgreSQL.
// Уникальность (created_by, artist_id, event_id) гарантирует индекс
type ReviewRepository interface {
	GetByKey(ctx context.Context, customerID, artistID, eventID uuid.UUID) (*entity.Review, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	// CreatePlaceholder возвращает false, если строка по ключу уже есть
	CreatePlaceholder(ctx context.Context, review *entity.Review) (bool, error)
	// CreateRated возвращает false, если строка по ключу уже есть
	CreateRated(ctx context.Context, review *entity.Review) (bool, error)
	// PromoteToRated возвращает false, если отзыв уже оценен
	PromoteToRated(ctx context.Context, review *entity.Review) (bool, error)
	ListRatedByPair(ctx context.Context, artistID, eventID, viewerID uuid.UUID) ([]entity.ReviewWithReactions, error)
	ListByAuthor(ctx context.Context, customerID uuid.UUID) ([]entity.Review, error)
	ListRatedPairs(ctx context.Context) ([]entity.PairKey, error)
	ScoreCounts(ctx context.Context, artistID, eventID uuid.UUID) (entity.ScoreHistogram, error)
}

// AverageRepository - агрегаты по парам (артист, событие)
type AverageRepository interface {
	Get(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error)
	// GetForUpdate блокирует строку до конца транзакции
	GetForUpdate(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error)
	// Create возвращает false, если агрегат уже создан параллельной транзакцией
	Create(ctx context.Context, avg *entity.ReviewAverage) (bool, error)
	Update(ctx context.Context, avg *entity.ReviewAverage) error
	// Save перезаписывает агрегат целиком (используется сверкой)
	Save(ctx context.Context, avg *entity.ReviewAverage) error
}

// ReactionRepository - реакции на отзывы
type ReactionRepository interface {
	Get(ctx context.Context, reviewID, customerID uuid.UUID) (*entity.ReviewReaction, error)
	Create(ctx context.Context, reaction *entity.ReviewReaction) error
	Update(ctx context.Context, reaction *entity.ReviewReaction) error
	Delete(ctx context.Context, reviewID, customerID uuid.UUID) error
}

// Transactor выполняет fn в одной транзакции БД.
// Переданные в fn репозитории работают внутри этой транзакции
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(reviews ReviewRepository, averages AverageRepository) error) error
}

// AuditRepository - журнал сверок агрегатов в MongoDB
type AuditRepository interface {
	Insert(ctx context.Context, audit *entity.AggregateAudit) error
	ListRecent(ctx context.Context, limit int64) ([]entity.AggregateAudit, error)
}
