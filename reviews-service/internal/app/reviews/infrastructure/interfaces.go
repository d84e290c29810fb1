package infrastructure

import (
	"context"

	"stagereviews/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
)

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
// Используется для dependency injection и упрощения тестирования
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// AverageCache - кеш агрегатов оценок (Redis).
// GetAverage возвращает nil, nil при промахе
type AverageCache interface {
	GetAverage(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error)
	SetAverage(ctx context.Context, avg *entity.ReviewAverage) error
	DeleteAverage(ctx context.Context, artistID, eventID uuid.UUID) error
}

// EligibilityChecker - проверка в Booking Service, что покупатель
// был на завершенном событии артиста
type EligibilityChecker interface {
	IsCustomerEligibleAndEventDone(ctx context.Context, customerID, artistID, eventID uuid.UUID) (bool, error)
}
