package service

import (
	"context"
	"errors"
	"fmt"

	"stagereviews/pkg/logger"
	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/infrastructure"
	"stagereviews/reviews-service/internal/app/reviews/repository"

	"github.com/google/uuid"
)

// CacheRefreshService прогревает кеш агрегатов по событиям из Kafka
type CacheRefreshService struct {
	averageRepo repository.AverageRepository
	cache       infrastructure.AverageCache
}

func NewCacheRefreshService(averageRepo repository.AverageRepository, cache infrastructure.AverageCache) *CacheRefreshService {
	return &CacheRefreshService{
		averageRepo: averageRepo,
		cache:       cache,
	}
}

// RefreshAverage перечитывает агрегат из БД и кладет в Redis.
// Отсутствие агрегата не ошибка: событие могло обогнать коммит
func (s *CacheRefreshService) RefreshAverage(ctx context.Context, artistID, eventID uuid.UUID) error {
	avg, err := s.averageRepo.Get(ctx, artistID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrAverageNotFound) {
			logger.Debug().
				Str("artist_id", artistID.String()).
				Str("event_id", eventID.String()).
				Msg("No average to refresh")
			return nil
		}
		return fmt.Errorf("failed to load average: %w", err)
	}

	if err := s.cache.SetAverage(ctx, avg); err != nil {
		return fmt.Errorf("failed to cache average: %w", err)
	}

	return nil
}

// HandleEvent реагирует на событие из review_events.
// Агрегат меняется только при REVIEW_RATED, остальные события пропускаются
func (s *CacheRefreshService) HandleEvent(ctx context.Context, event *entity.ReviewEvent) error {
	if event.EventType != entity.EventTypeReviewRated {
		return nil
	}
	return s.RefreshAverage(ctx, event.ArtistID, event.EventID)
}
