package service

import (
	"context"
	"errors"
	"fmt"

	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/repository"

	"github.com/google/uuid"
)

// Aggregator ведет агрегат (среднее, количество, гистограмма) по паре артист+событие.
// Вызывается только внутри транзакции, в которой записан отзыв
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// RecordNewRating учитывает новую оценку в агрегате.
// averages должен быть привязан к транзакции вызывающего
func (a *Aggregator) RecordNewRating(ctx context.Context, averages repository.AverageRepository, artistID, eventID uuid.UUID, rating int) (*entity.ReviewAverage, error) {
	if !entity.ValidScore(rating) {
		return nil, ErrInvalidRating
	}

	avg, err := averages.GetForUpdate(ctx, artistID, eventID)
	if err != nil && !errors.Is(err, repository.ErrAverageNotFound) {
		return nil, fmt.Errorf("failed to lock average: %w", err)
	}

	if avg == nil {
		created := entity.NewReviewAverage(artistID, eventID, rating)
		inserted, err := averages.Create(ctx, created)
		if err != nil {
			return nil, fmt.Errorf("failed to create average: %w", err)
		}
		if inserted {
			return created, nil
		}

		// Агрегат только что создала параллельная транзакция - блокируем ее строку
		avg, err = averages.GetForUpdate(ctx, artistID, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock average after insert race: %w", err)
		}
	}

	if err := avg.Record(rating); err != nil {
		return nil, err
	}
	if err := averages.Update(ctx, avg); err != nil {
		return nil, fmt.Errorf("failed to update average: %w", err)
	}

	return avg, nil
}
