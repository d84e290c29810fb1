package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stagereviews/pkg/logger"
	"stagereviews/pkg/metrics"
	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/infrastructure"
	"stagereviews/reviews-service/internal/app/reviews/repository"

	"github.com/google/uuid"
)

// ReviewService обрабатывает жизненный цикл отзыва:
// заготовка -> оценка (один раз) и агрегат пары в той же транзакции.
// После коммита публикует событие в Kafka и сбрасывает кеш агрегата
type ReviewService struct {
	transactor  repository.Transactor
	reviewRepo  repository.ReviewRepository
	averageRepo repository.AverageRepository
	aggregator  *Aggregator
	cache       infrastructure.AverageCache
	publisher   infrastructure.MessagePublisher
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	transactor repository.Transactor,
	reviewRepo repository.ReviewRepository,
	averageRepo repository.AverageRepository,
	cache infrastructure.AverageCache,
	publisher infrastructure.MessagePublisher,
) *ReviewService {
	return &ReviewService{
		transactor:  transactor,
		reviewRepo:  reviewRepo,
		averageRepo: averageRepo,
		aggregator:  NewAggregator(),
		cache:       cache,
		publisher:   publisher,
	}
}

// SubmitRating принимает намерение оставить отзыв или оценку.
// Пустой запрос резервирует отзыв, запрос с оценкой оценивает его ровно один раз
func (s *ReviewService) SubmitRating(ctx context.Context, artistID, eventID, customerID uuid.UUID, req *entity.SubmitRatingRequest) (*entity.SubmitRatingResponse, error) {
	if req.Rating != nil && !entity.ValidScore(*req.Rating) {
		return nil, ErrInvalidRating
	}

	kind := req.Kind()

	existing, err := s.reviewRepo.GetByKey(ctx, customerID, artistID, eventID)
	if err != nil && !errors.Is(err, repository.ErrReviewNotFound) {
		logger.Error().Err(err).
			Str("artist_id", artistID.String()).
			Str("event_id", eventID.String()).
			Str("customer_id", customerID.String()).
			Msg("Failed to look up review")
		metrics.RecordSubmission("failed")
		return nil, ErrCouldNotRate
	}

	action := entity.NextAction(entity.StateOf(existing), kind)
	// Для оцененного отзыва конфликт важнее отсутствия оценки
	if action != entity.ActionRejectAlreadyRated && req.Rating == nil && kind == entity.SubmissionRating {
		return nil, ErrRatingRequired
	}
	logger.Debug().
		Str("customer_id", customerID.String()).
		Str("action", action.String()).
		Msg("Review submission")

	switch action {
	case entity.ActionAcknowledge:
		metrics.RecordSubmission(string(entity.StatusAcknowledged))
		return &entity.SubmitRatingResponse{Status: entity.StatusAcknowledged, Review: existing}, nil

	case entity.ActionCreatePlaceholder:
		return s.createPlaceholder(ctx, artistID, eventID, customerID, req)

	case entity.ActionRejectAlreadyRated:
		metrics.RecordSubmission("already_rated")
		return nil, ErrAlreadyRated

	default:
		return s.rate(ctx, existing, artistID, eventID, customerID, req)
	}
}

// createPlaceholder резервирует отзыв без оценки.
// Проигравший гонку запрос видит уже созданную заготовку - это просто подтверждение
func (s *ReviewService) createPlaceholder(ctx context.Context, artistID, eventID, customerID uuid.UUID, req *entity.SubmitRatingRequest) (*entity.SubmitRatingResponse, error) {
	review := newReview(artistID, eventID, customerID, req)

	created, err := s.reviewRepo.CreatePlaceholder(ctx, review)
	if err != nil {
		logger.Error().Err(err).
			Str("artist_id", artistID.String()).
			Str("event_id", eventID.String()).
			Str("customer_id", customerID.String()).
			Msg("Failed to create review placeholder")
		metrics.RecordSubmission("failed")
		return nil, ErrCouldNotRate
	}

	if !created {
		metrics.RecordSubmission(string(entity.StatusAcknowledged))
		return &entity.SubmitRatingResponse{Status: entity.StatusAcknowledged}, nil
	}

	s.publishEvent(ctx, entity.ReviewEvent{
		EventType:  entity.EventTypeReviewIntent,
		ReviewID:   review.ID,
		ArtistID:   artistID,
		EventID:    eventID,
		CustomerID: customerID,
		Timestamp:  time.Now(),
	})

	metrics.RecordSubmission(string(entity.StatusCreatedReview))
	return &entity.SubmitRatingResponse{Status: entity.StatusCreatedReview, Review: review}, nil
}

// rate записывает оценку и обновляет агрегат в одной транзакции.
// Любая ошибка кроме "уже оценен" откатывает транзакцию и возвращается как ErrCouldNotRate
func (s *ReviewService) rate(ctx context.Context, existing *entity.Review, artistID, eventID, customerID uuid.UUID, req *entity.SubmitRatingRequest) (*entity.SubmitRatingResponse, error) {
	rating := *req.Rating

	var (
		review *entity.Review
		avg    *entity.ReviewAverage
	)

	err := s.transactor.WithinTransaction(ctx, func(reviews repository.ReviewRepository, averages repository.AverageRepository) error {
		var err error
		review, err = writeRating(ctx, reviews, existing, artistID, eventID, customerID, req)
		if err != nil {
			return err
		}

		avg, err = s.aggregator.RecordNewRating(ctx, averages, artistID, eventID, rating)
		return err
	})

	if err != nil {
		if errors.Is(err, ErrAlreadyRated) {
			metrics.RecordSubmission("already_rated")
			return nil, ErrAlreadyRated
		}

		logger.Error().Err(err).
			Str("artist_id", artistID.String()).
			Str("event_id", eventID.String()).
			Str("customer_id", customerID.String()).
			Int("rating", rating).
			Msg("Rating transaction rolled back")
		metrics.RecordSubmission("failed")
		return nil, ErrCouldNotRate
	}

	metrics.RecordSubmission(string(entity.StatusRatedSuccessfully))
	metrics.RecordRating(rating)

	if s.cache != nil {
		if err := s.cache.DeleteAverage(ctx, artistID, eventID); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate cached average")
		}
	}

	s.publishEvent(ctx, entity.ReviewEvent{
		EventType:  entity.EventTypeReviewRated,
		ReviewID:   review.ID,
		ArtistID:   artistID,
		EventID:    eventID,
		CustomerID: customerID,
		Rating:     rating,
		Average:    avg.Value,
		Count:      avg.Count,
		Timestamp:  time.Now(),
	})

	return &entity.SubmitRatingResponse{
		Status:  entity.StatusRatedSuccessfully,
		Review:  review,
		Average: avg,
	}, nil
}

// writeRating делает строку отзыва оцененной. Если строки не было, вставляет ее;
// если параллельный запрос вставил ее раньше, переходит к условному UPDATE
func writeRating(ctx context.Context, reviews repository.ReviewRepository, existing *entity.Review, artistID, eventID, customerID uuid.UUID, req *entity.SubmitRatingRequest) (*entity.Review, error) {
	rating := *req.Rating

	if existing == nil {
		review := newReview(artistID, eventID, customerID, req)
		review.Value = &rating

		created, err := reviews.CreateRated(ctx, review)
		if err != nil {
			return nil, err
		}
		if created {
			return review, nil
		}

		existing, err = reviews.GetByKey(ctx, customerID, artistID, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read review after insert conflict: %w", err)
		}
		if existing.IsRated {
			return nil, ErrAlreadyRated
		}
	}

	review := *existing
	review.Value = &rating
	if req.DisplayName != "" {
		review.DisplayName = req.DisplayName
	}
	if req.Header != nil {
		review.Header = req.Header
	}
	if req.Comment != nil {
		review.Content = req.Comment
	}

	promoted, err := reviews.PromoteToRated(ctx, &review)
	if err != nil {
		return nil, err
	}
	if !promoted {
		return nil, ErrAlreadyRated
	}

	return &review, nil
}

func newReview(artistID, eventID, customerID uuid.UUID, req *entity.SubmitRatingRequest) *entity.Review {
	return &entity.Review{
		ArtistID:    artistID,
		EventID:     eventID,
		CreatedBy:   customerID,
		DisplayName: req.DisplayName,
		Header:      req.Header,
		Content:     req.Comment,
	}
}

// GetAverage возвращает агрегат пары: сначала из Redis, затем из БД
func (s *ReviewService) GetAverage(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error) {
	if s.cache != nil {
		cached, err := s.cache.GetAverage(ctx, artistID, eventID)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to read cached average")
		} else if cached != nil {
			return cached, nil
		}
	}

	avg, err := s.averageRepo.Get(ctx, artistID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrAverageNotFound) {
			return nil, ErrAverageNotFound
		}
		return nil, fmt.Errorf("failed to get average: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetAverage(ctx, avg); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache average")
		}
	}

	return avg, nil
}

// ListReviews возвращает опубликованные отзывы пары с реакциями.
// viewerID = uuid.Nil для анонимного просмотра
func (s *ReviewService) ListReviews(ctx context.Context, artistID, eventID, viewerID uuid.UUID) ([]entity.ReviewWithReactions, error) {
	reviews, err := s.reviewRepo.ListRatedByPair(ctx, artistID, eventID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, nil
}

// GetMyReviews возвращает отзывы покупателя, включая заготовки
func (s *ReviewService) GetMyReviews(ctx context.Context, customerID uuid.UUID) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.ListByAuthor(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

// publishEvent сериализует событие и отправляет в Kafka.
// Ошибки только логируются: запись в БД уже закоммичена
func (s *ReviewService) publishEvent(ctx context.Context, event entity.ReviewEvent) {
	publishReviewEvent(ctx, s.publisher, event)
}

func publishReviewEvent(ctx context.Context, publisher infrastructure.MessagePublisher, event entity.ReviewEvent) {
	if publisher == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", event.EventType).Msg("Failed to marshal review event")
		return
	}

	if err := publisher.PublishMessage(ctx, event.PartitionKey(), data); err != nil {
		logger.Error().Err(err).
			Str("event_type", event.EventType).
			Str("review_id", event.ReviewID.String()).
			Msg("Failed to publish review event")
	}
}
