package service

import (
	"context"
	"errors"
	"time"

	"stagereviews/pkg/logger"
	"stagereviews/pkg/metrics"
	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/infrastructure"
	"stagereviews/reviews-service/internal/app/reviews/repository"

	"github.com/google/uuid"
)

// ReactionService переключает реакцию покупателя на опубликованный отзыв
type ReactionService struct {
	reviewRepo   repository.ReviewRepository
	reactionRepo repository.ReactionRepository
	publisher    infrastructure.MessagePublisher
}

func NewReactionService(
	reviewRepo repository.ReviewRepository,
	reactionRepo repository.ReactionRepository,
	publisher infrastructure.MessagePublisher,
) *ReactionService {
	return &ReactionService{
		reviewRepo:   reviewRepo,
		reactionRepo: reactionRepo,
		publisher:    publisher,
	}
}

// React применяет запрошенную реакцию.
// Повтор текущей реакции или "none" снимают ее
func (s *ReactionService) React(ctx context.Context, reviewID, customerID uuid.UUID, requested entity.ReactionType) (*entity.ReactionResult, error) {
	if _, err := entity.ParseReaction(string(requested)); err != nil {
		return nil, ErrInvalidReaction
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		s.logFailure(err, reviewID, customerID, "load review")
		return nil, ErrCouldNotReact
	}
	if !review.IsRated {
		return nil, ErrReviewPendingRating
	}

	// Отсутствие строки - это реакция "none"
	current := entity.ReactionNone
	existing, getErr := s.reactionRepo.Get(ctx, reviewID, customerID)
	switch {
	case getErr == nil:
		current = existing.Reaction
	case !errors.Is(getErr, repository.ErrReactionNotFound):
		s.logFailure(getErr, reviewID, customerID, "load reaction")
		return nil, ErrCouldNotReact
	}

	action, next := entity.NextReaction(current, requested)
	reaction := &entity.ReviewReaction{ReviewID: reviewID, CustomerID: customerID, Reaction: next}

	switch action {
	case entity.ReactionInsert:
		err = s.reactionRepo.Create(ctx, reaction)
		if err != nil {
			s.logFailure(err, reviewID, customerID, "create")
			err = ErrReactionCreateFailed
		}
	case entity.ReactionUpdate:
		err = s.reactionRepo.Update(ctx, reaction)
		if err != nil {
			s.logFailure(err, reviewID, customerID, "update")
			err = ErrReactionUpdateFailed
		}
	case entity.ReactionRemove:
		err = s.reactionRepo.Delete(ctx, reviewID, customerID)
		if err != nil {
			s.logFailure(err, reviewID, customerID, "disable")
			err = ErrReactionDisableFailed
		}
	}
	if err != nil {
		metrics.RecordReaction("failed")
		return nil, err
	}

	outcome := action.Outcome()
	metrics.RecordReaction(string(outcome))

	if action != entity.ReactionNoop {
		publishReviewEvent(ctx, s.publisher, entity.ReviewEvent{
			EventType:  entity.EventTypeReactionChanged,
			ReviewID:   reviewID,
			ArtistID:   review.ArtistID,
			EventID:    review.EventID,
			CustomerID: customerID,
			Reaction:   next,
			Outcome:    string(outcome),
			Timestamp:  time.Now(),
		})
	}

	return &entity.ReactionResult{Status: outcome, Reaction: next}, nil
}

func (s *ReactionService) logFailure(err error, reviewID, customerID uuid.UUID, op string) {
	logger.Error().Err(err).
		Str("review_id", reviewID.String()).
		Str("customer_id", customerID.String()).
		Str("op", op).
		Msg("Reaction storage failure")
}
