package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/repository"
	"stagereviews/reviews-service/internal/app/reviews/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReactionServiceWithMocks() (*ReactionService, *mocks.MockReviewRepository, *mocks.MockReactionRepository, *mocks.MockMessagePublisher) {
	reviewRepo := new(mocks.MockReviewRepository)
	reactionRepo := new(mocks.MockReactionRepository)
	publisher := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	return NewReactionService(reviewRepo, reactionRepo, publisher), reviewRepo, reactionRepo, publisher
}

func ratedReview(id uuid.UUID) *entity.Review {
	return &entity.Review{ID: id, ArtistID: uuid.New(), EventID: uuid.New(), IsRated: true, Value: intPtr(4)}
}

func TestReact_ReviewNotFound(t *testing.T) {
	svc, reviewRepo, reactionRepo, _ := newReactionServiceWithMocks()
	ctx := context.Background()
	reviewID := uuid.New()

	reviewRepo.On("GetByID", ctx, reviewID).Return(nil, repository.ErrReviewNotFound)

	result, err := svc.React(ctx, reviewID, uuid.New(), entity.ReactionLike)

	assert.ErrorIs(t, err, ErrReviewNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Nil(t, result)
	reactionRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestReact_ReviewPendingRating(t *testing.T) {
	svc, reviewRepo, _, _ := newReactionServiceWithMocks()
	ctx := context.Background()
	reviewID := uuid.New()

	reviewRepo.On("GetByID", ctx, reviewID).Return(&entity.Review{ID: reviewID}, nil)

	_, err := svc.React(ctx, reviewID, uuid.New(), entity.ReactionDislike)

	assert.ErrorIs(t, err, ErrReviewPendingRating)
	assert.Equal(t, KindBadRule, KindOf(err))
}

func TestReact_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		current   entity.ReactionType
		requested entity.ReactionType
		setup     func(m *mocks.MockReactionRepository)
		outcome   entity.ReactionOutcome
		next      entity.ReactionType
	}{
		{
			name:      "none to none",
			current:   entity.ReactionNone,
			requested: entity.ReactionNone,
			setup:     func(m *mocks.MockReactionRepository) {},
			outcome:   entity.OutcomeUnchanged,
			next:      entity.ReactionNone,
		},
		{
			name:      "none to like",
			current:   entity.ReactionNone,
			requested: entity.ReactionLike,
			setup: func(m *mocks.MockReactionRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(r *entity.ReviewReaction) bool {
					return r.Reaction == entity.ReactionLike
				})).Return(nil)
			},
			outcome: entity.OutcomeCreated,
			next:    entity.ReactionLike,
		},
		{
			name:      "like to like toggles off",
			current:   entity.ReactionLike,
			requested: entity.ReactionLike,
			setup: func(m *mocks.MockReactionRepository) {
				m.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			},
			outcome: entity.OutcomeDisabled,
			next:    entity.ReactionNone,
		},
		{
			name:      "dislike to none",
			current:   entity.ReactionDislike,
			requested: entity.ReactionNone,
			setup: func(m *mocks.MockReactionRepository) {
				m.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			},
			outcome: entity.OutcomeDisabled,
			next:    entity.ReactionNone,
		},
		{
			name:      "like to dislike",
			current:   entity.ReactionLike,
			requested: entity.ReactionDislike,
			setup: func(m *mocks.MockReactionRepository) {
				m.On("Update", mock.Anything, mock.MatchedBy(func(r *entity.ReviewReaction) bool {
					return r.Reaction == entity.ReactionDislike
				})).Return(nil)
			},
			outcome: entity.OutcomeUpdated,
			next:    entity.ReactionDislike,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, reviewRepo, reactionRepo, publisher := newReactionServiceWithMocks()
			ctx := context.Background()
			reviewID, customerID := uuid.New(), uuid.New()

			reviewRepo.On("GetByID", ctx, reviewID).Return(ratedReview(reviewID), nil)
			if tt.current == entity.ReactionNone {
				reactionRepo.On("Get", ctx, reviewID, customerID).Return(nil, repository.ErrReactionNotFound)
			} else {
				reactionRepo.On("Get", ctx, reviewID, customerID).
					Return(&entity.ReviewReaction{ReviewID: reviewID, CustomerID: customerID, Reaction: tt.current}, nil)
			}
			tt.setup(reactionRepo)
			publisher.On("PublishMessage", ctx, reviewID.String(), mock.Anything).Return(nil)

			result, err := svc.React(ctx, reviewID, customerID, tt.requested)

			require.NoError(t, err)
			assert.Equal(t, tt.outcome, result.Status)
			assert.Equal(t, tt.next, result.Reaction)
			reactionRepo.AssertExpectations(t)

			if tt.outcome == entity.OutcomeUnchanged {
				assert.Empty(t, publisher.Messages)
				return
			}
			require.Len(t, publisher.Messages, 1)
			var event entity.ReviewEvent
			require.NoError(t, json.Unmarshal(publisher.Messages[0], &event))
			assert.Equal(t, entity.EventTypeReactionChanged, event.EventType)
			assert.Equal(t, string(tt.outcome), event.Outcome)
		})
	}
}

func TestReact_PersistenceFailuresAreDistinct(t *testing.T) {
	dbErr := errors.New("db error")

	tests := []struct {
		name      string
		current   entity.ReactionType
		requested entity.ReactionType
		method    string
		args      int
		want      error
	}{
		{"create", entity.ReactionNone, entity.ReactionLike, "Create", 2, ErrReactionCreateFailed},
		{"update", entity.ReactionDislike, entity.ReactionLike, "Update", 2, ErrReactionUpdateFailed},
		{"disable", entity.ReactionLike, entity.ReactionLike, "Delete", 3, ErrReactionDisableFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, reviewRepo, reactionRepo, publisher := newReactionServiceWithMocks()
			ctx := context.Background()
			reviewID, customerID := uuid.New(), uuid.New()

			reviewRepo.On("GetByID", ctx, reviewID).Return(ratedReview(reviewID), nil)
			if tt.current == entity.ReactionNone {
				reactionRepo.On("Get", ctx, reviewID, customerID).Return(nil, repository.ErrReactionNotFound)
			} else {
				reactionRepo.On("Get", ctx, reviewID, customerID).
					Return(&entity.ReviewReaction{Reaction: tt.current}, nil)
			}
			args := make([]interface{}, tt.args)
			for i := range args {
				args[i] = mock.Anything
			}
			reactionRepo.On(tt.method, args...).Return(dbErr)

			result, err := svc.React(ctx, reviewID, customerID, tt.requested)

			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, dbErr)
			assert.Equal(t, KindUnprocessable, KindOf(err))
			assert.Nil(t, result)
			assert.Empty(t, publisher.Messages)
		})
	}
}

func TestReact_ConcurrentCreateIsCreateFailure(t *testing.T) {
	svc, reviewRepo, reactionRepo, _ := newReactionServiceWithMocks()
	ctx := context.Background()
	reviewID, customerID := uuid.New(), uuid.New()

	reviewRepo.On("GetByID", ctx, reviewID).Return(ratedReview(reviewID), nil)
	reactionRepo.On("Get", ctx, reviewID, customerID).Return(nil, repository.ErrReactionNotFound)
	reactionRepo.On("Create", ctx, mock.Anything).Return(repository.ErrReactionExists)

	_, err := svc.React(ctx, reviewID, customerID, entity.ReactionLike)

	assert.ErrorIs(t, err, ErrReactionCreateFailed)
}

func TestReact_LikeDislikeDislikeScenario(t *testing.T) {
	store := newMemStore()
	rating := 4
	review := &entity.Review{ID: uuid.New(), ArtistID: uuid.New(), EventID: uuid.New(), CreatedBy: uuid.New(), Value: &rating, IsRated: true}
	store.state.reviews[review.ID] = review

	svc := NewReactionService(store.reviews(), store.reactions(), nil)
	ctx := context.Background()
	customerID := uuid.New()

	steps := []struct {
		requested entity.ReactionType
		outcome   entity.ReactionOutcome
		state     entity.ReactionType
	}{
		{entity.ReactionLike, entity.OutcomeCreated, entity.ReactionLike},
		{entity.ReactionDislike, entity.OutcomeUpdated, entity.ReactionDislike},
		{entity.ReactionDislike, entity.OutcomeDisabled, entity.ReactionNone},
		{entity.ReactionNone, entity.OutcomeUnchanged, entity.ReactionNone},
		{entity.ReactionLike, entity.OutcomeCreated, entity.ReactionLike},
		{entity.ReactionLike, entity.OutcomeDisabled, entity.ReactionNone},
	}

	for i, step := range steps {
		result, err := svc.React(ctx, review.ID, customerID, step.requested)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.outcome, result.Status, "step %d", i)
		assert.Equal(t, step.state, result.Reaction, "step %d", i)
		assert.Equal(t, step.state, store.reactions().current(review.ID, customerID), "step %d", i)
	}
}

func TestReact_NoneWithoutReactionIsNoop(t *testing.T) {
	store := newMemStore()
	rating := 5
	review := &entity.Review{ID: uuid.New(), ArtistID: uuid.New(), EventID: uuid.New(), CreatedBy: uuid.New(), Value: &rating, IsRated: true}
	store.state.reviews[review.ID] = review

	publisher := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	svc := NewReactionService(store.reviews(), store.reactions(), publisher)
	customerID := uuid.New()

	result, err := svc.React(context.Background(), review.ID, customerID, entity.ReactionNone)

	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeUnchanged, result.Status)
	assert.Equal(t, entity.ReactionNone, result.Reaction)
	assert.Equal(t, entity.ReactionNone, store.reactions().current(review.ID, customerID))
	assert.Empty(t, publisher.Messages)
}

func TestReact_UnknownReaction(t *testing.T) {
	for _, requested := range []entity.ReactionType{"", "love", "LIKE"} {
		svc, reviewRepo, reactionRepo, _ := newReactionServiceWithMocks()

		result, err := svc.React(context.Background(), uuid.New(), uuid.New(), requested)

		assert.ErrorIs(t, err, ErrInvalidReaction, "reaction %q", requested)
		assert.Equal(t, KindBadRule, KindOf(err))
		assert.Nil(t, result)
		reviewRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		reactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestReact_ReadFailuresAreGeneric(t *testing.T) {
	dbErr := errors.New("connection reset")

	t.Run("review lookup", func(t *testing.T) {
		svc, reviewRepo, reactionRepo, _ := newReactionServiceWithMocks()
		ctx := context.Background()
		reviewID := uuid.New()

		reviewRepo.On("GetByID", ctx, reviewID).Return(nil, dbErr)

		result, err := svc.React(ctx, reviewID, uuid.New(), entity.ReactionLike)

		assert.ErrorIs(t, err, ErrCouldNotReact)
		assert.NotErrorIs(t, err, dbErr)
		assert.Equal(t, KindUnprocessable, KindOf(err))
		assert.Nil(t, result)
		reactionRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reaction lookup", func(t *testing.T) {
		svc, reviewRepo, reactionRepo, publisher := newReactionServiceWithMocks()
		ctx := context.Background()
		reviewID, customerID := uuid.New(), uuid.New()

		reviewRepo.On("GetByID", ctx, reviewID).Return(ratedReview(reviewID), nil)
		reactionRepo.On("Get", ctx, reviewID, customerID).Return(nil, dbErr)

		result, err := svc.React(ctx, reviewID, customerID, entity.ReactionDislike)

		assert.ErrorIs(t, err, ErrCouldNotReact)
		assert.NotErrorIs(t, err, dbErr)
		assert.Equal(t, KindUnprocessable, KindOf(err))
		assert.Nil(t, result)
		reactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, publisher.Messages)
	})
}
