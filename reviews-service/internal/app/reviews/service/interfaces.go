package service

import (
	"context"

	"stagereviews/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
)

// ReviewServiceInterface - то, что нужно HTTP слою от ReviewService
type ReviewServiceInterface interface {
	SubmitRating(ctx context.Context, artistID, eventID, customerID uuid.UUID, req *entity.SubmitRatingRequest) (*entity.SubmitRatingResponse, error)
	GetAverage(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error)
	ListReviews(ctx context.Context, artistID, eventID, viewerID uuid.UUID) ([]entity.ReviewWithReactions, error)
	GetMyReviews(ctx context.Context, customerID uuid.UUID) ([]entity.Review, error)
}

type ReactionServiceInterface interface {
	React(ctx context.Context, reviewID, customerID uuid.UUID, requested entity.ReactionType) (*entity.ReactionResult, error)
}

// ReconcileServiceInterface - задача сверки для cron
type ReconcileServiceInterface interface {
	Reconcile(ctx context.Context) (*entity.ReconcileReport, error)
}

// EventHandler обрабатывает события из Kafka в воркере
type EventHandler interface {
	HandleEvent(ctx context.Context, event *entity.ReviewEvent) error
}

var (
	_ ReviewServiceInterface    = (*ReviewService)(nil)
	_ ReactionServiceInterface  = (*ReactionService)(nil)
	_ ReconcileServiceInterface = (*ReconcileService)(nil)
	_ EventHandler              = (*CacheRefreshService)(nil)
)
