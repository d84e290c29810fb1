package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stagereviews/pkg/metrics"
	"stagereviews/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository создает репозиторий реакций
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Get(ctx context.Context, reviewID, customerID uuid.UUID) (*entity.ReviewReaction, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "review_reactions")
	defer timer.ObserveDuration()

	var reaction entity.ReviewReaction
	result := r.db.WithContext(ctx).
		Raw(`SELECT review_id, customer_id, reaction, created_at, updated_at FROM review_reactions `+
			`WHERE review_id = ? AND customer_id = ?`, reviewID, customerID).
		Scan(&reaction)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get reaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrReactionNotFound
	}

	return &reaction, nil
}

// Create вставляет реакцию; повторная вставка для той же пары
// (review, customer) отбивается первичным ключом
func (r *reactionRepository) Create(ctx context.Context, reaction *entity.ReviewReaction) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "review_reactions")
	defer timer.ObserveDuration()

	now := time.Now().UTC()
	reaction.CreatedAt = now
	reaction.UpdatedAt = now

	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO review_reactions (review_id, customer_id, reaction, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		reaction.ReviewID, reaction.CustomerID, string(reaction.Reaction), reaction.CreatedAt, reaction.UpdatedAt,
	).Error

	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrReactionExists
		}
		return fmt.Errorf("failed to create reaction: %w", err)
	}

	return nil
}

func (r *reactionRepository) Update(ctx context.Context, reaction *entity.ReviewReaction) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "review_reactions")
	defer timer.ObserveDuration()

	reaction.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Exec(
		`UPDATE review_reactions SET reaction = ?, updated_at = ? WHERE review_id = ? AND customer_id = ?`,
		string(reaction.Reaction), reaction.UpdatedAt, reaction.ReviewID, reaction.CustomerID,
	)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update reaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReactionNotFound
	}

	return nil
}

// Delete снимает реакцию (состояние "none")
func (r *reactionRepository) Delete(ctx context.Context, reviewID, customerID uuid.UUID) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "review_reactions")
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM review_reactions WHERE review_id = ? AND customer_id = ?`, reviewID, customerID,
	)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpDelete)
		return fmt.Errorf("failed to delete reaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReactionNotFound
	}

	return nil
}
