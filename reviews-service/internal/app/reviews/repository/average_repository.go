package repository

import (
	"context"
	"fmt"
	"time"

	"stagereviews/pkg/metrics"
	"stagereviews/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const averageColumns = `artist_id, event_id, value, count, detail, updated_at`

type averageRepository struct {
	db *gorm.DB
}

// NewAverageRepository создает репозиторий агрегатов оценок
func NewAverageRepository(db *gorm.DB) AverageRepository {
	return &averageRepository{db: db}
}

func (r *averageRepository) Get(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error) {
	return r.get(ctx, `SELECT `+averageColumns+` FROM review_averages WHERE artist_id = ? AND event_id = ?`, artistID, eventID)
}

// GetForUpdate читает агрегат с блокировкой строки: параллельные оценки
// той же пары выстраиваются в очередь и не теряют обновления
func (r *averageRepository) GetForUpdate(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error) {
	return r.get(ctx, `SELECT `+averageColumns+` FROM review_averages WHERE artist_id = ? AND event_id = ? FOR UPDATE`, artistID, eventID)
}

func (r *averageRepository) get(ctx context.Context, query string, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "review_averages")
	defer timer.ObserveDuration()

	var avg entity.ReviewAverage
	result := r.db.WithContext(ctx).Raw(query, artistID, eventID).Scan(&avg)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get review average: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAverageNotFound
	}

	return &avg, nil
}

// Create вставляет первый агрегат пары
func (r *averageRepository) Create(ctx context.Context, avg *entity.ReviewAverage) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "review_averages")
	defer timer.ObserveDuration()

	avg.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO review_averages (`+averageColumns+`) VALUES (?, ?, ?, ?, ?, ?) `+
			`ON CONFLICT (artist_id, event_id) DO NOTHING`,
		avg.ArtistID, avg.EventID, avg.Value, avg.Count, avg.Detail, avg.UpdatedAt,
	)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return false, fmt.Errorf("failed to create review average: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// Update сохраняет агрегат, прочитанный через GetForUpdate
func (r *averageRepository) Update(ctx context.Context, avg *entity.ReviewAverage) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "review_averages")
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Exec(
		`UPDATE review_averages SET value = ?, count = ?, detail = ?, updated_at = ? WHERE artist_id = ? AND event_id = ?`,
		avg.Value, avg.Count, avg.Detail, avg.UpdatedAt, avg.ArtistID, avg.EventID,
	)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update review average: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAverageNotFound
	}

	return nil
}

func (r *averageRepository) Save(ctx context.Context, avg *entity.ReviewAverage) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "review_averages")
	defer timer.ObserveDuration()

	avg.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO review_averages (`+averageColumns+`) VALUES (?, ?, ?, ?, ?, ?) `+
			`ON CONFLICT (artist_id, event_id) DO UPDATE SET value = EXCLUDED.value, count = EXCLUDED.count, `+
			`detail = EXCLUDED.detail, updated_at = EXCLUDED.updated_at`,
		avg.ArtistID, avg.EventID, avg.Value, avg.Count, avg.Detail, avg.UpdatedAt,
	)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to save review average: %w", result.Error)
	}

	return nil
}
