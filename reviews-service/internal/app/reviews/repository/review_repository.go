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

const (
	serviceName = "reviews-service"

	reviewColumns = `id, artist_id, event_id, created_by, value, display_name, header, content, is_rated, created_at, updated_at`
)

// reviewRepository реализует ReviewRepository через GORM.
// Запросы, от которых зависят инварианты (ON CONFLICT, условный UPDATE),
// написаны явным SQL
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository создает новый репозиторий отзывов
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// GetByKey ищет отзыв покупателя по артисту и событию
func (r *reviewRepository) GetByKey(ctx context.Context, customerID, artistID, eventID uuid.UUID) (*entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")
	defer timer.ObserveDuration()

	var review entity.Review
	result := r.db.WithContext(ctx).
		Raw(`SELECT `+reviewColumns+` FROM reviews WHERE created_by = ? AND artist_id = ? AND event_id = ?`,
			customerID, artistID, eventID).
		Scan(&review)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get review by key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrReviewNotFound
	}

	return &review, nil
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")
	defer timer.ObserveDuration()

	var review entity.Review
	result := r.db.WithContext(ctx).
		Raw(`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id).
		Scan(&review)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrReviewNotFound
	}

	return &review, nil
}

// CreatePlaceholder вставляет неоцененный отзыв.
// При гонке двух намерений побеждает первая вставка, вторая получает false
func (r *reviewRepository) CreatePlaceholder(ctx context.Context, review *entity.Review) (bool, error) {
	review.Value = nil
	review.IsRated = false
	return r.insert(ctx, review)
}

// CreateRated вставляет сразу оцененный отзыв
func (r *reviewRepository) CreateRated(ctx context.Context, review *entity.Review) (bool, error) {
	if review.Value == nil {
		return false, fmt.Errorf("rated review requires a value")
	}
	review.IsRated = true
	return r.insert(ctx, review)
}

func (r *reviewRepository) insert(ctx context.Context, review *entity.Review) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "reviews")
	defer timer.ObserveDuration()

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) `+
			`ON CONFLICT (created_by, artist_id, event_id) DO NOTHING`,
		review.ID, review.ArtistID, review.EventID, review.CreatedBy, review.Value,
		review.DisplayName, review.Header, review.Content, review.IsRated,
		review.CreatedAt, review.UpdatedAt,
	)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return false, fmt.Errorf("failed to create review: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// PromoteToRated переводит заготовку в оцененный отзыв.
// Условие is_rated = false делает переход однократным даже при гонке
func (r *reviewRepository) PromoteToRated(ctx context.Context, review *entity.Review) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "reviews")
	defer timer.ObserveDuration()

	if review.Value == nil {
		return false, fmt.Errorf("rated review requires a value")
	}
	review.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Exec(
		`UPDATE reviews SET value = ?, display_name = COALESCE(NULLIF(?, ''), display_name), `+
			`header = COALESCE(?, header), content = COALESCE(?, content), is_rated = true, updated_at = ? `+
			`WHERE id = ? AND is_rated = false`,
		review.Value, review.DisplayName, review.Header, review.Content, review.UpdatedAt, review.ID,
	)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return false, fmt.Errorf("failed to rate review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	review.IsRated = true
	return true, nil
}

// ListRatedByPair возвращает опубликованные отзывы пары со счетчиками реакций
// и реакцией текущего пользователя
func (r *reviewRepository) ListRatedByPair(ctx context.Context, artistID, eventID, viewerID uuid.UUID) ([]entity.ReviewWithReactions, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")
	defer timer.ObserveDuration()

	query := `SELECT r.id, r.artist_id, r.event_id, r.created_by, r.value, r.display_name, r.header, r.content, ` +
		`r.is_rated, r.created_at, r.updated_at, ` +
		`COUNT(rr.customer_id) FILTER (WHERE rr.reaction = 'like') AS likes, ` +
		`COUNT(rr.customer_id) FILTER (WHERE rr.reaction = 'dislike') AS dislikes, ` +
		`MAX(CASE WHEN rr.customer_id = ? THEN rr.reaction END) AS my_reaction ` +
		`FROM reviews r LEFT JOIN review_reactions rr ON rr.review_id = r.id ` +
		`WHERE r.artist_id = ? AND r.event_id = ? AND r.is_rated = true ` +
		`GROUP BY r.id ORDER BY r.created_at DESC`

	var reviews []entity.ReviewWithReactions
	if err := r.db.WithContext(ctx).Raw(query, viewerID, artistID, eventID).Scan(&reviews).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	for i := range reviews {
		if reviews[i].MyReaction == "" {
			reviews[i].MyReaction = entity.ReactionNone
		}
	}

	return reviews, nil
}

// ListByAuthor возвращает все отзывы покупателя, включая заготовки
func (r *reviewRepository) ListByAuthor(ctx context.Context, customerID uuid.UUID) ([]entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")
	defer timer.ObserveDuration()

	var reviews []entity.Review
	err := r.db.WithContext(ctx).
		Raw(`SELECT `+reviewColumns+` FROM reviews WHERE created_by = ? ORDER BY created_at DESC`, customerID).
		Scan(&reviews).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list reviews by author: %w", err)
	}

	return reviews, nil
}

// ListRatedPairs - все пары, у которых есть хотя бы одна оценка или агрегат
func (r *reviewRepository) ListRatedPairs(ctx context.Context) ([]entity.PairKey, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")
	defer timer.ObserveDuration()

	var pairs []entity.PairKey
	err := r.db.WithContext(ctx).
		Raw(`SELECT artist_id, event_id FROM reviews WHERE is_rated = true ` +
			`UNION SELECT artist_id, event_id FROM review_averages`).
		Scan(&pairs).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list rated pairs: %w", err)
	}

	return pairs, nil
}

type scoreCount struct {
	Value int `gorm:"column:value"`
	Total int `gorm:"column:total"`
}

// ScoreCounts строит гистограмму оценок пары напрямую по строкам отзывов
func (r *reviewRepository) ScoreCounts(ctx context.Context, artistID, eventID uuid.UUID) (entity.ScoreHistogram, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")
	defer timer.ObserveDuration()

	var counts []scoreCount
	err := r.db.WithContext(ctx).
		Raw(`SELECT value, COUNT(*) AS total FROM reviews `+
			`WHERE artist_id = ? AND event_id = ? AND is_rated = true GROUP BY value`, artistID, eventID).
		Scan(&counts).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return entity.ScoreHistogram{}, fmt.Errorf("failed to count scores: %w", err)
	}

	var hist entity.ScoreHistogram
	for _, c := range counts {
		if !entity.ValidScore(c.Value) {
			return entity.ScoreHistogram{}, fmt.Errorf("review with invalid score %d for %s/%s", c.Value, artistID, eventID)
		}
		hist[c.Value-1] = c.Total
	}

	return hist, nil
}
