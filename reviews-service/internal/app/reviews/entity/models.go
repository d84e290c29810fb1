package entity

import (
	"time"

	"github.com/google/uuid"
)

// Review - отзыв покупателя об артисте по конкретному завершенному событию.
// Пока IsRated = false это заготовка (placeholder) без оценки
type Review struct {
	ID          uuid.UUID `json:"id" gorm:"column:id;type:uuid;primaryKey"`
	ArtistID    uuid.UUID `json:"artist_id" gorm:"column:artist_id;type:uuid"`
	EventID     uuid.UUID `json:"event_id" gorm:"column:event_id;type:uuid"`
	CreatedBy   uuid.UUID `json:"created_by" gorm:"column:created_by;type:uuid"` // UUID покупателя из Auth Service
	Value       *int      `json:"value,omitempty" gorm:"column:value"`           // Оценка от 1 до 5, NULL до оценки
	DisplayName string    `json:"display_name" gorm:"column:display_name"`
	Header      *string   `json:"header,omitempty" gorm:"column:header"`
	Content     *string   `json:"content,omitempty" gorm:"column:content"`
	IsRated     bool      `json:"is_rated" gorm:"column:is_rated"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

// Rating возвращает оценку или 0 для заготовки
func (r *Review) Rating() int {
	if r.Value == nil {
		return 0
	}
	return *r.Value
}

// ReviewAverage - агрегат оценок по паре (артист, событие)
type ReviewAverage struct {
	ArtistID  uuid.UUID      `json:"artist_id" gorm:"column:artist_id;type:uuid;primaryKey"`
	EventID   uuid.UUID      `json:"event_id" gorm:"column:event_id;type:uuid;primaryKey"`
	Value     float64        `json:"value" gorm:"column:value"`
	Count     int            `json:"count" gorm:"column:count"`
	Detail    ScoreHistogram `json:"detail" gorm:"column:detail;type:jsonb"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

func (ReviewAverage) TableName() string {
	return "review_averages"
}

// ReviewReaction - реакция покупателя на опубликованный отзыв.
// Отсутствие строки означает "нет реакции"
type ReviewReaction struct {
	ReviewID   uuid.UUID    `json:"review_id" gorm:"column:review_id;type:uuid;primaryKey"`
	CustomerID uuid.UUID    `json:"customer_id" gorm:"column:customer_id;type:uuid;primaryKey"`
	Reaction   ReactionType `json:"reaction" gorm:"column:reaction"`
	CreatedAt  time.Time    `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"column:updated_at"`
}

func (ReviewReaction) TableName() string {
	return "review_reactions"
}

// ReviewWithReactions - отзыв со счетчиками реакций для публичной выдачи
type ReviewWithReactions struct {
	Review
	Likes      int          `json:"likes" gorm:"column:likes"`
	Dislikes   int          `json:"dislikes" gorm:"column:dislikes"`
	MyReaction ReactionType `json:"my_reaction" gorm:"column:my_reaction"`
}

// PairKey идентифицирует агрегат
type PairKey struct {
	ArtistID uuid.UUID `json:"artist_id" gorm:"column:artist_id;type:uuid"`
	EventID  uuid.UUID `json:"event_id" gorm:"column:event_id;type:uuid"`
}
