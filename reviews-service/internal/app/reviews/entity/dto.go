package entity

import "strings"

// SubmissionStatus - результат SubmitRating
type SubmissionStatus string

const (
	StatusAcknowledged      SubmissionStatus = "acknowledged"
	StatusCreatedReview     SubmissionStatus = "createdReview"
	StatusRatedSuccessfully SubmissionStatus = "ratedSuccessfully"
)

// SubmitRatingRequest - запрос на оценку или резервирование отзыва.
// Пустое тело означает намерение оставить отзыв позже
type SubmitRatingRequest struct {
	Rating      *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment     *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
	Header      *string `json:"header,omitempty" validate:"omitempty,max=120"`
	DisplayName string  `json:"display_name" validate:"omitempty,max=80"`
}

func (r *SubmitRatingRequest) HasComment() bool {
	return r.Comment != nil && strings.TrimSpace(*r.Comment) != ""
}

func (r *SubmitRatingRequest) Kind() SubmissionKind {
	if r.Rating == nil && !r.HasComment() {
		return SubmissionIntent
	}
	return SubmissionRating
}

type SubmitRatingResponse struct {
	Status  SubmissionStatus `json:"status"`
	Review  *Review          `json:"review,omitempty"`
	Average *ReviewAverage   `json:"average,omitempty"`
}

// ReactRequest - запрос на реакцию like/dislike/none
type ReactRequest struct {
	Reaction string `json:"reaction" validate:"required,oneof=like dislike none"`
}

type ReactionResult struct {
	Status   ReactionOutcome `json:"status"`
	Reaction ReactionType    `json:"reaction"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ReviewListResponse - ответ со списком отзывов
type ReviewListResponse struct {
	Reviews []ReviewWithReactions `json:"reviews"`
	Total   int                   `json:"total"`
}

type MyReviewsResponse struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
}
