package handler

import (
	"errors"
	"io"
	"net/http"

	"stagereviews/pkg/logger"
	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/infrastructure"
	bookinghttp "stagereviews/reviews-service/internal/app/reviews/infrastructure/http"
	"stagereviews/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
	eligibility   infrastructure.EligibilityChecker
	validator     *validator.Validate
}

func NewReviewHandler(reviewService service.ReviewServiceInterface, eligibility infrastructure.EligibilityChecker) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		eligibility:   eligibility,
		validator:     validator.New(),
	}
}

// SubmitReview - намерение оставить отзыв (пустое тело) или оценка.
// Перед вызовом сервиса проверяем в Booking Service, что покупатель был на событии
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	customerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	artistID, eventID, ok := pairParams(c)
	if !ok {
		return
	}

	// Пустое тело - намерение
	var req entity.SubmitRatingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	eligible, err := h.eligibility.IsCustomerEligibleAndEventDone(c.Request.Context(), customerID, artistID, eventID)
	if err != nil {
		if errors.Is(err, bookinghttp.ErrBookingNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "No booking for this event"})
			return
		}
		logger.Error().Err(err).Str("customer_id", customerID.String()).Msg("Eligibility check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Booking service unavailable"})
		return
	}
	if !eligible {
		c.JSON(http.StatusForbidden, gin.H{"error": "Event is not completed or customer did not attend"})
		return
	}

	result, err := h.reviewService.SubmitRating(c.Request.Context(), artistID, eventID, customerID, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Status == entity.StatusAcknowledged {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// ListReviews - опубликованные отзывы пары. Для авторизованного пользователя
// в каждом отзыве есть его собственная реакция
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	artistID, eventID, ok := pairParams(c)
	if !ok {
		return
	}

	viewerID, _ := currentUserID(c)

	reviews, err := h.reviewService.ListReviews(c.Request.Context(), artistID, eventID, viewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get reviews"})
		return
	}

	if reviews == nil {
		reviews = []entity.ReviewWithReactions{}
	}

	c.JSON(http.StatusOK, entity.ReviewListResponse{
		Reviews: reviews,
		Total:   len(reviews),
	})
}

func (h *ReviewHandler) GetAverage(c *gin.Context) {
	artistID, eventID, ok := pairParams(c)
	if !ok {
		return
	}

	avg, err := h.reviewService.GetAverage(c.Request.Context(), artistID, eventID)
	if err != nil {
		if errors.Is(err, service.ErrAverageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No ratings for this event yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get average"})
		return
	}

	c.JSON(http.StatusOK, avg)
}

func (h *ReviewHandler) GetMyReviews(c *gin.Context) {
	customerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reviews, err := h.reviewService.GetMyReviews(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get reviews"})
		return
	}

	if reviews == nil {
		reviews = []entity.Review{}
	}

	c.JSON(http.StatusOK, entity.MyReviewsResponse{
		Reviews: reviews,
		Total:   len(reviews),
	})
}

func pairParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	artistID, err := uuid.Parse(c.Param("artist_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid artist ID"})
		return uuid.Nil, uuid.Nil, false
	}

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return uuid.Nil, uuid.Nil, false
	}

	return artistID, eventID, true
}

// writeServiceError переводит класс ошибки сервиса в HTTP статус.
// Сбои транзакций отдаются без деталей хранилища
func writeServiceError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindConflict:
		c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "conflict", Message: err.Error()})
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "not_found", Message: err.Error()})
	case service.KindBadRule:
		c.JSON(http.StatusUnprocessableEntity, entity.ErrorResponse{Error: "bad_rule", Message: err.Error()})
	case service.KindUnprocessable:
		c.JSON(http.StatusUnprocessableEntity, entity.ErrorResponse{Error: "unprocessable", Message: err.Error()})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled service error")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "internal", Message: "Internal server error"})
	}
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
