package handler

import (
	"net/http"

	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ReactionHandler struct {
	reactionService service.ReactionServiceInterface
	validator       *validator.Validate
}

func NewReactionHandler(reactionService service.ReactionServiceInterface) *ReactionHandler {
	return &ReactionHandler{
		reactionService: reactionService,
		validator:       validator.New(),
	}
}

// React - like/dislike/none. Повтор той же реакции снимает ее
func (h *ReactionHandler) React(c *gin.Context) {
	customerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reviewID, err := uuid.Parse(c.Param("review_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	var req entity.ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	reaction, err := entity.ParseReaction(req.Reaction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.reactionService.React(c.Request.Context(), reviewID, customerID, reaction)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
