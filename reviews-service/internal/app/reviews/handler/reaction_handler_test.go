package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func reactionPath(reviewID string) string {
	return "/reviews/" + reviewID + "/reaction"
}

func TestReactHandler_Success(t *testing.T) {
	env := setupTestRouter()
	customerID, reviewID := uuid.New(), uuid.New()
	token := signToken(t, testSecret, customerID.String(), time.Hour)

	env.reactions.On("React", mock.Anything, reviewID, customerID, entity.ReactionLike).
		Return(&entity.ReactionResult{Status: entity.OutcomeCreated, Reaction: entity.ReactionLike}, nil)

	w := env.do(t, http.MethodPut, reactionPath(reviewID.String()), entity.ReactRequest{Reaction: "like"}, token)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.ReactionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entity.OutcomeCreated, resp.Status)
	assert.Equal(t, entity.ReactionLike, resp.Reaction)
	env.reactions.AssertExpectations(t)
}

func TestReactHandler_BadInput(t *testing.T) {
	env := setupTestRouter()
	token := signToken(t, testSecret, uuid.NewString(), time.Hour)

	w := env.do(t, http.MethodPut, reactionPath("nope"), entity.ReactRequest{Reaction: "like"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid review ID")

	w = env.do(t, http.MethodPut, reactionPath(uuid.NewString()), entity.ReactRequest{Reaction: "love"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Reaction is oneof")

	w = env.do(t, http.MethodPut, reactionPath(uuid.NewString()), nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.reactions.AssertNotCalled(t, "React", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReactHandler_RequiresAuth(t *testing.T) {
	env := setupTestRouter()

	w := env.do(t, http.MethodPut, reactionPath(uuid.NewString()), entity.ReactRequest{Reaction: "like"}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReactHandler_ServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "review missing", err: service.ErrReviewNotFound, status: http.StatusNotFound, code: "not_found"},
		{name: "review not rated yet", err: service.ErrReviewPendingRating, status: http.StatusUnprocessableEntity, code: "bad_rule"},
		{name: "create failed", err: service.ErrReactionCreateFailed, status: http.StatusUnprocessableEntity, code: "unprocessable"},
		{name: "update failed", err: service.ErrReactionUpdateFailed, status: http.StatusUnprocessableEntity, code: "unprocessable"},
		{name: "disable failed", err: service.ErrReactionDisableFailed, status: http.StatusUnprocessableEntity, code: "unprocessable"},
		{name: "read failed", err: service.ErrCouldNotReact, status: http.StatusUnprocessableEntity, code: "unprocessable"},
		{name: "unknown reaction", err: service.ErrInvalidReaction, status: http.StatusUnprocessableEntity, code: "bad_rule"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTestRouter()
			customerID := uuid.New()
			token := signToken(t, testSecret, customerID.String(), time.Hour)

			env.reactions.On("React", mock.Anything, mock.Anything, customerID, entity.ReactionDislike).Return(nil, tc.err)

			w := env.do(t, http.MethodPut, reactionPath(uuid.NewString()), entity.ReactRequest{Reaction: "dislike"}, token)

			assert.Equal(t, tc.status, w.Code)

			var resp entity.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Error)
			assert.Equal(t, tc.err.Error(), resp.Message)
		})
	}
}
