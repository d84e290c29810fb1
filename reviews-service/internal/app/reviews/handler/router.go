package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stagereviews/pkg/logger"
	"stagereviews/pkg/metrics"
)

func SetupRoutes(reviewHandler *ReviewHandler, reactionHandler *ReactionHandler, authMiddleware *AuthMiddleware, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("reviews-service"))

	corsConfig := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "reviews-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Отзывы по паре артист+событие
	pair := router.Group("/artists/:artist_id/events/:event_id")
	{
		pair.GET("/reviews", authMiddleware.OptionalAuthenticate(), reviewHandler.ListReviews)
		pair.GET("/average", reviewHandler.GetAverage)
		pair.POST("/reviews", authMiddleware.Authenticate(), reviewHandler.SubmitReview)
	}

	reviews := router.Group("/reviews")
	reviews.Use(authMiddleware.Authenticate())
	{
		reviews.GET("/me", reviewHandler.GetMyReviews)
		reviews.PUT("/:review_id/reaction", reactionHandler.React)
	}

	return router
}
