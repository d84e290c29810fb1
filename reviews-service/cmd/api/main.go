package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stagereviews/pkg/logger"
	"stagereviews/reviews-service/internal/app/reviews/config"
	"stagereviews/reviews-service/internal/app/reviews/handler"
	"stagereviews/reviews-service/internal/app/reviews/infrastructure"
	"stagereviews/reviews-service/internal/app/reviews/infrastructure/cache"
	http2 "stagereviews/reviews-service/internal/app/reviews/infrastructure/http"
	"stagereviews/reviews-service/internal/app/reviews/infrastructure/messaging"
	"stagereviews/reviews-service/internal/app/reviews/repository"
	"stagereviews/reviews-service/internal/app/reviews/service"
	"stagereviews/reviews-service/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("reviews-service", cfg.Log.Level)

	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, "reviews-service", cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.DBName).
		Msg("Connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.DSN()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	// Без Redis API работает, просто без кеша агрегатов
	var averageCache infrastructure.AverageCache
	redisClient, err := cache.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, average cache disabled")
	} else {
		redisCache := cache.NewRedisCache(redisClient, cfg.Redis.TTL)
		defer redisCache.Close()
		averageCache = redisCache
		logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")
	}

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().
		Str("topic", cfg.Kafka.Topic).
		Msg("Initialized Kafka producer")

	bookingClient := http2.NewBookingClient(cfg.Booking.URL, cfg.Booking.Timeout)
	if cfg.Booking.Token != "" {
		bookingClient.SetAuthToken(cfg.Booking.Token)
	}
	logger.Info().
		Str("url", cfg.Booking.URL).
		Msg("Initialized Booking Service client")

	reviewRepo := repository.NewReviewRepository(db)
	averageRepo := repository.NewAverageRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	transactor := repository.NewTransactor(db)

	reviewService := service.NewReviewService(transactor, reviewRepo, averageRepo, averageCache, kafkaProducer)
	reactionService := service.NewReactionService(reviewRepo, reactionRepo, kafkaProducer)

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	reviewHandler := handler.NewReviewHandler(reviewService, bookingClient)
	reactionHandler := handler.NewReactionHandler(reactionService)
	router := handler.SetupRoutes(reviewHandler, reactionHandler, authMiddleware, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Reviews Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Reviews Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info().Msg("Reviews Service stopped gracefully")
}

func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else {
				pingErr := sqlDB.Ping()
				if pingErr != nil {
					err = pingErr
				} else {
					sqlDB.SetMaxOpenConns(25)
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetConnMaxLifetime(5 * time.Minute)
					sqlDB.SetConnMaxIdleTime(1 * time.Minute)
					return db, nil
				}
			}
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to database, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}
