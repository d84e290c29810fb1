package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stagereviews/pkg/metrics"
	"stagereviews/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "reviews-service"
	keyPrefix   = "avg"
)

// RedisCache кеширует агрегаты пар в Redis как JSON
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpPing)
	defer timer.ObserveDuration()

	if err := client.Ping(ctx).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpPing)
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func averageKey(artistID, eventID uuid.UUID) string {
	return keyPrefix + ":" + artistID.String() + ":" + eventID.String()
}

// GetAverage возвращает nil, nil при промахе
func (c *RedisCache) GetAverage(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := c.client.Get(ctx, averageKey(artistID, eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, keyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get average from cache: %w", err)
	}

	var avg entity.ReviewAverage
	if err := json.Unmarshal(data, &avg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal average: %w", err)
	}

	metrics.RecordCacheHit(serviceName, keyPrefix)
	return &avg, nil
}

func (c *RedisCache) SetAverage(ctx context.Context, avg *entity.ReviewAverage) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(avg)
	if err != nil {
		return fmt.Errorf("failed to marshal average: %w", err)
	}

	if err := c.client.Set(ctx, averageKey(avg.ArtistID, avg.EventID), data, c.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set average in cache: %w", err)
	}

	return nil
}

func (c *RedisCache) DeleteAverage(ctx context.Context, artistID, eventID uuid.UUID) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := c.client.Del(ctx, averageKey(artistID, eventID)).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete average from cache: %w", err)
	}

	return nil
}

// Ping используется health-check'ом воркера
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
