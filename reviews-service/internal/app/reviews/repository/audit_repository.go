package repository

import (
	"context"
	"fmt"
	"time"

	"stagereviews/pkg/logger"
	"stagereviews/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditCollection = "aggregate_audits"

type auditRepository struct {
	collection *mongo.Collection
}

// NewAuditRepository создает журнал сверок в MongoDB.
// Индекс по (artist_id, event_id, checked_at) создается при старте
func NewAuditRepository(db *mongo.Database) AuditRepository {
	collection := db.Collection(auditCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "artist_id", Value: 1},
			{Key: "event_id", Value: 1},
			{Key: "checked_at", Value: -1},
		},
		Options: options.Index().SetName("pair_checked_at_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		// Индекс может уже существовать - не критично
		logger.Warn().Err(err).Msg("Failed to create index on aggregate_audits")
	}

	return &auditRepository{collection: collection}
}

func (r *auditRepository) Insert(ctx context.Context, audit *entity.AggregateAudit) error {
	if audit.CheckedAt.IsZero() {
		audit.CheckedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, audit); err != nil {
		return fmt.Errorf("failed to insert aggregate audit: %w", err)
	}

	return nil
}

// ListRecent возвращает последние записи журнала, новые первыми
func (r *auditRepository) ListRecent(ctx context.Context, limit int64) ([]entity.AggregateAudit, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "checked_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find aggregate audits: %w", err)
	}
	defer cursor.Close(ctx)

	var audits []entity.AggregateAudit
	if err := cursor.All(ctx, &audits); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate audits: %w", err)
	}

	return audits, nil
}
