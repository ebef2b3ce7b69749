// Package history archives presented plans so users can revisit them.
package history

import (
	"context"
	"fmt"
	"time"

	"planmate/database"
	"planmate/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores and retrieves archived plans.
type Repository interface {
	Create(ctx context.Context, rec *models.PlanRecord) error
	GetByChatID(ctx context.Context, chatID string, limit int64) ([]models.PlanRecord, error)
}

// MongoRepository implements Repository on the shared Mongo client.
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository opens the plans collection.
func NewMongoRepository() *MongoRepository {
	return &MongoRepository{col: database.Collection("plans")}
}

// Create implements Repository.
func (r *MongoRepository) Create(ctx context.Context, rec *models.PlanRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to archive plan: %w", err)
	}
	return nil
}

// GetByChatID implements Repository, newest first.
func (r *MongoRepository) GetByChatID(ctx context.Context, chatID string, limit int64) ([]models.PlanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.col.Find(ctx, bson.M{"chatId": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan history: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.PlanRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode plan history: %w", err)
	}
	return records, nil
}
