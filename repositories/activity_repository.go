package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
)

type ActivityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{collection: db.Collection(config.ActivityLogsCollection)}
}

func (r *ActivityRepository) Insert(ctx context.Context, entry *models.ActivityLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// List filters by actor role and action when they are set.
func (r *ActivityRepository) List(ctx context.Context, actorRole, action string, page, limit int64) ([]models.ActivityLog, int64, error) {
	filter := bson.M{}
	if actorRole != "" {
		filter["actorRole"] = actorRole
	}
	if action != "" {
		filter["action"] = action
	}
	logs := []models.ActivityLog{}
	total, err := findAll(ctx, r.collection, filter, bson.D{{Key: "createdAt", Value: -1}}, page, limit, &logs)
	return logs, total, err
}
