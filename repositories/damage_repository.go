package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
)

type DamageRepository struct {
	collection *mongo.Collection
}

func NewDamageRepository(db *mongo.Database) *DamageRepository {
	return &DamageRepository{collection: db.Collection(config.DamageLogsCollection)}
}

func (r *DamageRepository) Create(ctx context.Context, log *models.DamageLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	if log.ReportedAt.IsZero() {
		log.ReportedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, log)
	return err
}

// List returns damage logs; resolved filters on resolution state when set.
func (r *DamageRepository) List(ctx context.Context, sellerID *primitive.ObjectID, resolved *bool, page, limit int64) ([]models.DamageLog, int64, error) {
	filter := bson.M{}
	if sellerID != nil {
		filter["sellerId"] = *sellerID
	}
	if resolved != nil {
		filter["resolvedAt"] = bson.M{"$exists": *resolved}
	}
	logs := []models.DamageLog{}
	total, err := findAll(ctx, r.collection, filter, bson.D{{Key: "reportedAt", Value: -1}}, page, limit, &logs)
	return logs, total, err
}

func (r *DamageRepository) Resolve(ctx context.Context, id primitive.ObjectID, resolution string) (*models.DamageLog, error) {
	now := time.Now()
	var log models.DamageLog
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "resolvedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"resolution": resolution, "resolvedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&log)
	if err != nil {
		return nil, translate(err)
	}
	return &log, nil
}
