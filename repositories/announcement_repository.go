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

type AnnouncementRepository struct {
	collection *mongo.Collection
}

func NewAnnouncementRepository(db *mongo.Database) *AnnouncementRepository {
	return &AnnouncementRepository{collection: db.Collection(config.AnnouncementsCollection)}
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *models.SeasonalAnnouncement) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, a)
	return err
}

func (r *AnnouncementRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.SeasonalAnnouncement, error) {
	set["updatedAt"] = time.Now()
	var a models.SeasonalAnnouncement
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AnnouncementRepository) List(ctx context.Context) ([]models.SeasonalAnnouncement, error) {
	return r.find(ctx, bson.M{})
}

// ListActive returns enabled announcements whose window contains now.
func (r *AnnouncementRepository) ListActive(ctx context.Context, now time.Time) ([]models.SeasonalAnnouncement, error) {
	return r.find(ctx, bson.M{
		"isActive":  true,
		"startDate": bson.M{"$lte": now},
		"endDate":   bson.M{"$gte": now},
	})
}

func (r *AnnouncementRepository) find(ctx context.Context, filter bson.M) ([]models.SeasonalAnnouncement, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	list := []models.SeasonalAnnouncement{}
	if err := cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
