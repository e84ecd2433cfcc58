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

type QrCodeRepository struct {
	collection *mongo.Collection
}

func NewQrCodeRepository(db *mongo.Database) *QrCodeRepository {
	return &QrCodeRepository{collection: db.Collection(config.QrCodesCollection)}
}

func (r *QrCodeRepository) Create(ctx context.Context, code *models.QrCode) error {
	if code.ID.IsZero() {
		code.ID = primitive.NewObjectID()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, code)
	return err
}

// FindActive returns the newest unused, unexpired code for an order.
func (r *QrCodeRepository) FindActive(ctx context.Context, orderID primitive.ObjectID, purpose string, now time.Time) (*models.QrCode, error) {
	var code models.QrCode
	err := r.collection.FindOne(ctx,
		bson.M{
			"orderId":   orderID,
			"purpose":   purpose,
			"usedAt":    bson.M{"$exists": false},
			"expiresAt": bson.M{"$gt": now},
		},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&code)
	if err != nil {
		return nil, translate(err)
	}
	return &code, nil
}

// Consume marks a code as used. It fails with ErrNotFound when the token does
// not belong to the order, was already used or has expired.
func (r *QrCodeRepository) Consume(ctx context.Context, orderID primitive.ObjectID, token, purpose string, now time.Time) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{
			"orderId":   orderID,
			"token":     token,
			"purpose":   purpose,
			"usedAt":    bson.M{"$exists": false},
			"expiresAt": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"usedAt": now}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Release makes a consumed code usable again.
func (r *QrCodeRepository) Release(ctx context.Context, orderID primitive.ObjectID, token, purpose string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"orderId": orderID, "token": token, "purpose": purpose, "usedAt": bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{"usedAt": ""}},
	)
	return err
}
