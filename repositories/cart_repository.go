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

type CartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{collection: db.Collection(config.CartsCollection)}
}

// Get returns the user's cart, or an empty one when none was stored yet.
func (r *CartRepository) Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// AddItem increases an existing line or appends a new one.
func (r *CartRepository) AddItem(ctx context.Context, userID primitive.ObjectID, item models.CartItem) error {
	now := time.Now()
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"userId": userID, "items.productId": item.ProductID},
		bson.M{
			"$inc": bson.M{"items.$.quantity": item.Quantity},
			"$set": bson.M{"items.$.price": item.Price, "updatedAt": now},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$push":        bson.M{"items": item},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return translate(err)
}

// SetQuantity moves a line from quantity from to quantity to. It fails with
// ErrConflict when the line no longer holds from units.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, from, to int) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{
			"userId": userID,
			"items":  bson.M{"$elemMatch": bson.M{"productId": productID, "quantity": from}},
		},
		bson.M{"$set": bson.M{"items.$.quantity": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// RemoveItems pulls the given product lines from the cart and returns the
// lines that were actually removed.
func (r *CartRepository) RemoveItems(ctx context.Context, userID primitive.ObjectID, productIDs []primitive.ObjectID) ([]models.CartItem, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	before, err := r.takeItems(ctx,
		bson.M{"userId": userID, "items.productId": bson.M{"$in": productIDs}},
		bson.M{"$pull": bson.M{"items": bson.M{"productId": bson.M{"$in": productIDs}}}},
	)
	if err != nil || before == nil {
		return nil, err
	}
	wanted := make(map[primitive.ObjectID]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	var removed []models.CartItem
	for _, item := range before.Items {
		if wanted[item.ProductID] {
			removed = append(removed, item)
		}
	}
	return removed, nil
}

// Clear empties the cart and returns the lines it held.
func (r *CartRepository) Clear(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	before, err := r.takeItems(ctx,
		bson.M{"userId": userID, "items.0": bson.M{"$exists": true}},
		bson.M{"$set": bson.M{"items": []models.CartItem{}}},
	)
	if err != nil || before == nil {
		return nil, err
	}
	return before.Items, nil
}

// takeItems applies update and returns the cart as it was before, or nil when
// filter matched nothing.
func (r *CartRepository) takeItems(ctx context.Context, filter, update bson.M) (*models.Cart, error) {
	if set, ok := update["$set"].(bson.M); ok {
		set["updatedAt"] = time.Now()
	} else {
		update["$set"] = bson.M{"updatedAt": time.Now()}
	}
	var before models.Cart
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &before, nil
}
