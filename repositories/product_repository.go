package repositories

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
)

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection(config.ProductsCollection)}
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, product)
	return translate(err)
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// FindApproved returns the product only when it is visible in the catalogue.
func (r *ProductRepository) FindApproved(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "approvalStatus": models.ApprovalApproved}).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// UpdateOwned applies set to a product belonging to sellerID.
func (r *ProductRepository) UpdateOwned(ctx context.Context, id, sellerID primitive.ObjectID, set bson.M) (*models.Product, error) {
	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "sellerId": sellerID},
		bson.M{"$set": set},
		opts,
	).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepository) DeleteOwned(ctx context.Context, id, sellerID primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "sellerId": sellerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddImages appends uploaded image and thumbnail URLs.
func (r *ProductRepository) AddImages(ctx context.Context, id, sellerID primitive.ObjectID, images, thumbnails []string) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "sellerId": sellerID},
		bson.M{
			"$push": bson.M{
				"images":     bson.M{"$each": images},
				"thumbnails": bson.M{"$each": thumbnails},
			},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		opts,
	).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepository) SetApproval(ctx context.Context, id primitive.ObjectID, status, reason string) (*models.Product, error) {
	set := bson.M{"approvalStatus": status, "updatedAt": time.Now()}
	update := bson.M{"$set": set}
	if reason != "" {
		set["rejectionReason"] = reason
	} else {
		update["$unset"] = bson.M{"rejectionReason": ""}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&product); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// ReserveStock takes qty units from an approved product. The stock guard lives
// in the filter so concurrent reservations cannot oversell.
func (r *ProductRepository) ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "approvalStatus": models.ApprovalApproved, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "approvalStatus": models.ApprovalApproved})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// ReleaseStock gives qty units back. Deleted products are ignored.
func (r *ProductRepository) ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	if qty <= 0 {
		return nil
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stock": qty}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	return err
}

func (r *ProductRepository) IncrementSold(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"soldCount": qty}})
	return err
}

// BuildFilter converts a ProductFilter into a Mongo query.
func BuildFilter(f models.ProductFilter) bson.M {
	filter := bson.M{}
	if f.SellerID != nil {
		filter["sellerId"] = *f.SellerID
	}
	if f.ApprovalStatus != "" {
		filter["approvalStatus"] = f.ApprovalStatus
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Query != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
	}
	if f.InStockOnly {
		filter["stock"] = bson.M{"$gt": 0}
	}
	return filter
}

func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	filter := BuildFilter(f)
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip(f.Page, f.Limit)).
		SetLimit(f.Limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// CountByStatus groups products by approval status, optionally for one seller.
func (r *ProductRepository) CountByStatus(ctx context.Context, sellerID *primitive.ObjectID) (map[string]int64, error) {
	match := bson.M{}
	if sellerID != nil {
		match["sellerId"] = *sellerID
	}
	return countGrouped(ctx, r.collection, match, "$approvalStatus")
}

// countGrouped runs a $group count on field and returns key -> count.
func countGrouped(ctx context.Context, coll *mongo.Collection, match bson.M, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Count
	}
	return out, nil
}
