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

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection(config.OrdersCollection)}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, order)
	return translate(err)
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// OwnerField returns the order field that links an order to a party role.
func OwnerField(role string) string {
	switch role {
	case models.RoleSeller:
		return "sellerId"
	case models.RoleRider:
		return "riderId"
	default:
		return "userId"
	}
}

// ListFor returns the orders of one party, hiding those the party deleted.
func (r *OrderRepository) ListFor(ctx context.Context, role string, partyID primitive.ObjectID, status string, page, limit int64) ([]models.Order, int64, error) {
	filter := bson.M{
		OwnerField(role): partyID,
		"deletedBy":      bson.M{"$ne": role},
	}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter, page, limit)
}

// ListAll is the admin view, optionally filtered by status.
func (r *OrderRepository) ListAll(ctx context.Context, status string, page, limit int64) ([]models.Order, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter, page, limit)
}

// ListAvailable returns packed orders that no rider has claimed yet.
func (r *OrderRepository) ListAvailable(ctx context.Context, page, limit int64) ([]models.Order, int64, error) {
	return r.find(ctx, bson.M{
		"status":  models.OrderStatusPacking,
		"riderId": bson.M{"$exists": false},
	}, page, limit)
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M, page, limit int64) ([]models.Order, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip(page, limit)).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Transition moves an order from one of the from statuses to to. The update
// only applies when the stored status still matches, otherwise ErrConflict.
// set and unset carry extra fields written in the same update.
func (r *OrderRepository) Transition(ctx context.Context, id primitive.ObjectID, from []string, change models.StatusChange, set, unset bson.M) (*models.Order, error) {
	if set == nil {
		set = bson.M{}
	}
	set["status"] = change.Status
	set["updatedAt"] = change.At
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"statusHistory": change},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return r.conditionalUpdate(ctx, bson.M{"_id": id, "status": bson.M{"$in": from}}, update)
}

// AssignRider claims a packed order for a rider when nobody else did.
func (r *OrderRepository) AssignRider(ctx context.Context, id, riderID primitive.ObjectID) (*models.Order, error) {
	return r.conditionalUpdate(ctx,
		bson.M{"_id": id, "status": models.OrderStatusPacking, "riderId": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"riderId": riderID, "updatedAt": time.Now()}},
	)
}

// RequestRefund stores a refund request on a delivered order without one.
func (r *OrderRepository) RequestRefund(ctx context.Context, id, userID primitive.ObjectID, refund models.Refund) (*models.Order, error) {
	return r.conditionalUpdate(ctx,
		bson.M{
			"_id":    id,
			"userId": userID,
			"status": models.OrderStatusDelivered,
			"refund": bson.M{"$exists": false},
		},
		bson.M{"$set": bson.M{"refund": refund, "updatedAt": time.Now()}},
	)
}

// ResolveRefund settles a requested refund.
func (r *OrderRepository) ResolveRefund(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Order, error) {
	set["updatedAt"] = time.Now()
	return r.conditionalUpdate(ctx,
		bson.M{"_id": id, "refund.status": models.RefundRequested},
		bson.M{"$set": set},
	)
}

func (r *OrderRepository) conditionalUpdate(ctx context.Context, filter, update bson.M) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkDeletedBy records that role hid a terminal order.
func (r *OrderRepository) MarkDeletedBy(ctx context.Context, id primitive.ObjectID, role string) (*models.Order, error) {
	return r.conditionalUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": []string{models.OrderStatusDelivered, models.OrderStatusCancelled}}},
		bson.M{"$addToSet": bson.M{"deletedBy": role}, "$set": bson.M{"updatedAt": time.Now()}},
	)
}

func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DueForAutoAdvance returns orders whose automatic step is due.
func (r *OrderRepository) DueForAutoAdvance(ctx context.Context, now time.Time, limit int64) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "autoAdvanceAt", Value: 1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"autoAdvanceAt": bson.M{"$lte": now}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CountByStatus groups orders by status, optionally restricted by match.
func (r *OrderRepository) CountByStatus(ctx context.Context, match bson.M) (map[string]int64, error) {
	if match == nil {
		match = bson.M{}
	}
	return countGrouped(ctx, r.collection, match, "$status")
}

// GrossDelivered sums the subtotal of delivered orders.
func (r *OrderRepository) GrossDelivered(ctx context.Context) (float64, error) {
	return sumField(ctx, r.collection, bson.M{"status": models.OrderStatusDelivered}, "$subtotal")
}

func sumField(ctx context.Context, coll *mongo.Collection, match bson.M, field string) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": field}}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
