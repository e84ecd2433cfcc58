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

// PayoutRepository owns the settlement ledger collections.
type PayoutRepository struct {
	sellerBuckets      *mongo.Collection
	riderBuckets       *mongo.Collection
	adminTransactions  *mongo.Collection
	sellerTransactions *mongo.Collection
	salesLists         *mongo.Collection
}

func NewPayoutRepository(db *mongo.Database) *PayoutRepository {
	return &PayoutRepository{
		sellerBuckets:      db.Collection(config.PayoutTransactionsCollection),
		riderBuckets:       db.Collection(config.RiderPayoutsCollection),
		adminTransactions:  db.Collection(config.AdminPaymentTransactionsCollection),
		sellerTransactions: db.Collection(config.SellerPaymentTransactionsCollection),
		salesLists:         db.Collection(config.SalesListsCollection),
	}
}

// AddToSellerBucket upserts the seller's bucket for date and adds the order.
func (r *PayoutRepository) AddToSellerBucket(ctx context.Context, sellerID, orderID primitive.ObjectID, date string, gross, tax, net float64) error {
	now := time.Now()
	_, err := r.sellerBuckets.UpdateOne(ctx,
		bson.M{"sellerId": sellerID, "date": date},
		bson.M{
			"$inc":         bson.M{"grossAmount": gross, "taxAmount": tax, "netAmount": net},
			"$push":        bson.M{"orderIds": orderID},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"status": models.PayoutStatusPending, "createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return translate(err)
}

// DeductFromSellerBucket takes a refunded order back out of its bucket. It
// reports false when the bucket was already paid or never held the order.
func (r *PayoutRepository) DeductFromSellerBucket(ctx context.Context, sellerID, orderID primitive.ObjectID, date string, gross, tax, net float64) (bool, error) {
	res, err := r.sellerBuckets.UpdateOne(ctx,
		bson.M{"sellerId": sellerID, "date": date, "status": models.PayoutStatusPending, "orderIds": orderID},
		bson.M{
			"$inc":  bson.M{"grossAmount": -gross, "taxAmount": -tax, "netAmount": -net},
			"$pull": bson.M{"orderIds": orderID},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// AddToRiderBucket upserts the rider's bucket for date and counts one delivery.
func (r *PayoutRepository) AddToRiderBucket(ctx context.Context, riderID, orderID primitive.ObjectID, date string, amount float64) error {
	now := time.Now()
	_, err := r.riderBuckets.UpdateOne(ctx,
		bson.M{"riderId": riderID, "date": date},
		bson.M{
			"$inc":         bson.M{"deliveries": 1, "amount": amount},
			"$push":        bson.M{"orderIds": orderID},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"status": models.PayoutStatusPending, "createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return translate(err)
}

func (r *PayoutRepository) InsertSellerTransaction(ctx context.Context, tx *models.SellerPaymentTransaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	_, err := r.sellerTransactions.InsertOne(ctx, tx)
	return err
}

func (r *PayoutRepository) InsertAdminTransaction(ctx context.Context, tx *models.AdminPaymentTransaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	_, err := r.adminTransactions.InsertOne(ctx, tx)
	return err
}

func (r *PayoutRepository) InsertSales(ctx context.Context, entries []models.SalesListEntry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	_, err := r.salesLists.InsertMany(ctx, docs)
	return err
}

func dateFilter(field, from, to string) bson.M {
	cond := bson.M{}
	if from != "" {
		cond["$gte"] = from
	}
	if to != "" {
		cond["$lte"] = to
	}
	if len(cond) == 0 {
		return nil
	}
	return bson.M{field: cond}
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, page, limit int64, out interface{}) (int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}
	opts := options.Find().SetSort(sort).SetSkip(skip(page, limit)).SetLimit(limit)
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)
	return total, cursor.All(ctx, out)
}

// SellerBuckets lists a seller's daily buckets; from and to are YYYY-MM-DD.
func (r *PayoutRepository) SellerBuckets(ctx context.Context, sellerID primitive.ObjectID, from, to string, page, limit int64) ([]models.PayoutTransaction, int64, error) {
	filter := bson.M{"sellerId": sellerID}
	for k, v := range dateFilter("date", from, to) {
		filter[k] = v
	}
	buckets := []models.PayoutTransaction{}
	total, err := findAll(ctx, r.sellerBuckets, filter, bson.D{{Key: "date", Value: -1}}, page, limit, &buckets)
	return buckets, total, err
}

// AllSellerBuckets is the admin payout queue.
func (r *PayoutRepository) AllSellerBuckets(ctx context.Context, status string, page, limit int64) ([]models.PayoutTransaction, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	buckets := []models.PayoutTransaction{}
	total, err := findAll(ctx, r.sellerBuckets, filter, bson.D{{Key: "date", Value: -1}}, page, limit, &buckets)
	return buckets, total, err
}

func (r *PayoutRepository) RiderBuckets(ctx context.Context, riderID primitive.ObjectID, page, limit int64) ([]models.RiderPayout, int64, error) {
	buckets := []models.RiderPayout{}
	total, err := findAll(ctx, r.riderBuckets, bson.M{"riderId": riderID}, bson.D{{Key: "date", Value: -1}}, page, limit, &buckets)
	return buckets, total, err
}

func (r *PayoutRepository) SellerTransactions(ctx context.Context, sellerID primitive.ObjectID, page, limit int64) ([]models.SellerPaymentTransaction, int64, error) {
	txs := []models.SellerPaymentTransaction{}
	total, err := findAll(ctx, r.sellerTransactions, bson.M{"sellerId": sellerID}, bson.D{{Key: "createdAt", Value: -1}}, page, limit, &txs)
	return txs, total, err
}

func (r *PayoutRepository) AdminTransactions(ctx context.Context, txType string, page, limit int64) ([]models.AdminPaymentTransaction, int64, error) {
	filter := bson.M{}
	if txType != "" {
		filter["type"] = txType
	}
	txs := []models.AdminPaymentTransaction{}
	total, err := findAll(ctx, r.adminTransactions, filter, bson.D{{Key: "createdAt", Value: -1}}, page, limit, &txs)
	return txs, total, err
}

// MarkSellerBucketPaid flips a pending bucket to paid.
func (r *PayoutRepository) MarkSellerBucketPaid(ctx context.Context, id primitive.ObjectID, adminID string) (*models.PayoutTransaction, error) {
	var bucket models.PayoutTransaction
	err := r.markPaid(ctx, r.sellerBuckets, id, adminID, &bucket)
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

func (r *PayoutRepository) MarkRiderBucketPaid(ctx context.Context, id primitive.ObjectID, adminID string) (*models.RiderPayout, error) {
	var bucket models.RiderPayout
	err := r.markPaid(ctx, r.riderBuckets, id, adminID, &bucket)
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

func (r *PayoutRepository) markPaid(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, adminID string, out interface{}) error {
	now := time.Now()
	err := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.PayoutStatusPending},
		bson.M{"$set": bson.M{"status": models.PayoutStatusPaid, "paidAt": now, "paidBy": adminID, "updatedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(out)
	if err == mongo.ErrNoDocuments {
		count, cerr := coll.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return cerr
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return err
}

// PendingSellerAmount sums the net of a seller's unpaid buckets.
func (r *PayoutRepository) PendingSellerAmount(ctx context.Context, sellerID primitive.ObjectID) (float64, error) {
	return sumField(ctx, r.sellerBuckets, bson.M{"sellerId": sellerID, "status": models.PayoutStatusPending}, "$netAmount")
}

// PendingSellerTotal sums every unpaid seller bucket.
func (r *PayoutRepository) PendingSellerTotal(ctx context.Context) (float64, error) {
	return sumField(ctx, r.sellerBuckets, bson.M{"status": models.PayoutStatusPending}, "$netAmount")
}

// PendingRiderAmount sums every unpaid rider bucket.
func (r *PayoutRepository) PendingRiderAmount(ctx context.Context) (float64, error) {
	return sumField(ctx, r.riderBuckets, bson.M{"status": models.PayoutStatusPending}, "$amount")
}

// PlatformRevenue sums the admin ledger. Refund rows are negative.
func (r *PayoutRepository) PlatformRevenue(ctx context.Context) (float64, error) {
	return sumField(ctx, r.adminTransactions, bson.M{}, "$amount")
}

// RiderEarnings totals a rider's buckets.
func (r *PayoutRepository) RiderEarnings(ctx context.Context, riderID primitive.ObjectID) (*models.RiderEarnings, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"riderId": riderID}}},
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"deliveries":  bson.M{"$sum": "$deliveries"},
			"totalAmount": bson.M{"$sum": "$amount"},
			"pendingAmount": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.PayoutStatusPending}}, "$amount", 0},
			}},
			"paidAmount": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.PayoutStatusPaid}}, "$amount", 0},
			}},
		}}},
	}
	cursor, err := r.riderBuckets.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var rows []models.RiderEarnings
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &models.RiderEarnings{}, nil
	}
	return &rows[0], nil
}

// SellerSales lists sales lines in [from, to) and totals them per product.
func (r *PayoutRepository) SellerSales(ctx context.Context, sellerID primitive.ObjectID, from, to time.Time) ([]models.SalesListEntry, []models.ProductSales, error) {
	match := bson.M{"sellerId": sellerID, "soldAt": bson.M{"$gte": from, "$lt": to}}
	cursor, err := r.salesLists.Find(ctx, match, options.Find().SetSort(bson.D{{Key: "soldAt", Value: -1}}))
	if err != nil {
		return nil, nil, err
	}
	defer cursor.Close(ctx)
	entries := []models.SalesListEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, nil, err
	}
	totals, err := r.productTotals(ctx, match, 0)
	if err != nil {
		return nil, nil, err
	}
	return entries, totals, nil
}

// TopProducts ranks products by sold quantity across all sellers.
func (r *PayoutRepository) TopProducts(ctx context.Context, limit int64) ([]models.ProductSales, error) {
	return r.productTotals(ctx, bson.M{}, limit)
}

func (r *PayoutRepository) productTotals(ctx context.Context, match bson.M, limit int64) ([]models.ProductSales, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$productId",
			"productName": bson.M{"$last": "$productName"},
			"quantity":    bson.M{"$sum": "$quantity"},
			"amount":      bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	cursor, err := r.salesLists.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	totals := []models.ProductSales{}
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, err
	}
	return totals, nil
}

// DailySales buckets sales lines in [from, to) by calendar day.
func (r *PayoutRepository) DailySales(ctx context.Context, from, to time.Time) ([]models.SalesPoint, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"soldAt": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id":      bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$soldAt"}},
			"amount":   bson.M{"$sum": "$amount"},
			"quantity": bson.M{"$sum": "$quantity"},
			"orders":   bson.M{"$addToSet": "$orderId"},
		}}},
		{{Key: "$project", Value: bson.M{"amount": 1, "quantity": 1, "orders": bson.M{"$size": "$orders"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := r.salesLists.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	points := []models.SalesPoint{}
	if err := cursor.All(ctx, &points); err != nil {
		return nil, err
	}
	return points, nil
}
