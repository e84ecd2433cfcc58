package repositories

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
)

func TestSkip(t *testing.T) {
	assert.Equal(t, int64(0), skip(0, 20))
	assert.Equal(t, int64(40), skip(3, 20))
	assert.Positive(t, skip(math.MaxInt64, 100))
}

func ns(mt *mtest.T, coll string) string {
	return mt.DB.Name() + "." + coll
}

func updateResult(matched, modified int) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: modified},
	)
}

func countResult(mt *mtest.T, coll string, n int) bson.D {
	return mtest.CreateCursorResponse(0, ns(mt, coll), mtest.FirstBatch, bson.D{
		{Key: "_id", Value: 1},
		{Key: "n", Value: n},
	})
}

func TestReserveStock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("reserves when stock suffices", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(updateResult(1, 1))
		require.NoError(t, repo.ReserveStock(ctx, primitive.NewObjectID(), 3))
	})

	mt.Run("insufficient stock", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(updateResult(0, 0), countResult(mt, config.ProductsCollection, 1))
		err := repo.ReserveStock(ctx, primitive.NewObjectID(), 50)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	mt.Run("unknown or unapproved product", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(
			updateResult(0, 0),
			mtest.CreateCursorResponse(0, ns(mt, config.ProductsCollection), mtest.FirstBatch),
		)
		err := repo.ReserveStock(ctx, primitive.NewObjectID(), 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBuildFilter(t *testing.T) {
	sellerID := primitive.NewObjectID()
	filter := BuildFilter(models.ProductFilter{
		SellerID:       &sellerID,
		Category:       "vegetables",
		Query:          "to.mato",
		ApprovalStatus: models.ApprovalApproved,
		InStockOnly:    true,
	})

	assert.Equal(t, sellerID, filter["sellerId"])
	assert.Equal(t, "vegetables", filter["category"])
	assert.Equal(t, models.ApprovalApproved, filter["approvalStatus"])
	assert.Equal(t, bson.M{"$gt": 0}, filter["stock"])
	assert.Equal(t, primitive.Regex{Pattern: `to\.mato`, Options: "i"}, filter["name"])

	assert.Empty(t, BuildFilter(models.ProductFilter{}))
}

func TestFindProduct(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("found", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, config.ProductsCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Rice"},
			{Key: "stock", Value: 12},
			{Key: "approvalStatus", Value: models.ApprovalApproved},
		}))
		product, err := repo.FindApproved(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Rice", product.Name)
		assert.Equal(t, 12, product.Stock)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, config.ProductsCollection), mtest.FirstBatch))
		_, err := repo.FindByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOrderTransition(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	change := models.StatusChange{Status: models.OrderStatusPacking, At: time.Now()}

	mt.Run("applies when status matches", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: id},
				{Key: "status", Value: models.OrderStatusPacking},
			}},
		})
		order, err := repo.Transition(ctx, id, []string{models.OrderStatusPending}, change, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPacking, order.Status)
	})

	mt.Run("conflict when status moved on", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})
		_, err := repo.Transition(ctx, primitive.NewObjectID(), []string{models.OrderStatusPending}, change, nil, nil)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestOwnerField(t *testing.T) {
	assert.Equal(t, "userId", OwnerField(models.RoleUser))
	assert.Equal(t, "sellerId", OwnerField(models.RoleSeller))
	assert.Equal(t, "riderId", OwnerField(models.RoleRider))
}

func TestCartGetEmpty(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no stored cart", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB)
		userID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, config.CartsCollection), mtest.FirstBatch))
		cart, err := repo.Get(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, userID, cart.UserID)
		assert.Empty(t, cart.Items)
		assert.NotNil(t, cart.Items)
	})
}

func TestAccountRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("unknown role", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		var out models.User
		err := repo.FindByEmail(ctx, "farmer", "a@b.c", &out)
		assert.ErrorIs(t, err, ErrUnknownRole)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		_, err := repo.Create(ctx, models.RoleSeller, models.Seller{})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	mt.Run("finds seller by email", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, config.SellersCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "email", Value: "farm@example.com"},
			{Key: "farmName", Value: "Green Acres"},
		}))
		var seller models.Seller
		require.NoError(t, repo.FindByEmail(ctx, models.RoleSeller, "farm@example.com", &seller))
		assert.Equal(t, "Green Acres", seller.FarmName)
	})

	mt.Run("update on missing account", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(updateResult(0, 0))
		err := repo.SetActive(ctx, models.RoleRider, primitive.NewObjectID(), false)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestNotificationMarkRead(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("other recipient", func(mt *mtest.T) {
		repo := NewNotificationRepository(mt.DB)
		mt.AddMockResponses(updateResult(0, 0))
		err := repo.MarkRead(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestQrCodeConsume(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("first scan", func(mt *mtest.T) {
		repo := NewQrCodeRepository(mt.DB)
		mt.AddMockResponses(updateResult(1, 1))
		assert.NoError(t, repo.Consume(ctx, primitive.NewObjectID(), "tok", "pickup", time.Now()))
	})

	mt.Run("already used", func(mt *mtest.T) {
		repo := NewQrCodeRepository(mt.DB)
		mt.AddMockResponses(updateResult(0, 0))
		err := repo.Consume(ctx, primitive.NewObjectID(), "tok", "pickup", time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRiderEarningsEmpty(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no buckets", func(mt *mtest.T) {
		repo := NewPayoutRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, config.RiderPayoutsCollection), mtest.FirstBatch))
		earnings, err := repo.RiderEarnings(context.Background(), primitive.NewObjectID())
		require.NoError(t, err)
		assert.Equal(t, models.RiderEarnings{}, *earnings)
	})
}

func TestChatTotalUnread(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sums counters", func(mt *mtest.T) {
		repo := NewChatRepository(mt.DB)
		me := primitive.NewObjectID()
		first := mtest.CreateCursorResponse(1, ns(mt, config.ChatsCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "unread", Value: bson.D{{Key: me.Hex(), Value: 2}}},
		})
		second := mtest.CreateCursorResponse(0, ns(mt, config.ChatsCollection), mtest.NextBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "unread", Value: bson.D{{Key: me.Hex(), Value: 3}, {Key: "other", Value: 7}}},
		})
		mt.AddMockResponses(first, second)
		total, err := repo.TotalUnread(context.Background(), me)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
	})
}
