package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
)

func TestCartService(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insufficient stock leaves the cart alone", func(mt *mtest.T) {
		s := NewCartService(repositories.NewProductRepository(mt.DB), repositories.NewCartRepository(mt.DB))
		productID := primitive.NewObjectID()
		productNS := mt.DB.Name() + "." + config.ProductsCollection
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, productNS, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: productID},
				{Key: "stock", Value: 2},
				{Key: "approvalStatus", Value: models.ApprovalApproved},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, productNS, mtest.FirstBatch, bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: 1}}),
		)
		_, err := s.AddItem(ctx, primitive.NewObjectID(), productID, 5)
		assert.ErrorIs(t, err, repositories.ErrInsufficientStock)
	})

	mt.Run("adding reserves the quantity", func(mt *mtest.T) {
		s := NewCartService(repositories.NewProductRepository(mt.DB), repositories.NewCartRepository(mt.DB))
		productID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, productNS(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: productID},
				{Key: "sellerId", Value: primitive.NewObjectID()},
				{Key: "stock", Value: 10},
				{Key: "approvalStatus", Value: models.ApprovalApproved},
			}),
			updated(1),
			updated(1),
			mtest.CreateCursorResponse(0, cartNS(mt), mtest.FirstBatch),
		)
		_, err := s.AddItem(ctx, primitive.NewObjectID(), productID, 3)
		require.NoError(t, err)
		assert.Equal(t, []stockMove{{productID, -3}}, stockMoves(t, mt))
	})

	mt.Run("removing a missing line", func(mt *mtest.T) {
		s := NewCartService(repositories.NewProductRepository(mt.DB), repositories.NewCartRepository(mt.DB))
		mt.AddMockResponses(findAndModifyReply(nil))
		_, err := s.RemoveItem(ctx, primitive.NewObjectID(), primitive.NewObjectID())
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.Empty(t, stockMoves(t, mt))
	})

	mt.Run("a repeated remove releases stock once", func(mt *mtest.T) {
		s := NewCartService(repositories.NewProductRepository(mt.DB), repositories.NewCartRepository(mt.DB))
		buyer, tomatoes := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			findAndModifyReply(cartDoc(buyer, cartLine(tomatoes, 4), cartLine(primitive.NewObjectID(), 2))),
			updated(1),
			mtest.CreateCursorResponse(0, cartNS(mt), mtest.FirstBatch),
			findAndModifyReply(nil),
		)

		_, err := s.RemoveItem(ctx, buyer, tomatoes)
		require.NoError(t, err)
		_, err = s.RemoveItem(ctx, buyer, tomatoes)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		assert.Equal(t, []stockMove{{tomatoes, 4}}, stockMoves(t, mt))
		pull := sentTo(mt, "findAndModify", config.CartsCollection)
		require.Len(t, pull, 2)
		assert.Equal(t, "before", returnDocument(pull[0]))
	})

	mt.Run("clear releases the lines it emptied", func(mt *mtest.T) {
		s := NewCartService(repositories.NewProductRepository(mt.DB), repositories.NewCartRepository(mt.DB))
		buyer, okra, rice := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			findAndModifyReply(cartDoc(buyer, cartLine(okra, 4), cartLine(rice, 2))),
			updated(1),
			updated(1),
			findAndModifyReply(nil),
		)

		require.NoError(t, s.Clear(ctx, buyer))
		require.NoError(t, s.Clear(ctx, buyer))
		assert.Equal(t, []stockMove{{okra, 4}, {rice, 2}}, stockMoves(t, mt))
	})

	mt.Run("raising a quantity that changed underneath", func(mt *mtest.T) {
		s := NewCartService(repositories.NewProductRepository(mt.DB), repositories.NewCartRepository(mt.DB))
		buyer, okra := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, cartNS(mt), mtest.FirstBatch, cartDoc(buyer, cartLine(okra, 2))),
			updated(1),
			updated(0),
			updated(1),
		)

		_, err := s.SetQuantity(ctx, buyer, okra, 5)
		assert.ErrorIs(t, err, repositories.ErrConflict)
		assert.Equal(t, []stockMove{{okra, -3}, {okra, 3}}, stockMoves(t, mt))

		set := sentTo(mt, "update", config.CartsCollection)
		require.Len(t, set, 1)
		match := firstUpdate(set[0]).Lookup("q", "items", "$elemMatch")
		assert.Equal(t, 2.0, number(t, match.Document().Lookup("quantity")))
	})

	mt.Run("lowering a quantity releases the difference", func(mt *mtest.T) {
		s := NewCartService(repositories.NewProductRepository(mt.DB), repositories.NewCartRepository(mt.DB))
		buyer, okra := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, cartNS(mt), mtest.FirstBatch, cartDoc(buyer, cartLine(okra, 5))),
			updated(1),
			updated(1),
			mtest.CreateCursorResponse(0, cartNS(mt), mtest.FirstBatch, cartDoc(buyer, cartLine(okra, 2))),
		)

		cart, err := s.SetQuantity(ctx, buyer, okra, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		assert.Equal(t, []stockMove{{okra, 3}}, stockMoves(t, mt))
	})
}

func productNS(mt *mtest.T) string {
	return mt.DB.Name() + "." + config.ProductsCollection
}

func cartNS(mt *mtest.T) string {
	return mt.DB.Name() + "." + config.CartsCollection
}

func cartLine(productID primitive.ObjectID, qty int) bson.D {
	return bson.D{
		{Key: "productId", Value: productID},
		{Key: "sellerId", Value: primitive.NewObjectID()},
		{Key: "price", Value: 12.5},
		{Key: "quantity", Value: qty},
	}
}

func cartDoc(userID primitive.ObjectID, lines ...bson.D) bson.D {
	items := bson.A{}
	for _, l := range lines {
		items = append(items, l)
	}
	return bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "userId", Value: userID}, {Key: "items", Value: items}}
}

// returnDocument reads which image a findAndModify asked for.
func returnDocument(cmd bson.Raw) string {
	if v, ok := cmd.Lookup("new").BooleanOK(); ok && v {
		return "after"
	}
	return "before"
}
