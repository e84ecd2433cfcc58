package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
)

// CartService keeps product stock in step with cart reservations: every
// quantity sitting in a cart has already been taken off the product.
type CartService struct {
	products *repositories.ProductRepository
	carts    *repositories.CartRepository
}

func NewCartService(products *repositories.ProductRepository, carts *repositories.CartRepository) *CartService {
	return &CartService{products: products, carts: carts}
}

func (s *CartService) Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	return s.carts.Get(ctx, userID)
}

// AddItem reserves qty units and adds them to the buyer's cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*models.Cart, error) {
	product, err := s.products.FindApproved(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.products.ReserveStock(ctx, productID, qty); err != nil {
		return nil, err
	}

	item := models.CartItem{
		ProductID: product.ID,
		SellerID:  product.SellerID,
		Name:      product.Name,
		Unit:      product.Unit,
		Price:     product.Price,
		Quantity:  qty,
		AddedAt:   time.Now(),
	}
	if len(product.Images) > 0 {
		item.Image = product.Images[0]
	}
	if err := s.carts.AddItem(ctx, userID, item); err != nil {
		s.release(ctx, productID, qty)
		return nil, err
	}
	return s.carts.Get(ctx, userID)
}

// SetQuantity reserves or releases the difference to the current line. The
// write only lands if the line still holds the quantity the difference was
// computed from; otherwise the reservation is undone and ErrConflict returned.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := cart.Find(productID)
	if idx < 0 {
		return nil, repositories.ErrNotFound
	}

	current := cart.Items[idx].Quantity
	delta := qty - current
	if delta == 0 {
		return cart, nil
	}
	if delta > 0 {
		if err := s.products.ReserveStock(ctx, productID, delta); err != nil {
			return nil, err
		}
	}
	if err := s.carts.SetQuantity(ctx, userID, productID, current, qty); err != nil {
		if delta > 0 {
			s.release(ctx, productID, delta)
		}
		return nil, err
	}
	if delta < 0 {
		s.release(ctx, productID, -delta)
	}
	return s.carts.Get(ctx, userID)
}

// RemoveItem drops a line and gives the quantity it held back to stock.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	removed, err := s.carts.RemoveItems(ctx, userID, []primitive.ObjectID{productID})
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, repositories.ErrNotFound
	}
	s.releaseLines(ctx, removed)
	return s.carts.Get(ctx, userID)
}

// Clear empties the cart and restores every reservation it held.
func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) error {
	removed, err := s.carts.Clear(ctx, userID)
	if err != nil {
		return err
	}
	s.releaseLines(ctx, removed)
	return nil
}

func (s *CartService) releaseLines(ctx context.Context, items []models.CartItem) {
	for _, item := range items {
		s.release(ctx, item.ProductID, item.Quantity)
	}
}

func (s *CartService) release(ctx context.Context, productID primitive.ObjectID, qty int) {
	if err := s.products.ReleaseStock(ctx, productID, qty); err != nil {
		log.Printf("Failed to release %d units of product %s: %v", qty, productID.Hex(), err)
	}
}
