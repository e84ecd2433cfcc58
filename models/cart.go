package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart holds the buyer's reserved items. Stock is taken from the product when a
// line is added and given back when it is removed.
type Cart struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Items     []CartItem         `json:"items" bson:"items"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type CartItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	SellerID  primitive.ObjectID `json:"sellerId" bson:"sellerId"`
	Name      string             `json:"name" bson:"name"`
	Image     string             `json:"image,omitempty" bson:"image,omitempty"`
	Unit      string             `json:"unit,omitempty" bson:"unit,omitempty"`
	Price     float64            `json:"price" bson:"price"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	AddedAt   time.Time          `json:"addedAt" bson:"addedAt"`
}

// LineTotal returns price times quantity.
func (i CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Total sums every line of the cart.
func (c *Cart) Total() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// Find returns the index of the product line or -1.
func (c *Cart) Find(productID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type CheckoutRequest struct {
	Items           []string `json:"items"`
	ShippingAddress string   `json:"shippingAddress" validate:"required"`
	ContactPhone    string   `json:"contactPhone" validate:"required"`
	PaymentMethod   string   `json:"paymentMethod" validate:"required,oneof=cod wallet"`
}
