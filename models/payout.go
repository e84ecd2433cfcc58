package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PayoutStatusPending = "pending"
	PayoutStatusPaid    = "paid"
)

const (
	TransactionSale       = "sale"
	TransactionRefund     = "refund"
	TransactionCommission = "commission"
)

// PayoutTransaction is a seller's daily settlement bucket.
type PayoutTransaction struct {
	ID          primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	SellerID    primitive.ObjectID   `json:"sellerId" bson:"sellerId"`
	Date        string               `json:"date" bson:"date"`
	GrossAmount float64              `json:"grossAmount" bson:"grossAmount"`
	TaxAmount   float64              `json:"taxAmount" bson:"taxAmount"`
	NetAmount   float64              `json:"netAmount" bson:"netAmount"`
	OrderIDs    []primitive.ObjectID `json:"orderIds" bson:"orderIds"`
	Status      string               `json:"status" bson:"status"`
	PaidAt      *time.Time           `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	PaidBy      string               `json:"paidBy,omitempty" bson:"paidBy,omitempty"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// RiderPayout is a rider's daily earnings bucket.
type RiderPayout struct {
	ID         primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	RiderID    primitive.ObjectID   `json:"riderId" bson:"riderId"`
	Date       string               `json:"date" bson:"date"`
	Deliveries int                  `json:"deliveries" bson:"deliveries"`
	Amount     float64              `json:"amount" bson:"amount"`
	OrderIDs   []primitive.ObjectID `json:"orderIds" bson:"orderIds"`
	Status     string               `json:"status" bson:"status"`
	PaidAt     *time.Time           `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	PaidBy     string               `json:"paidBy,omitempty" bson:"paidBy,omitempty"`
	CreatedAt  time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// AdminPaymentTransaction is a platform ledger row.
type AdminPaymentTransaction struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OrderID   primitive.ObjectID `json:"orderId" bson:"orderId"`
	SellerID  primitive.ObjectID `json:"sellerId" bson:"sellerId"`
	Type      string             `json:"type" bson:"type"`
	Amount    float64            `json:"amount" bson:"amount"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// SellerPaymentTransaction is a per order seller ledger row. Refund rows carry
// negative amounts.
type SellerPaymentTransaction struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	SellerID  primitive.ObjectID `json:"sellerId" bson:"sellerId"`
	OrderID   primitive.ObjectID `json:"orderId" bson:"orderId"`
	Type      string             `json:"type" bson:"type"`
	Gross     float64            `json:"gross" bson:"gross"`
	Tax       float64            `json:"tax" bson:"tax"`
	Net       float64            `json:"net" bson:"net"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// SalesListEntry is one product line sold in a delivered order.
type SalesListEntry struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	SellerID    primitive.ObjectID `json:"sellerId" bson:"sellerId"`
	ProductID   primitive.ObjectID `json:"productId" bson:"productId"`
	ProductName string             `json:"productName" bson:"productName"`
	OrderID     primitive.ObjectID `json:"orderId" bson:"orderId"`
	Quantity    int                `json:"quantity" bson:"quantity"`
	UnitPrice   float64            `json:"unitPrice" bson:"unitPrice"`
	Amount      float64            `json:"amount" bson:"amount"`
	SoldAt      time.Time          `json:"soldAt" bson:"soldAt"`
}

// RiderEarnings summarises a rider's payout buckets.
type RiderEarnings struct {
	Deliveries    int     `json:"deliveries" bson:"deliveries"`
	TotalAmount   float64 `json:"totalAmount" bson:"totalAmount"`
	PendingAmount float64 `json:"pendingAmount" bson:"pendingAmount"`
	PaidAmount    float64 `json:"paidAmount" bson:"paidAmount"`
}

// SellerDashboard is the seller overview.
type SellerDashboard struct {
	ProductsByStatus map[string]int64 `json:"productsByStatus"`
	OrdersByStatus   map[string]int64 `json:"ordersByStatus"`
	PendingPayout    float64          `json:"pendingPayout"`
	Balance          float64          `json:"balance"`
}
