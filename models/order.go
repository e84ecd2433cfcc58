package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPacking   = "packing"
	OrderStatusInTransit = "in transit"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Payment statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

const (
	PaymentMethodCOD    = "cod"
	PaymentMethodWallet = "wallet"
)

// Refund statuses
const (
	RefundRequested = "requested"
	RefundApproved  = "approved"
	RefundRejected  = "rejected"
)

// Order is placed by a buyer against a single seller.
type Order struct {
	ID              primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	OrderNumber     string              `json:"orderNumber" bson:"orderNumber"`
	UserID          primitive.ObjectID  `json:"userId" bson:"userId"`
	SellerID        primitive.ObjectID  `json:"sellerId" bson:"sellerId"`
	RiderID         *primitive.ObjectID `json:"riderId,omitempty" bson:"riderId,omitempty"`
	Items           []OrderItem         `json:"items" bson:"items"`
	Subtotal        float64             `json:"subtotal" bson:"subtotal"`
	ShippingFee     float64             `json:"shippingFee" bson:"shippingFee"`
	Tax             float64             `json:"tax" bson:"tax"`
	Total           float64             `json:"total" bson:"total"`
	PaymentMethod   string              `json:"paymentMethod" bson:"paymentMethod"`
	PaymentStatus   string              `json:"paymentStatus" bson:"paymentStatus"`
	Status          string              `json:"status" bson:"status"`
	StatusHistory   []StatusChange      `json:"statusHistory" bson:"statusHistory"`
	ShippingAddress string              `json:"shippingAddress" bson:"shippingAddress"`
	ContactPhone    string              `json:"contactPhone" bson:"contactPhone"`
	Cancellation    *Cancellation       `json:"cancellation,omitempty" bson:"cancellation,omitempty"`
	Refund          *Refund             `json:"refund,omitempty" bson:"refund,omitempty"`
	DeletedBy       []string            `json:"-" bson:"deletedBy,omitempty"`
	AutoAdvanceAt   *time.Time          `json:"-" bson:"autoAdvanceAt,omitempty"`
	DeliveredAt     *time.Time          `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

type OrderItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name" bson:"name"`
	Image     string             `json:"image,omitempty" bson:"image,omitempty"`
	Unit      string             `json:"unit,omitempty" bson:"unit,omitempty"`
	Price     float64            `json:"price" bson:"price"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Subtotal  float64            `json:"subtotal" bson:"subtotal"`
}

type StatusChange struct {
	Status    string    `json:"status" bson:"status"`
	ChangedBy string    `json:"changedBy,omitempty" bson:"changedBy,omitempty"`
	Role      string    `json:"role,omitempty" bson:"role,omitempty"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty"`
	At        time.Time `json:"at" bson:"at"`
}

type Cancellation struct {
	Reason      string    `json:"reason" bson:"reason"`
	CancelledBy string    `json:"cancelledBy" bson:"cancelledBy"`
	Role        string    `json:"role" bson:"role"`
	At          time.Time `json:"at" bson:"at"`
}

type Refund struct {
	Reason      string     `json:"reason" bson:"reason"`
	Status      string     `json:"status" bson:"status"`
	Amount      float64    `json:"amount" bson:"amount"`
	RequestedAt time.Time  `json:"requestedAt" bson:"requestedAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	ResolvedBy  string     `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	Note        string     `json:"note,omitempty" bson:"note,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ResolveRefundRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

type PickupRequest struct {
	QRToken string `json:"qrToken" validate:"required"`
}

// QrCode is a one-time token printed on a packed order and scanned by the rider.
type QrCode struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OrderID   primitive.ObjectID `json:"orderId" bson:"orderId"`
	Token     string             `json:"token" bson:"token"`
	Purpose   string             `json:"purpose" bson:"purpose"`
	UsedAt    *time.Time         `json:"usedAt,omitempty" bson:"usedAt,omitempty"`
	ExpiresAt time.Time          `json:"expiresAt" bson:"expiresAt"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// DamageLog records goods damaged while the order was with a rider.
type DamageLog struct {
	ID          primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	OrderID     primitive.ObjectID  `json:"orderId" bson:"orderId"`
	RiderID     primitive.ObjectID  `json:"riderId" bson:"riderId"`
	SellerID    primitive.ObjectID  `json:"sellerId" bson:"sellerId"`
	ProductID   *primitive.ObjectID `json:"productId,omitempty" bson:"productId,omitempty"`
	Description string              `json:"description" bson:"description"`
	Photos      []string            `json:"photos,omitempty" bson:"photos,omitempty"`
	Resolution  string              `json:"resolution,omitempty" bson:"resolution,omitempty"`
	ResolvedAt  *time.Time          `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	ReportedAt  time.Time           `json:"reportedAt" bson:"reportedAt"`
}

type DamageReportRequest struct {
	Description string `json:"description" validate:"required"`
	ProductID   string `json:"productId"`
}

type ResolveDamageRequest struct {
	Resolution string `json:"resolution" validate:"required"`
}
