package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Admin struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	Password     string             `json:"password,omitempty" bson:"password"`
	FullName     string             `json:"fullName" bson:"fullName"`
	IsSuperAdmin bool               `json:"isSuperAdmin" bson:"isSuperAdmin"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// AdminDashboardStats represents statistics for the admin dashboard
type AdminDashboardStats struct {
	TotalUsers        int64            `json:"totalUsers"`
	TotalSellers      int64            `json:"totalSellers"`
	TotalRiders       int64            `json:"totalRiders"`
	PendingSellers    int64            `json:"pendingSellers"`
	PendingRiders     int64            `json:"pendingRiders"`
	PendingProducts   int64            `json:"pendingProducts"`
	OrdersByStatus    map[string]int64 `json:"ordersByStatus"`
	GrossSales        float64          `json:"grossSales"`
	PlatformRevenue   float64          `json:"platformRevenue"`
	RiderPayoutsOwed  float64          `json:"riderPayoutsOwed"`
	SellerPayoutsOwed float64          `json:"sellerPayoutsOwed"`
}

// ActivityLog is an audit entry for account and admin actions.
type ActivityLog struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ActorID    string             `json:"actorId" bson:"actorId"`
	ActorRole  string             `json:"actorRole" bson:"actorRole"`
	Action     string             `json:"action" bson:"action"`
	EntityType string             `json:"entityType,omitempty" bson:"entityType,omitempty"`
	EntityID   string             `json:"entityId,omitempty" bson:"entityId,omitempty"`
	Details    interface{}        `json:"details,omitempty" bson:"details,omitempty"`
	IPAddress  string             `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	UserAgent  string             `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// SeasonalAnnouncement is shown to buyers during a crop season window.
type SeasonalAnnouncement struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	Body      string             `json:"body" bson:"body"`
	Crops     []string           `json:"crops,omitempty" bson:"crops,omitempty"`
	StartDate time.Time          `json:"startDate" bson:"startDate"`
	EndDate   time.Time          `json:"endDate" bson:"endDate"`
	IsActive  bool               `json:"isActive" bson:"isActive"`
	CreatedBy primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type AnnouncementRequest struct {
	Title     string    `json:"title" validate:"required"`
	Body      string    `json:"body" validate:"required"`
	Crops     []string  `json:"crops"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
	IsActive  *bool     `json:"isActive"`
}

// SalesPoint is one day of the admin sales report.
type SalesPoint struct {
	Date     string  `json:"date" bson:"_id"`
	Amount   float64 `json:"amount" bson:"amount"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Orders   int     `json:"orders" bson:"orders"`
}

// ProductSales aggregates sales_lists per product.
type ProductSales struct {
	ProductID   primitive.ObjectID `json:"productId" bson:"_id"`
	ProductName string             `json:"productName" bson:"productName"`
	Quantity    int                `json:"quantity" bson:"quantity"`
	Amount      float64            `json:"amount" bson:"amount"`
}
