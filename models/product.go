package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a listing owned by a seller. Only approved products are visible in
// the public catalogue.
type Product struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	SellerID        primitive.ObjectID `json:"sellerId" bson:"sellerId"`
	Name            string             `json:"name" bson:"name"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	Category        string             `json:"category" bson:"category"`
	Unit            string             `json:"unit" bson:"unit"` // kg, sack, piece, bundle
	Price           float64            `json:"price" bson:"price"`
	Stock           int                `json:"stock" bson:"stock"`
	Images          []string           `json:"images,omitempty" bson:"images,omitempty"`
	Thumbnails      []string           `json:"thumbnails,omitempty" bson:"thumbnails,omitempty"`
	ApprovalStatus  string             `json:"approvalStatus" bson:"approvalStatus"`
	RejectionReason string             `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	IsSeasonal      bool               `json:"isSeasonal" bson:"isSeasonal"`
	HarvestDate     *time.Time         `json:"harvestDate,omitempty" bson:"harvestDate,omitempty"`
	SoldCount       int                `json:"soldCount" bson:"soldCount"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type ProductRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Category    string     `json:"category" validate:"required"`
	Unit        string     `json:"unit" validate:"required"`
	Price       float64    `json:"price" validate:"gt=0"`
	Stock       int        `json:"stock" validate:"gte=0"`
	IsSeasonal  bool       `json:"isSeasonal"`
	HarvestDate *time.Time `json:"harvestDate"`
}

// ProductUpdateRequest only touches the fields that are set.
type ProductUpdateRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Unit        *string    `json:"unit"`
	Price       *float64   `json:"price" validate:"omitempty,gt=0"`
	Stock       *int       `json:"stock" validate:"omitempty,gte=0"`
	IsSeasonal  *bool      `json:"isSeasonal"`
	HarvestDate *time.Time `json:"harvestDate"`
}

// ProductFilter drives catalogue queries.
type ProductFilter struct {
	SellerID       *primitive.ObjectID
	Category       string
	Query          string
	ApprovalStatus string
	InStockOnly    bool
	Page           int64
	Limit          int64
}
