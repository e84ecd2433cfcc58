// models/user.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a buyer account.
type User struct {
	ID      primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Account `bson:",inline"`
	Address string `json:"address,omitempty" bson:"address,omitempty"`
}

// Seller is a farmer selling produce on the marketplace.
type Seller struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Account         `bson:",inline"`
	FarmName        string  `json:"farmName" bson:"farmName"`
	FarmAddress     string  `json:"farmAddress,omitempty" bson:"farmAddress,omitempty"`
	Description     string  `json:"description,omitempty" bson:"description,omitempty"`
	ProfileImage    string  `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	ApprovalStatus  string  `json:"approvalStatus" bson:"approvalStatus"`
	RejectionReason string  `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	Balance         float64 `json:"balance" bson:"balance"`
}

// Rider delivers orders from sellers to buyers.
type Rider struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Account         `bson:",inline"`
	VehicleType     string  `json:"vehicleType,omitempty" bson:"vehicleType,omitempty"`
	PlateNumber     string  `json:"plateNumber,omitempty" bson:"plateNumber,omitempty"`
	LicenseNumber   string  `json:"licenseNumber,omitempty" bson:"licenseNumber,omitempty"`
	ApprovalStatus  string  `json:"approvalStatus" bson:"approvalStatus"`
	RejectionReason string  `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	IsAvailable     bool    `json:"isAvailable" bson:"isAvailable"`
	Balance         float64 `json:"balance" bson:"balance"`
}

type UpdateSellerProfileRequest struct {
	FullName    string `json:"fullName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	FarmName    string `json:"farmName,omitempty"`
	FarmAddress string `json:"farmAddress,omitempty"`
	Description string `json:"description,omitempty"`
}

type AvailabilityRequest struct {
	IsAvailable bool `json:"isAvailable"`
}

type FCMTokenUpdateRequest struct {
	FCMToken string `json:"fcmToken" validate:"required"`
}

type ApprovalDecisionRequest struct {
	Reason string `json:"reason"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}
