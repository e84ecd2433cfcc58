package services

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
)

// Parties lists the roles that take part in an order.
func Parties(order *models.Order) []string {
	parties := []string{models.RoleUser, models.RoleSeller}
	if order.RiderID != nil {
		parties = append(parties, models.RoleRider)
	}
	return parties
}

// IsParty reports whether the account is the order's buyer, seller or rider.
func IsParty(order *models.Order, role string, id primitive.ObjectID) bool {
	switch role {
	case models.RoleUser:
		return order.UserID == id
	case models.RoleSeller:
		return order.SellerID == id
	case models.RoleRider:
		return order.RiderID != nil && *order.RiderID == id
	}
	return false
}

func deletedBy(order *models.Order, role string) bool {
	for _, r := range order.DeletedBy {
		if r == role {
			return true
		}
	}
	return false
}

// CanView reports whether the account may read the order. Admins see all;
// parties lose sight of an order once they deleted it.
func CanView(order *models.Order, role string, id primitive.ObjectID) bool {
	if role == models.RoleAdmin {
		return true
	}
	return IsParty(order, role, id) && !deletedBy(order, role)
}

// DeletedByAll reports whether every party has deleted the order.
func DeletedByAll(order *models.Order) bool {
	for _, role := range Parties(order) {
		if !deletedBy(order, role) {
			return false
		}
	}
	return true
}
