package services

import (
	"errors"

	"github.com/agrimarket/agrimarket_backend/models"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("not allowed for this account")
)

// forward is the delivery progression. Cancellation is a side exit.
var forward = map[string]string{
	models.OrderStatusPending:   models.OrderStatusPacking,
	models.OrderStatusPacking:   models.OrderStatusInTransit,
	models.OrderStatusInTransit: models.OrderStatusDelivered,
}

// stepOwner is the role that performs each forward step.
var stepOwner = map[string]string{
	models.OrderStatusPacking:   models.RoleSeller,
	models.OrderStatusInTransit: models.RoleRider,
	models.OrderStatusDelivered: models.RoleRider,
}

// NextStatus returns the status that follows status, if any.
func NextStatus(status string) (string, bool) {
	next, ok := forward[status]
	return next, ok
}

func IsTerminal(status string) bool {
	return status == models.OrderStatusDelivered || status == models.OrderStatusCancelled
}

// CheckTransition validates that role may move an order from one status to
// the next. Admins may perform any forward step.
func CheckTransition(role, from, to string) error {
	if to == models.OrderStatusCancelled {
		return CheckCancel(role, from)
	}
	next, ok := forward[from]
	if !ok || next != to {
		return ErrInvalidTransition
	}
	if role != models.RoleAdmin && stepOwner[to] != role {
		return ErrForbidden
	}
	return nil
}

// CheckCancel reports whether role may cancel an order in status. Buyers can
// only cancel before the seller accepts.
func CheckCancel(role, status string) error {
	switch role {
	case models.RoleUser:
		if status != models.OrderStatusPending {
			return ErrInvalidTransition
		}
	case models.RoleSeller, models.RoleAdmin:
		if status != models.OrderStatusPending && status != models.OrderStatusPacking {
			return ErrInvalidTransition
		}
	default:
		return ErrForbidden
	}
	return nil
}
