package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name string
		role string
		from string
		to   string
		want error
	}{
		{"seller accepts", models.RoleSeller, models.OrderStatusPending, models.OrderStatusPacking, nil},
		{"rider picks up", models.RoleRider, models.OrderStatusPacking, models.OrderStatusInTransit, nil},
		{"rider delivers", models.RoleRider, models.OrderStatusInTransit, models.OrderStatusDelivered, nil},
		{"admin any step", models.RoleAdmin, models.OrderStatusInTransit, models.OrderStatusDelivered, nil},
		{"seller cannot deliver", models.RoleSeller, models.OrderStatusInTransit, models.OrderStatusDelivered, ErrForbidden},
		{"buyer cannot pack", models.RoleUser, models.OrderStatusPending, models.OrderStatusPacking, ErrForbidden},
		{"no skipping", models.RoleSeller, models.OrderStatusPending, models.OrderStatusInTransit, ErrInvalidTransition},
		{"no going back", models.RoleAdmin, models.OrderStatusPacking, models.OrderStatusPending, ErrInvalidTransition},
		{"delivered is final", models.RoleAdmin, models.OrderStatusDelivered, models.OrderStatusPacking, ErrInvalidTransition},
		{"buyer cancels pending", models.RoleUser, models.OrderStatusPending, models.OrderStatusCancelled, nil},
		{"buyer cannot cancel packing", models.RoleUser, models.OrderStatusPacking, models.OrderStatusCancelled, ErrInvalidTransition},
		{"seller cancels packing", models.RoleSeller, models.OrderStatusPacking, models.OrderStatusCancelled, nil},
		{"nobody cancels in transit", models.RoleAdmin, models.OrderStatusInTransit, models.OrderStatusCancelled, ErrInvalidTransition},
		{"rider cannot cancel", models.RoleRider, models.OrderStatusPacking, models.OrderStatusCancelled, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckTransition(tt.role, tt.from, tt.to))
		})
	}
}

func TestNextStatus(t *testing.T) {
	next, ok := NextStatus(models.OrderStatusPending)
	assert.True(t, ok)
	assert.Equal(t, models.OrderStatusPacking, next)

	_, ok = NextStatus(models.OrderStatusDelivered)
	assert.False(t, ok)
	_, ok = NextStatus(models.OrderStatusCancelled)
	assert.False(t, ok)
}

func TestPriceItems(t *testing.T) {
	items := []models.OrderItem{
		{Price: 45.5, Quantity: 2, Subtotal: 91},
		{Price: 12.25, Quantity: 3, Subtotal: 36.75},
	}
	p := PriceItems(items, 0.05, 50)
	assert.Equal(t, 127.75, p.Subtotal)
	assert.Equal(t, 6.39, p.Tax)
	assert.Equal(t, 50.0, p.ShippingFee)
	assert.Equal(t, 177.75, p.Total)
}

func TestSettle(t *testing.T) {
	riderID := primitive.NewObjectID()
	order := &models.Order{
		Items:       []models.OrderItem{{Subtotal: 100}, {Subtotal: 33.33}},
		ShippingFee: 50,
		RiderID:     &riderID,
	}

	s := Settle(order, 0.05, 50, 0.8)
	assert.Equal(t, 133.33, s.Gross)
	assert.Equal(t, 6.67, s.Tax)
	assert.Equal(t, 126.66, s.Net)
	assert.Equal(t, 40.0, s.RiderAmount)
	assert.Equal(t, 16.67, s.Commission)
	assert.InDelta(t, s.Gross, s.Net+s.Tax, 0.001)

	order.RiderID = nil
	s = Settle(order, 0.05, 50, 0.8)
	assert.Zero(t, s.RiderAmount)
	assert.Equal(t, 56.67, s.Commission)
}

func TestSettlementDate(t *testing.T) {
	delivered := time.Date(2026, 3, 14, 23, 10, 0, 0, time.UTC)
	order := &models.Order{DeliveredAt: &delivered, UpdatedAt: delivered.Add(48 * time.Hour)}
	assert.Equal(t, "2026-03-14", SettlementDate(order))

	order.DeliveredAt = nil
	assert.Equal(t, "2026-03-16", SettlementDate(order))
}

func TestVisibility(t *testing.T) {
	buyer, seller, rider, stranger := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	order := &models.Order{UserID: buyer, SellerID: seller, Status: models.OrderStatusDelivered}

	assert.True(t, CanView(order, models.RoleUser, buyer))
	assert.True(t, CanView(order, models.RoleSeller, seller))
	assert.False(t, CanView(order, models.RoleRider, rider))
	assert.False(t, CanView(order, models.RoleUser, stranger))
	assert.True(t, CanView(order, models.RoleAdmin, stranger))
	assert.Equal(t, []string{models.RoleUser, models.RoleSeller}, Parties(order))

	order.RiderID = &rider
	assert.True(t, CanView(order, models.RoleRider, rider))

	order.DeletedBy = []string{models.RoleUser}
	assert.False(t, CanView(order, models.RoleUser, buyer))
	assert.True(t, CanView(order, models.RoleSeller, seller))
	assert.False(t, DeletedByAll(order))

	order.DeletedBy = append(order.DeletedBy, models.RoleSeller)
	assert.False(t, DeletedByAll(order), "assigned rider still sees it")

	order.DeletedBy = append(order.DeletedBy, models.RoleRider)
	assert.True(t, DeletedByAll(order))
}

func TestDeletedByAllWithoutRider(t *testing.T) {
	order := &models.Order{DeletedBy: []string{models.RoleSeller, models.RoleUser}}
	assert.True(t, DeletedByAll(order))
}
