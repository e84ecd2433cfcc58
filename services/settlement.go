package services

import (
	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/utils"
)

// Pricing holds the amounts charged to the buyer for one order.
type Pricing struct {
	Subtotal    float64
	Tax         float64
	ShippingFee float64
	Total       float64
}

// PriceItems prices the lines of one seller's order. Tax is withheld from the
// seller, so the buyer pays subtotal plus shipping.
func PriceItems(items []models.OrderItem, taxRate, deliveryFee float64) Pricing {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Subtotal
	}
	subtotal = utils.Round2(subtotal)
	return Pricing{
		Subtotal:    subtotal,
		Tax:         utils.Round2(subtotal * taxRate),
		ShippingFee: deliveryFee,
		Total:       utils.Round2(subtotal + deliveryFee),
	}
}

// Settlement is the split of a delivered order.
type Settlement struct {
	Gross       float64
	Tax         float64
	Net         float64
	RiderAmount float64
	Commission  float64
}

// Settle splits a delivered order between seller, rider and platform. The
// rider share is only paid when a rider delivered the order.
func Settle(order *models.Order, taxRate, deliveryFee, riderShare float64) Settlement {
	gross := 0.0
	for _, item := range order.Items {
		gross += item.Subtotal
	}
	gross = utils.Round2(gross)
	tax := utils.Round2(gross * taxRate)

	s := Settlement{
		Gross: gross,
		Tax:   tax,
		Net:   utils.Round2(gross - tax),
	}
	if order.RiderID != nil {
		s.RiderAmount = utils.Round2(deliveryFee * riderShare)
	}
	s.Commission = utils.Round2(tax + order.ShippingFee - s.RiderAmount)
	return s
}

// SettlementDate is the YYYY-MM-DD bucket key of a delivery.
func SettlementDate(order *models.Order) string {
	if order.DeliveredAt != nil {
		return order.DeliveredAt.Format(utils.DateLayout)
	}
	return order.UpdatedAt.Format(utils.DateLayout)
}
