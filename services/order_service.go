package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/utils"
	"github.com/agrimarket/agrimarket_backend/websocket"
)

const SystemActor = "system"

var (
	ErrEmptyCart     = errors.New("no cart items selected")
	ErrInvalidQRCode = errors.New("invalid or already used pickup code")
	ErrRiderNotReady = errors.New("rider is not approved or not available")
)

// OrderService runs checkout and the order lifecycle.
type OrderService struct {
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
	carts    *repositories.CartRepository
	payouts  *repositories.PayoutRepository
	accounts *repositories.AccountRepository
	qrcodes  *repositories.QrCodeRepository
	alerts   Alerts
	cfg      config.AppConfig
	now      func() time.Time
}

func NewOrderService(
	orders *repositories.OrderRepository,
	products *repositories.ProductRepository,
	carts *repositories.CartRepository,
	payouts *repositories.PayoutRepository,
	accounts *repositories.AccountRepository,
	qrcodes *repositories.QrCodeRepository,
	alerts Alerts,
	cfg config.AppConfig,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		carts:    carts,
		payouts:  payouts,
		accounts: accounts,
		qrcodes:  qrcodes,
		alerts:   alerts,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SelectItems picks the cart lines named by productIDs, or every line when
// productIDs is empty.
func SelectItems(cart *models.Cart, productIDs []primitive.ObjectID) []models.CartItem {
	if len(productIDs) == 0 {
		return cart.Items
	}
	wanted := make(map[primitive.ObjectID]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	var selected []models.CartItem
	for _, item := range cart.Items {
		if wanted[item.ProductID] {
			selected = append(selected, item)
		}
	}
	return selected
}

// GroupBySeller splits cart lines per seller, keeping first-seen order.
func GroupBySeller(items []models.CartItem) ([]primitive.ObjectID, map[primitive.ObjectID][]models.OrderItem) {
	var sellers []primitive.ObjectID
	groups := make(map[primitive.ObjectID][]models.OrderItem)
	for _, item := range items {
		if _, ok := groups[item.SellerID]; !ok {
			sellers = append(sellers, item.SellerID)
		}
		groups[item.SellerID] = append(groups[item.SellerID], models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Unit:      item.Unit,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Subtotal:  utils.Round2(item.LineTotal()),
		})
	}
	return sellers, groups
}

// Checkout turns the selected cart lines into one order per seller. Stock was
// reserved when the lines entered the cart. The lines are taken out of the
// cart before any order is written, so a concurrent cart edit cannot count
// them twice; lines whose order could not be written go back into the cart.
func (s *OrderService) Checkout(ctx context.Context, userID primitive.ObjectID, productIDs []primitive.ObjectID, req models.CheckoutRequest) ([]models.Order, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	selected := SelectItems(cart, productIDs)
	if len(selected) == 0 {
		return nil, ErrEmptyCart
	}
	ids := make([]primitive.ObjectID, 0, len(selected))
	for _, item := range selected {
		ids = append(ids, item.ProductID)
	}
	taken, err := s.carts.RemoveItems(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	if len(taken) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now()
	paymentStatus := models.PaymentStatusPending
	if req.PaymentMethod == models.PaymentMethodWallet {
		paymentStatus = models.PaymentStatusPaid
	}

	sellers, groups := GroupBySeller(taken)
	orders := make([]models.Order, 0, len(sellers))
	for i, sellerID := range sellers {
		items := groups[sellerID]
		price := PriceItems(items, s.cfg.TaxRate, s.cfg.DeliveryFee)
		number, err := utils.GenerateOrderNumber()
		if err == nil {
			order := models.Order{
				OrderNumber:     number,
				UserID:          userID,
				SellerID:        sellerID,
				Items:           items,
				Subtotal:        price.Subtotal,
				ShippingFee:     price.ShippingFee,
				Tax:             price.Tax,
				Total:           price.Total,
				PaymentMethod:   req.PaymentMethod,
				PaymentStatus:   paymentStatus,
				Status:          models.OrderStatusPending,
				StatusHistory:   []models.StatusChange{{Status: models.OrderStatusPending, ChangedBy: userID.Hex(), Role: models.RoleUser, At: now}},
				ShippingAddress: req.ShippingAddress,
				ContactPhone:    req.ContactPhone,
				AutoAdvanceAt:   s.autoAdvanceAt(models.OrderStatusPending, now),
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err = s.orders.Create(ctx, &order); err == nil {
				orders = append(orders, order)
				continue
			}
		}
		log.Printf("Checkout for %s stopped after %d orders: %v", userID.Hex(), len(orders), err)
		s.returnToCart(ctx, userID, taken, sellers[i:])
		s.announceOrders(ctx, orders)
		return orders, err
	}

	s.announceOrders(ctx, orders)
	return orders, nil
}

// returnToCart puts the lines of sellers whose order was not written back into
// the buyer's cart. Their stock stays reserved; a line that cannot be restored
// gives its stock back instead.
func (s *OrderService) returnToCart(ctx context.Context, userID primitive.ObjectID, taken []models.CartItem, sellers []primitive.ObjectID) {
	pending := make(map[primitive.ObjectID]bool, len(sellers))
	for _, id := range sellers {
		pending[id] = true
	}
	for _, item := range taken {
		if !pending[item.SellerID] {
			continue
		}
		if err := s.carts.AddItem(ctx, userID, item); err != nil {
			log.Printf("Failed to return product %s to cart of %s: %v", item.ProductID.Hex(), userID.Hex(), err)
			if err := s.products.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				log.Printf("Failed to release %d units of product %s: %v", item.Quantity, item.ProductID.Hex(), err)
			}
		}
	}
}

func (s *OrderService) announceOrders(ctx context.Context, orders []models.Order) {
	for i := range orders {
		o := &orders[i]
		msg := fmt.Sprintf("New order %s (%d items, %.2f)", o.OrderNumber, len(o.Items), o.Subtotal)
		s.alerts.Notify(ctx, o.SellerID, models.RoleSeller, models.NotificationOrderPlaced, "New order", msg, orderData(o))
		s.alerts.Email(ctx, models.RoleSeller, o.SellerID, "New order "+o.OrderNumber, msg)
		s.alerts.Signal(o.UserID, websocket.EventOrderUpdated, o)
	}
}

// Get loads an order the caller may see.
func (s *OrderService) Get(ctx context.Context, role string, actorID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanView(order, role, actorID) {
		return nil, repositories.ErrNotFound
	}
	return order, nil
}

// UpdateStatus performs a forward step on behalf of a seller or admin.
func (s *OrderService) UpdateStatus(ctx context.Context, role string, actorID, orderID primitive.ObjectID, to, note string) (*models.Order, error) {
	order, err := s.Get(ctx, role, actorID, orderID)
	if err != nil {
		return nil, err
	}
	if to == models.OrderStatusCancelled {
		return s.Cancel(ctx, role, actorID, orderID, note)
	}
	if err := CheckTransition(role, order.Status, to); err != nil {
		return nil, err
	}
	return s.advance(ctx, order, to, role, actorID.Hex(), note)
}

// Claim assigns a packed order to an approved, available rider.
func (s *OrderService) Claim(ctx context.Context, riderID, orderID primitive.ObjectID) (*models.Order, error) {
	var rider models.Rider
	if err := s.accounts.FindByID(ctx, models.RoleRider, riderID, &rider); err != nil {
		return nil, err
	}
	if rider.ApprovalStatus != models.ApprovalApproved || !rider.IsAvailable {
		return nil, ErrRiderNotReady
	}

	order, err := s.orders.AssignRider(ctx, orderID, riderID)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("A rider accepted order %s", order.OrderNumber)
	s.alerts.Notify(ctx, order.SellerID, models.RoleSeller, models.NotificationOrderUpdated, "Rider assigned", msg, orderData(order))
	s.alerts.Notify(ctx, order.UserID, models.RoleUser, models.NotificationOrderUpdated, "Rider assigned", msg, orderData(order))
	s.signalParties(order)
	return order, nil
}

// Pickup consumes the order's pickup code and puts it in transit.
func (s *OrderService) Pickup(ctx context.Context, riderID, orderID primitive.ObjectID, token string) (*models.Order, error) {
	order, err := s.assigned(ctx, riderID, orderID)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(models.RoleRider, order.Status, models.OrderStatusInTransit); err != nil {
		return nil, err
	}
	if err := s.qrcodes.Consume(ctx, orderID, token, QRPurposePickup, s.now()); err != nil {
		if err == repositories.ErrNotFound {
			return nil, ErrInvalidQRCode
		}
		return nil, err
	}
	updated, err := s.advance(ctx, order, models.OrderStatusInTransit, models.RoleRider, riderID.Hex(), "picked up")
	if err != nil {
		if rerr := s.qrcodes.Release(ctx, orderID, token, QRPurposePickup); rerr != nil {
			log.Printf("Failed to release pickup code of order %s: %v", orderID.Hex(), rerr)
		}
		return nil, err
	}
	return updated, nil
}

// Deliver completes an order in transit and settles it.
func (s *OrderService) Deliver(ctx context.Context, riderID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.assigned(ctx, riderID, orderID)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(models.RoleRider, order.Status, models.OrderStatusDelivered); err != nil {
		return nil, err
	}
	return s.advance(ctx, order, models.OrderStatusDelivered, models.RoleRider, riderID.Hex(), "")
}

func (s *OrderService) assigned(ctx context.Context, riderID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RiderID == nil || *order.RiderID != riderID {
		return nil, ErrForbidden
	}
	return order, nil
}

// AutoAdvance moves a due order one step forward.
func (s *OrderService) AutoAdvance(ctx context.Context, order *models.Order) (*models.Order, error) {
	next, ok := NextStatus(order.Status)
	if !ok {
		return nil, ErrInvalidTransition
	}
	return s.advance(ctx, order, next, SystemActor, SystemActor, "advanced automatically")
}

func (s *OrderService) autoAdvanceAt(status string, now time.Time) *time.Time {
	if !s.cfg.AutoAdvance || IsTerminal(status) {
		return nil
	}
	at := now.Add(s.cfg.AutoAdvanceDelay)
	return &at
}

// advance applies a validated forward step and its side effects.
func (s *OrderService) advance(ctx context.Context, order *models.Order, to, role, actor, note string) (*models.Order, error) {
	now := s.now()
	change := models.StatusChange{Status: to, ChangedBy: actor, Role: role, Note: note, At: now}
	set := bson.M{}
	unset := bson.M{}
	if to == models.OrderStatusDelivered {
		set["deliveredAt"] = now
		if order.PaymentMethod == models.PaymentMethodCOD {
			set["paymentStatus"] = models.PaymentStatusPaid
		}
	}
	if at := s.autoAdvanceAt(to, now); at != nil {
		set["autoAdvanceAt"] = *at
	} else {
		unset["autoAdvanceAt"] = ""
	}

	updated, err := s.orders.Transition(ctx, order.ID, []string{order.Status}, change, set, unset)
	if err != nil {
		return nil, err
	}

	switch to {
	case models.OrderStatusPacking:
		s.issuePickupCode(ctx, updated)
		s.announceDelivery(ctx, updated)
	case models.OrderStatusDelivered:
		s.settle(ctx, updated)
	}

	title := "Order " + to
	msg := fmt.Sprintf("Order %s is now %s", updated.OrderNumber, to)
	s.alerts.Notify(ctx, updated.UserID, models.RoleUser, models.NotificationOrderUpdated, title, msg, orderData(updated))
	if role != models.RoleSeller {
		s.alerts.Notify(ctx, updated.SellerID, models.RoleSeller, models.NotificationOrderUpdated, title, msg, orderData(updated))
	}
	s.signalParties(updated)
	return updated, nil
}

func (s *OrderService) issuePickupCode(ctx context.Context, order *models.Order) *models.QrCode {
	code := NewPickupCode(order.ID, s.now())
	if err := s.qrcodes.Create(ctx, code); err != nil {
		log.Printf("Failed to issue pickup code for order %s: %v", order.ID.Hex(), err)
		return nil
	}
	return code
}

// announceDelivery tells available riders a packed order waits for pickup.
func (s *OrderService) announceDelivery(ctx context.Context, order *models.Order) {
	if order.RiderID != nil {
		return
	}
	riders, err := s.accounts.AvailableRiders(ctx)
	if err != nil {
		log.Printf("Failed to list available riders: %v", err)
		return
	}
	msg := fmt.Sprintf("Order %s is packed and waiting for pickup", order.OrderNumber)
	for _, rider := range riders {
		s.alerts.Notify(ctx, rider.ID, models.RoleRider, models.NotificationDelivery, "Delivery available", msg, orderData(order))
	}
}

// PickupQRCode returns the active pickup code of a packed order, issuing a new
// one when the previous code expired.
func (s *OrderService) PickupQRCode(ctx context.Context, sellerID, orderID primitive.ObjectID) (*models.QrCode, string, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if order.SellerID != sellerID {
		return nil, "", repositories.ErrNotFound
	}
	if order.Status != models.OrderStatusPacking {
		return nil, "", ErrInvalidTransition
	}

	code, err := s.qrcodes.FindActive(ctx, orderID, QRPurposePickup, s.now())
	if err == repositories.ErrNotFound {
		code = s.issuePickupCode(ctx, order)
		if code == nil {
			return nil, "", errors.New("failed to issue pickup code")
		}
	} else if err != nil {
		return nil, "", err
	}

	image, err := QRDataURL(PickupPayload(code), QRImageSize)
	if err != nil {
		return nil, "", err
	}
	return code, image, nil
}

// Cancel stops a pending or packing order and returns its items to stock.
func (s *OrderService) Cancel(ctx context.Context, role string, actorID, orderID primitive.ObjectID, reason string) (*models.Order, error) {
	order, err := s.Get(ctx, role, actorID, orderID)
	if err != nil {
		return nil, err
	}
	if err := CheckCancel(role, order.Status); err != nil {
		return nil, err
	}

	now := s.now()
	change := models.StatusChange{Status: models.OrderStatusCancelled, ChangedBy: actorID.Hex(), Role: role, Note: reason, At: now}
	set := bson.M{"cancellation": models.Cancellation{Reason: reason, CancelledBy: actorID.Hex(), Role: role, At: now}}
	if order.PaymentStatus == models.PaymentStatusPaid {
		set["paymentStatus"] = models.PaymentStatusRefunded
	}
	updated, err := s.orders.Transition(ctx, orderID, []string{order.Status}, change, set, bson.M{"autoAdvanceAt": ""})
	if err != nil {
		return nil, err
	}

	for _, item := range updated.Items {
		if err := s.products.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("Failed to restock product %s for cancelled order %s: %v", item.ProductID.Hex(), updated.OrderNumber, err)
		}
	}

	msg := fmt.Sprintf("Order %s was cancelled: %s", updated.OrderNumber, reason)
	if role != models.RoleUser {
		s.alerts.Notify(ctx, updated.UserID, models.RoleUser, models.NotificationOrderCancelled, "Order cancelled", msg, orderData(updated))
	}
	if role != models.RoleSeller {
		s.alerts.Notify(ctx, updated.SellerID, models.RoleSeller, models.NotificationOrderCancelled, "Order cancelled", msg, orderData(updated))
	}
	if updated.RiderID != nil {
		s.alerts.Notify(ctx, *updated.RiderID, models.RoleRider, models.NotificationOrderCancelled, "Order cancelled", msg, orderData(updated))
	}
	s.signalParties(updated)
	return updated, nil
}

// RequestRefund records the buyer's single refund request on a delivered order.
func (s *OrderService) RequestRefund(ctx context.Context, userID, orderID primitive.ObjectID, reason string) (*models.Order, error) {
	order, err := s.Get(ctx, models.RoleUser, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, ErrInvalidTransition
	}
	if order.Refund != nil {
		return nil, repositories.ErrConflict
	}

	updated, err := s.orders.RequestRefund(ctx, orderID, userID, models.Refund{
		Reason:      reason,
		Status:      models.RefundRequested,
		Amount:      order.Subtotal,
		RequestedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Refund requested for order %s: %s", updated.OrderNumber, reason)
	s.alerts.Notify(ctx, updated.SellerID, models.RoleSeller, models.NotificationRefund, "Refund requested", msg, orderData(updated))
	s.alerts.Signal(updated.SellerID, websocket.EventOrderUpdated, updated)
	return updated, nil
}

// ResolveRefund approves or rejects a pending refund. Approval reverses the
// seller's settlement for the order.
func (s *OrderService) ResolveRefund(ctx context.Context, role string, actorID, orderID primitive.ObjectID, approve bool, note string) (*models.Order, error) {
	order, err := s.Get(ctx, role, actorID, orderID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleSeller && role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if order.Refund == nil || order.Refund.Status != models.RefundRequested {
		return nil, ErrInvalidTransition
	}

	status := models.RefundRejected
	if approve {
		status = models.RefundApproved
	}
	set := bson.M{
		"refund.status":     status,
		"refund.resolvedAt": s.now(),
		"refund.resolvedBy": actorID.Hex(),
		"refund.note":       note,
	}
	if approve {
		set["paymentStatus"] = models.PaymentStatusRefunded
	}
	updated, err := s.orders.ResolveRefund(ctx, orderID, set)
	if err != nil {
		return nil, err
	}

	if approve {
		s.reverseSettlement(ctx, updated)
	}
	msg := fmt.Sprintf("Your refund for order %s was %s", updated.OrderNumber, status)
	s.alerts.Notify(ctx, updated.UserID, models.RoleUser, models.NotificationRefund, "Refund "+status, msg, orderData(updated))
	s.signalParties(updated)
	return updated, nil
}

// SoftDelete hides a finished order from the caller. Once every party has
// hidden it the document is removed. It reports whether that happened.
func (s *OrderService) SoftDelete(ctx context.Context, role string, actorID, orderID primitive.ObjectID) (bool, error) {
	order, err := s.Get(ctx, role, actorID, orderID)
	if err != nil {
		return false, err
	}
	if !IsParty(order, role, actorID) {
		return false, ErrForbidden
	}
	if !IsTerminal(order.Status) {
		return false, ErrInvalidTransition
	}

	updated, err := s.orders.MarkDeletedBy(ctx, orderID, role)
	if err != nil {
		return false, err
	}
	if !DeletedByAll(updated) {
		return false, nil
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return false, err
	}
	return true, nil
}

// settle books a delivered order into the ledgers. Each step is independent;
// failures are logged and the remaining steps still run.
func (s *OrderService) settle(ctx context.Context, order *models.Order) {
	split := Settle(order, s.cfg.TaxRate, s.cfg.DeliveryFee, s.cfg.RiderShare)
	date := SettlementDate(order)
	now := s.now()

	if err := s.payouts.InsertSellerTransaction(ctx, &models.SellerPaymentTransaction{
		SellerID:  order.SellerID,
		OrderID:   order.ID,
		Type:      models.TransactionSale,
		Gross:     split.Gross,
		Tax:       split.Tax,
		Net:       split.Net,
		CreatedAt: now,
	}); err != nil {
		log.Printf("settlement %s: seller transaction: %v", order.OrderNumber, err)
	}
	if err := s.payouts.AddToSellerBucket(ctx, order.SellerID, order.ID, date, split.Gross, split.Tax, split.Net); err != nil {
		log.Printf("settlement %s: seller bucket: %v", order.OrderNumber, err)
	}
	if err := s.accounts.AdjustBalance(ctx, models.RoleSeller, order.SellerID, split.Net); err != nil {
		log.Printf("settlement %s: seller balance: %v", order.OrderNumber, err)
	}
	if err := s.payouts.InsertAdminTransaction(ctx, &models.AdminPaymentTransaction{
		OrderID:   order.ID,
		SellerID:  order.SellerID,
		Type:      models.TransactionCommission,
		Amount:    split.Commission,
		CreatedAt: now,
	}); err != nil {
		log.Printf("settlement %s: admin transaction: %v", order.OrderNumber, err)
	}
	if order.RiderID != nil {
		if err := s.payouts.AddToRiderBucket(ctx, *order.RiderID, order.ID, date, split.RiderAmount); err != nil {
			log.Printf("settlement %s: rider bucket: %v", order.OrderNumber, err)
		}
		if err := s.accounts.AdjustBalance(ctx, models.RoleRider, *order.RiderID, split.RiderAmount); err != nil {
			log.Printf("settlement %s: rider balance: %v", order.OrderNumber, err)
		}
	}

	entries := make([]models.SalesListEntry, 0, len(order.Items))
	for _, item := range order.Items {
		entries = append(entries, models.SalesListEntry{
			SellerID:    order.SellerID,
			ProductID:   item.ProductID,
			ProductName: item.Name,
			OrderID:     order.ID,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			Amount:      item.Subtotal,
			SoldAt:      now,
		})
		if err := s.products.IncrementSold(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("settlement %s: sold count of %s: %v", order.OrderNumber, item.ProductID.Hex(), err)
		}
	}
	if err := s.payouts.InsertSales(ctx, entries); err != nil {
		log.Printf("settlement %s: sales list: %v", order.OrderNumber, err)
	}

	msg := fmt.Sprintf("Order %s settled: %.2f net after %.2f tax", order.OrderNumber, split.Net, split.Tax)
	s.alerts.Notify(ctx, order.SellerID, models.RoleSeller, models.NotificationPayout, "Payout credited", msg, orderData(order))
}

// reverseSettlement books an approved refund as negative ledger rows and takes
// the order back out of its payout bucket while that bucket is unpaid.
func (s *OrderService) reverseSettlement(ctx context.Context, order *models.Order) {
	split := Settle(order, s.cfg.TaxRate, s.cfg.DeliveryFee, s.cfg.RiderShare)
	now := s.now()

	if err := s.payouts.InsertSellerTransaction(ctx, &models.SellerPaymentTransaction{
		SellerID:  order.SellerID,
		OrderID:   order.ID,
		Type:      models.TransactionRefund,
		Gross:     -split.Gross,
		Tax:       -split.Tax,
		Net:       -split.Net,
		CreatedAt: now,
	}); err != nil {
		log.Printf("refund %s: seller transaction: %v", order.OrderNumber, err)
	}
	if err := s.payouts.InsertAdminTransaction(ctx, &models.AdminPaymentTransaction{
		OrderID:   order.ID,
		SellerID:  order.SellerID,
		Type:      models.TransactionRefund,
		Amount:    -split.Tax,
		CreatedAt: now,
	}); err != nil {
		log.Printf("refund %s: admin transaction: %v", order.OrderNumber, err)
	}
	deducted, err := s.payouts.DeductFromSellerBucket(ctx, order.SellerID, order.ID, SettlementDate(order), split.Gross, split.Tax, split.Net)
	if err != nil {
		log.Printf("refund %s: seller bucket: %v", order.OrderNumber, err)
	} else if !deducted {
		log.Printf("refund %s: payout already made, seller balance goes into debt", order.OrderNumber)
	}
	if err := s.accounts.AdjustBalance(ctx, models.RoleSeller, order.SellerID, -split.Net); err != nil {
		log.Printf("refund %s: seller balance: %v", order.OrderNumber, err)
	}
}

func (s *OrderService) signalParties(order *models.Order) {
	s.alerts.Signal(order.UserID, websocket.EventOrderUpdated, order)
	s.alerts.Signal(order.SellerID, websocket.EventOrderUpdated, order)
	if order.RiderID != nil {
		s.alerts.Signal(*order.RiderID, websocket.EventOrderUpdated, order)
	}
}

func orderData(order *models.Order) map[string]interface{} {
	return map[string]interface{}{
		"orderId":     order.ID.Hex(),
		"orderNumber": order.OrderNumber,
		"status":      order.Status,
	}
}
