package controllers

import (
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
)

type OrderController struct {
	service *services.OrderService
	orders  *repositories.OrderRepository
	logger  *log.Logger
}

func NewOrderController(service *services.OrderService, orders *repositories.OrderRepository) *OrderController {
	return &OrderController{
		service: service,
		orders:  orders,
		logger:  log.New(os.Stdout, "[orders] ", log.LstdFlags),
	}
}

// Checkout places one order per seller from the selected cart lines.
func (oc *OrderController) Checkout(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.CheckoutRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	productIDs, err := utils.ParseObjectIDs(req.Items)
	if err != nil {
		return badRequest(c, "Invalid product ID in items")
	}
	req.ShippingAddress = utils.SanitizeInput(req.ShippingAddress)
	if req.ContactPhone, err = utils.SanitizePhone(req.ContactPhone); err != nil || req.ContactPhone == "" {
		return badRequest(c, "Invalid contact phone")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	orders, err := oc.service.Checkout(ctx, userID, productIDs, req)
	if err != nil {
		return fail(c, oc.logger, err, "Failed to place order")
	}
	return respond(c, http.StatusCreated, "Order placed", orders)
}

// MyOrders lists the caller's orders, hiding the ones the caller deleted.
func (oc *OrderController) MyOrders(c echo.Context) error {
	id, role, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	orders, total, err := oc.orders.ListFor(ctx, role, id, c.QueryParam("status"), page, limit)
	if err != nil {
		return fail(c, oc.logger, err, "Failed to list orders")
	}
	return respond(c, http.StatusOK, "Orders retrieved", Page{Items: orders, Total: total, Page: page, Limit: limit})
}

func (oc *OrderController) AllOrders(c echo.Context) error {
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	orders, total, err := oc.orders.ListAll(ctx, c.QueryParam("status"), page, limit)
	if err != nil {
		return fail(c, oc.logger, err, "Failed to list orders")
	}
	return respond(c, http.StatusOK, "Orders retrieved", Page{Items: orders, Total: total, Page: page, Limit: limit})
}

// AvailableOrders lists packed orders no rider has claimed yet.
func (oc *OrderController) AvailableOrders(c echo.Context) error {
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	orders, total, err := oc.orders.ListAvailable(ctx, page, limit)
	if err != nil {
		return fail(c, oc.logger, err, "Failed to list orders")
	}
	return respond(c, http.StatusOK, "Orders retrieved", Page{Items: orders, Total: total, Page: page, Limit: limit})
}

func (oc *OrderController) GetOrder(c echo.Context) error {
	id, role, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := oc.service.Get(ctx, role, id, orderID)
	if err != nil {
		return fail(c, oc.logger, err, "Failed to load order")
	}
	return respond(c, http.StatusOK, "Order retrieved", order)
}

func (oc *OrderController) UpdateStatus(c echo.Context) error {
	id, role, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}
	var req models.UpdateOrderStatusRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := oc.service.UpdateStatus(ctx, role, id, orderID, req.Status, utils.SanitizeInput(req.Note))
	if err != nil {
		return fail(c, oc.logger, err, "Failed to update order")
	}
	return respond(c, http.StatusOK, "Order updated", order)
}

func (oc *OrderController) Accept(c echo.Context) error {
	riderID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := oc.service.Claim(ctx, riderID, orderID)
	if err != nil {
		return fail(c, oc.logger, err, "Failed to accept order")
	}
	return respond(c, http.StatusOK, "Order accepted", order)
}

func (oc *OrderController) Pickup(c echo.Context) error {
	riderID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}
	var req models.PickupRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := oc.service.Pickup(ctx, riderID, orderID, req.QRToken)
	if err != nil {
		return fail(c, oc.logger, err, "Failed to confirm pickup")
	}
	return respond(c, http.StatusOK, "Order picked up", order)
}

func (oc *OrderController) Deliver(c echo.Context) error {
	riderID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := oc.service.Deliver(ctx, riderID, orderID)
	if err != nil {
		return fail(c, oc.logger, err, "Failed to confirm delivery")
	}
	return respond(c, http.StatusOK, "Order delivered", order)
}

func (oc *OrderController) Cancel(c echo.Context) error {
	id, role, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}
	var req models.CancelOrderRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := oc.service.Cancel(ctx, role, id, orderID, utils.SanitizeInput(req.Reason))
	if err != nil {
		return fail(c, oc.logger, err, "Failed to cancel order")
	}
	return respond(c, http.StatusOK, "Order cancelled", order)
}

func (oc *OrderController) RequestRefund(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}
	var req models.RefundRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := oc.service.RequestRefund(ctx, userID, orderID, utils.SanitizeInput(req.Reason))
	if err != nil {
		return fail(c, oc.logger, err, "Failed to request refund")
	}
	return respond(c, http.StatusOK, "Refund requested", order)
}

func (oc *OrderController) ResolveRefund(c echo.Context) error {
	id, role, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}
	var req models.ResolveRefundRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := oc.service.ResolveRefund(ctx, role, id, orderID, req.Approve, utils.SanitizeInput(req.Note))
	if err != nil {
		return fail(c, oc.logger, err, "Failed to resolve refund")
	}
	return respond(c, http.StatusOK, "Refund "+order.Refund.Status, order)
}

// DeleteOrder hides a finished order from the caller.
func (oc *OrderController) DeleteOrder(c echo.Context) error {
	id, role, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	removed, err := oc.service.SoftDelete(ctx, role, id, orderID)
	if err != nil {
		return fail(c, oc.logger, err, "Failed to delete order")
	}
	return respond(c, http.StatusOK, "Order deleted", map[string]bool{"permanentlyDeleted": removed})
}

// PickupQRCode returns the pickup code of a packed order as a PNG data URL.
func (oc *OrderController) PickupQRCode(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	code, image, err := oc.service.PickupQRCode(ctx, sellerID, orderID)
	if err != nil {
		return fail(c, oc.logger, err, "Failed to generate pickup code")
	}
	return respond(c, http.StatusOK, "Pickup code retrieved", map[string]interface{}{
		"token":     code.Token,
		"expiresAt": code.ExpiresAt,
		"qrCode":    image,
	})
}
