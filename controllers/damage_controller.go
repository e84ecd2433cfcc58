package controllers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
)

type DamageController struct {
	damages *repositories.DamageRepository
	orders  *repositories.OrderRepository
	alerts  services.Alerts
	logger  *log.Logger
}

func NewDamageController(damages *repositories.DamageRepository, orders *repositories.OrderRepository, alerts services.Alerts) *DamageController {
	return &DamageController{
		damages: damages,
		orders:  orders,
		alerts:  alerts,
		logger:  log.New(os.Stdout, "[damage] ", log.LstdFlags),
	}
}

// Report records damage on an order the rider is carrying.
func (dc *DamageController) Report(c echo.Context) error {
	riderID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}
	var req models.DamageReportRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	var productID *primitive.ObjectID
	if req.ProductID != "" {
		id, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			return badRequest(c, "Invalid product ID")
		}
		productID = &id
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := dc.orders.FindByID(ctx, orderID)
	if err != nil {
		return fail(c, dc.logger, err, "Failed to report damage")
	}
	if order.RiderID == nil || *order.RiderID != riderID {
		return fail(c, dc.logger, services.ErrForbidden, "Failed to report damage")
	}
	if order.Status != models.OrderStatusInTransit {
		return respond(c, http.StatusConflict, "Damage can only be reported while the order is in transit", nil)
	}

	entry := &models.DamageLog{
		OrderID:     order.ID,
		RiderID:     riderID,
		SellerID:    order.SellerID,
		ProductID:   productID,
		Description: utils.SanitizeInput(req.Description),
	}
	if err := dc.damages.Create(ctx, entry); err != nil {
		return fail(c, dc.logger, err, "Failed to report damage")
	}

	data := map[string]interface{}{"orderId": order.ID.Hex(), "damageLogId": entry.ID.Hex()}
	message := fmt.Sprintf("Damage was reported on order %s", order.OrderNumber)
	dc.alerts.Notify(ctx, order.SellerID, models.RoleSeller, models.NotificationDamage, "Damage reported", message, data)
	dc.alerts.NotifyAdmins(ctx, models.NotificationDamage, "Damage reported", message, data)

	return respond(c, http.StatusCreated, "Damage reported", entry)
}

// AdminList accepts ?resolved=true|false.
func (dc *DamageController) AdminList(c echo.Context) error {
	var resolved *bool
	if raw := c.QueryParam("resolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "resolved must be true or false")
		}
		resolved = &v
	}
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	logs, total, err := dc.damages.List(ctx, nil, resolved, page, limit)
	if err != nil {
		return fail(c, dc.logger, err, "Failed to load damage logs")
	}
	return respond(c, http.StatusOK, "Damage logs retrieved", Page{Items: logs, Total: total, Page: page, Limit: limit})
}

func (dc *DamageController) SellerList(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	logs, total, err := dc.damages.List(ctx, &sellerID, nil, page, limit)
	if err != nil {
		return fail(c, dc.logger, err, "Failed to load damage logs")
	}
	return respond(c, http.StatusOK, "Damage logs retrieved", Page{Items: logs, Total: total, Page: page, Limit: limit})
}

// Resolve closes an open damage log. A resolved log answers 404.
func (dc *DamageController) Resolve(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid damage log ID")
	}
	var req models.ResolveDamageRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	entry, err := dc.damages.Resolve(ctx, id, utils.SanitizeInput(req.Resolution))
	if err != nil {
		return fail(c, dc.logger, err, "Failed to resolve damage log")
	}
	dc.alerts.Notify(ctx, entry.SellerID, models.RoleSeller, models.NotificationDamage, "Damage report resolved",
		entry.Resolution, map[string]interface{}{"damageLogId": entry.ID.Hex()})
	return respond(c, http.StatusOK, "Damage log resolved", entry)
}
