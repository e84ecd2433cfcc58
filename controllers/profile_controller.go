package controllers

import (
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/utils"
)

// ProfileController serves the seller's own profile and dashboard and the
// rider's duty switch.
type ProfileController struct {
	accounts *repositories.AccountRepository
	products *repositories.ProductRepository
	orders   *repositories.OrderRepository
	payouts  *repositories.PayoutRepository
	logger   *log.Logger
}

func NewProfileController(accounts *repositories.AccountRepository, products *repositories.ProductRepository, orders *repositories.OrderRepository, payouts *repositories.PayoutRepository) *ProfileController {
	return &ProfileController{
		accounts: accounts,
		products: products,
		orders:   orders,
		payouts:  payouts,
		logger:   log.New(os.Stdout, "[profile] ", log.LstdFlags),
	}
}

func (pc *ProfileController) GetSellerProfile(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var seller models.Seller
	if err := pc.accounts.FindByID(ctx, models.RoleSeller, sellerID, &seller); err != nil {
		return fail(c, pc.logger, err, "Failed to load profile")
	}
	seller.Password = ""
	return respond(c, http.StatusOK, "Profile retrieved", seller)
}

func (pc *ProfileController) UpdateSellerProfile(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.UpdateSellerProfileRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	set := bson.M{}
	for field, value := range map[string]string{
		"fullName":    req.FullName,
		"farmName":    req.FarmName,
		"farmAddress": req.FarmAddress,
		"description": req.Description,
	} {
		if v := utils.SanitizeInput(value); v != "" {
			set[field] = v
		}
	}
	if req.Phone != "" {
		phone, err := utils.SanitizePhone(req.Phone)
		if err != nil {
			return badRequest(c, "Invalid phone number")
		}
		set["phone"] = phone
	}
	if len(set) == 0 {
		return badRequest(c, "Nothing to update")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := pc.accounts.UpdateFields(ctx, models.RoleSeller, sellerID, set); err != nil {
		return fail(c, pc.logger, err, "Failed to update profile")
	}
	var seller models.Seller
	if err := pc.accounts.FindByID(ctx, models.RoleSeller, sellerID, &seller); err != nil {
		return fail(c, pc.logger, err, "Failed to load profile")
	}
	seller.Password = ""
	return respond(c, http.StatusOK, "Profile updated", seller)
}

// SellerDashboard summarises products, orders and money owed to the seller.
func (pc *ProfileController) SellerDashboard(c echo.Context) error {
	sellerID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var seller models.Seller
	if err := pc.accounts.FindByID(ctx, models.RoleSeller, sellerID, &seller); err != nil {
		return fail(c, pc.logger, err, "Failed to load dashboard")
	}
	products, err := pc.products.CountByStatus(ctx, &sellerID)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to load dashboard")
	}
	orders, err := pc.orders.CountByStatus(ctx, bson.M{"sellerId": sellerID})
	if err != nil {
		return fail(c, pc.logger, err, "Failed to load dashboard")
	}
	pending, err := pc.payouts.PendingSellerAmount(ctx, sellerID)
	if err != nil {
		return fail(c, pc.logger, err, "Failed to load dashboard")
	}

	return respond(c, http.StatusOK, "Dashboard retrieved", map[string]interface{}{
		"productsByStatus": products,
		"ordersByStatus":   orders,
		"pendingPayout":    utils.Round2(pending),
		"balance":          utils.Round2(seller.Balance),
		"approvalStatus":   seller.ApprovalStatus,
	})
}

// SetAvailability puts a rider on or off duty.
func (pc *ProfileController) SetAvailability(c echo.Context) error {
	riderID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.AvailabilityRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := pc.accounts.UpdateFields(ctx, models.RoleRider, riderID, bson.M{"isAvailable": req.IsAvailable}); err != nil {
		return fail(c, pc.logger, err, "Failed to update availability")
	}
	return respond(c, http.StatusOK, "Availability updated", map[string]bool{"isAvailable": req.IsAvailable})
}
