package controllers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
)

type AdminController struct {
	accounts *repositories.AccountRepository
	products *repositories.ProductRepository
	orders   *repositories.OrderRepository
	payouts  *repositories.PayoutRepository
	activity *repositories.ActivityRepository
	alerts   services.Alerts
	logger   *log.Logger
	now      func() time.Time
}

func NewAdminController(
	accounts *repositories.AccountRepository,
	products *repositories.ProductRepository,
	orders *repositories.OrderRepository,
	payouts *repositories.PayoutRepository,
	activity *repositories.ActivityRepository,
	alerts services.Alerts,
) *AdminController {
	return &AdminController{
		accounts: accounts,
		products: products,
		orders:   orders,
		payouts:  payouts,
		activity: activity,
		alerts:   alerts,
		logger:   log.New(os.Stdout, "[admin] ", log.LstdFlags),
		now:      time.Now,
	}
}

// accountFilter turns ?status= and ?q= into a query. status is an approval
// state or active/inactive.
func accountFilter(role, status, q string) bson.M {
	filter := bson.M{}
	switch status {
	case "":
	case "active":
		filter["isActive"] = true
	case "inactive":
		filter["isActive"] = false
	default:
		if role != models.RoleUser {
			filter["approvalStatus"] = status
		}
	}
	if q = strings.TrimSpace(q); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		or := bson.A{bson.M{"fullName": pattern}, bson.M{"email": pattern}}
		if role == models.RoleSeller {
			or = append(or, bson.M{"farmName": pattern})
		}
		filter["$or"] = or
	}
	return filter
}

func accountSlice(role string) interface{} {
	switch role {
	case models.RoleSeller:
		return &[]models.Seller{}
	case models.RoleRider:
		return &[]models.Rider{}
	default:
		return &[]models.User{}
	}
}

// ListAccounts lists the accounts of one role.
func (ac *AdminController) ListAccounts(role string) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, limit := paging(c)
		filter := accountFilter(role, c.QueryParam("status"), c.QueryParam("q"))

		ctx, cancel := requestContext(c)
		defer cancel()

		items := accountSlice(role)
		total, err := ac.accounts.List(ctx, role, filter, page, limit, items)
		if err != nil {
			return fail(c, ac.logger, err, "Failed to list accounts")
		}
		return respond(c, http.StatusOK, "Accounts retrieved", Page{Items: items, Total: total, Page: page, Limit: limit})
	}
}

// Approve approves a pending seller or rider.
func (ac *AdminController) Approve(role string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return ac.decide(c, role, models.ApprovalApproved)
	}
}

// Reject rejects a seller or rider; a reason is required.
func (ac *AdminController) Reject(role string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return ac.decide(c, role, models.ApprovalRejected)
	}
}

func (ac *AdminController) decide(c echo.Context, role, status string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid account ID")
	}
	var req models.ApprovalDecisionRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	reason := utils.SanitizeInput(req.Reason)
	if status == models.ApprovalRejected && reason == "" {
		return badRequest(c, "A rejection reason is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ac.accounts.SetApproval(ctx, role, id, status, reason); err != nil {
		return fail(c, ac.logger, err, "Failed to update account")
	}

	title := "Account approved"
	message := "Your account has been approved. You can now sign in."
	if status == models.ApprovalRejected {
		title = "Account rejected"
		message = fmt.Sprintf("Your account application was rejected: %s", reason)
	}
	ac.alerts.Notify(ctx, id, role, models.NotificationAccountReview, title, message, map[string]interface{}{"status": status})
	ac.alerts.Email(ctx, role, id, title, message)

	return respond(c, http.StatusOK, title, map[string]string{"id": id.Hex(), "approvalStatus": status})
}

// SetActive enables or disables any non admin account.
func (ac *AdminController) SetActive(c echo.Context) error {
	role := c.Param("role")
	if role != models.RoleUser && role != models.RoleSeller && role != models.RoleRider {
		return badRequest(c, "Invalid role")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid account ID")
	}
	var req models.SetActiveRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ac.accounts.SetActive(ctx, role, id, req.Active); err != nil {
		return fail(c, ac.logger, err, "Failed to update account")
	}
	message := "Account deactivated"
	if req.Active {
		message = "Account activated"
	}
	return respond(c, http.StatusOK, message, map[string]interface{}{"id": id.Hex(), "isActive": req.Active})
}

func (ac *AdminController) Dashboard(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var stats models.AdminDashboardStats
	var err error
	pending := bson.M{"approvalStatus": models.ApprovalPending}

	if stats.TotalUsers, err = ac.accounts.Count(ctx, models.RoleUser, bson.M{}); err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	if stats.TotalSellers, err = ac.accounts.Count(ctx, models.RoleSeller, bson.M{}); err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	if stats.TotalRiders, err = ac.accounts.Count(ctx, models.RoleRider, bson.M{}); err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	if stats.PendingSellers, err = ac.accounts.Count(ctx, models.RoleSeller, pending); err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	if stats.PendingRiders, err = ac.accounts.Count(ctx, models.RoleRider, pending); err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	byApproval, err := ac.products.CountByStatus(ctx, nil)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	stats.PendingProducts = byApproval[models.ApprovalPending]
	if stats.OrdersByStatus, err = ac.orders.CountByStatus(ctx, bson.M{}); err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	if stats.GrossSales, err = ac.orders.GrossDelivered(ctx); err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	if stats.PlatformRevenue, err = ac.payouts.PlatformRevenue(ctx); err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	if stats.RiderPayoutsOwed, err = ac.payouts.PendingRiderAmount(ctx); err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	if stats.SellerPayoutsOwed, err = ac.payouts.PendingSellerTotal(ctx); err != nil {
		return fail(c, ac.logger, err, "Failed to load dashboard")
	}
	stats.GrossSales = utils.Round2(stats.GrossSales)
	stats.PlatformRevenue = utils.Round2(stats.PlatformRevenue)
	stats.RiderPayoutsOwed = utils.Round2(stats.RiderPayoutsOwed)
	stats.SellerPayoutsOwed = utils.Round2(stats.SellerPayoutsOwed)

	return respond(c, http.StatusOK, "Dashboard retrieved", stats)
}

// SalesReport returns one point per day between from and to.
func (ac *AdminController) SalesReport(c echo.Context) error {
	from, to, err := utils.ParseDateRange(c.QueryParam("from"), c.QueryParam("to"), ac.now())
	if err != nil {
		return badRequest(c, "Dates must be YYYY-MM-DD")
	}
	if !to.After(from) {
		return badRequest(c, "from must not be after to")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	points, err := ac.payouts.DailySales(ctx, from, to)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load sales report")
	}
	return respond(c, http.StatusOK, "Sales report retrieved", points)
}

func (ac *AdminController) TopProducts(c echo.Context) error {
	limit := int64(10)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return badRequest(c, "limit must be a positive number")
		}
		if n > 50 {
			n = 50
		}
		limit = n
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	top, err := ac.payouts.TopProducts(ctx, limit)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load top products")
	}
	return respond(c, http.StatusOK, "Top products retrieved", top)
}

func (ac *AdminController) ActivityLogs(c echo.Context) error {
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	logs, total, err := ac.activity.List(ctx, c.QueryParam("actorRole"), c.QueryParam("action"), page, limit)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load activity logs")
	}
	return respond(c, http.StatusOK, "Activity logs retrieved", Page{Items: logs, Total: total, Page: page, Limit: limit})
}
