package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/middleware"
	"github.com/agrimarket/agrimarket_backend/models"
)

// RegisterAdminRoutes sets up all admin-related routes. Admin login is
// registered with the auth routes.
func RegisterAdminRoutes(e *echo.Echo, h Handlers, protect echo.MiddlewareFunc, activity middleware.ActivityRecorder) {
	protected := e.Group("/api/admin", protect, middleware.RequireRole(models.RoleAdmin), middleware.ActivityTracker(activity))

	// Super admin check happens in the handler
	protected.POST("/register", h.Auth.RegisterAdmin)

	// Accounts
	protected.GET("/users", h.Admin.ListAccounts(models.RoleUser))
	protected.GET("/sellers", h.Admin.ListAccounts(models.RoleSeller))
	protected.GET("/riders", h.Admin.ListAccounts(models.RoleRider))
	protected.PATCH("/sellers/:id/approve", h.Admin.Approve(models.RoleSeller))
	protected.PATCH("/sellers/:id/reject", h.Admin.Reject(models.RoleSeller))
	protected.PATCH("/riders/:id/approve", h.Admin.Approve(models.RoleRider))
	protected.PATCH("/riders/:id/reject", h.Admin.Reject(models.RoleRider))
	protected.PATCH("/accounts/:role/:id/active", h.Admin.SetActive)

	// Products
	protected.GET("/products", h.Products.AdminProducts)
	protected.PATCH("/products/:id/approve", h.Products.ApproveProduct)
	protected.PATCH("/products/:id/reject", h.Products.RejectProduct)

	// Orders
	protected.GET("/orders", h.Orders.AllOrders)
	protected.PATCH("/orders/:id/status", h.Orders.UpdateStatus)
	protected.PATCH("/orders/:id/refund", h.Orders.ResolveRefund)

	// Payouts
	protected.GET("/payouts", h.Payouts.AdminPayouts)
	protected.PATCH("/payouts/:id/pay", h.Payouts.PaySeller)
	protected.PATCH("/rider-payouts/:id/pay", h.Payouts.PayRider)
	protected.GET("/transactions", h.Payouts.AdminTransactions)

	// Announcements
	protected.GET("/announcements", h.Announcements.List)
	protected.POST("/announcements", h.Announcements.Create)
	protected.PUT("/announcements/:id", h.Announcements.Update)
	protected.DELETE("/announcements/:id", h.Announcements.Delete)

	// Damage logs
	protected.GET("/damage-logs", h.Damage.AdminList)
	protected.PATCH("/damage-logs/:id/resolve", h.Damage.Resolve)

	// Reports
	protected.GET("/dashboard", h.Admin.Dashboard)
	protected.GET("/reports/sales", h.Admin.SalesReport)
	protected.GET("/reports/top-products", h.Admin.TopProducts)
	protected.GET("/activity-logs", h.Admin.ActivityLogs)
}
