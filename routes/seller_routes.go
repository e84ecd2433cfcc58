package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/middleware"
	"github.com/agrimarket/agrimarket_backend/models"
)

// RegisterSellerRoutes sets up the farmer's products, orders and payouts.
func RegisterSellerRoutes(e *echo.Echo, h Handlers, protect echo.MiddlewareFunc) {
	s := e.Group("/api/seller", protect, middleware.RequireRole(models.RoleSeller))

	// Profile
	s.GET("/profile", h.Profile.GetSellerProfile)
	s.PUT("/profile", h.Profile.UpdateSellerProfile)
	s.GET("/dashboard", h.Profile.SellerDashboard)

	// Products
	s.GET("/products", h.Products.SellerProducts)
	s.POST("/products", h.Products.CreateProduct)
	s.PUT("/products/:id", h.Products.UpdateProduct)
	s.DELETE("/products/:id", h.Products.DeleteProduct)
	s.POST("/products/:id/images", h.Products.UploadImages)

	// Orders
	s.GET("/orders", h.Orders.MyOrders)
	s.PATCH("/orders/:id/status", h.Orders.UpdateStatus)
	s.PATCH("/orders/:id/refund", h.Orders.ResolveRefund)
	s.GET("/damage-logs", h.Damage.SellerList)

	// Payouts
	s.GET("/payouts", h.Payouts.SellerPayouts)
	s.GET("/transactions", h.Payouts.SellerTransactions)
	s.GET("/sales", h.Payouts.SellerSales)
}
