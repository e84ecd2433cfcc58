package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/middleware"
	"github.com/agrimarket/agrimarket_backend/models"
)

// RegisterRiderRoutes sets up delivery and earnings routes.
func RegisterRiderRoutes(e *echo.Echo, h Handlers, protect echo.MiddlewareFunc) {
	r := e.Group("/api/rider", protect, middleware.RequireRole(models.RoleRider))

	r.PATCH("/availability", h.Profile.SetAvailability)
	r.GET("/available-orders", h.Orders.AvailableOrders)
	r.GET("/orders", h.Orders.MyOrders)
	r.POST("/orders/:id/accept", h.Orders.Accept)
	r.POST("/orders/:id/pickup", h.Orders.Pickup)
	r.POST("/orders/:id/deliver", h.Orders.Deliver)
	r.POST("/orders/:id/damage", h.Damage.Report)

	r.GET("/payouts", h.Payouts.RiderPayouts)
	r.GET("/earnings", h.Payouts.RiderEarnings)
}
