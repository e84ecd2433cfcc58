package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agrimarket/agrimarket_backend/controllers"
	"github.com/agrimarket/agrimarket_backend/middleware"
	"github.com/agrimarket/agrimarket_backend/websocket"
)

// Handlers bundles every controller the API exposes.
type Handlers struct {
	Auth          *controllers.AuthController
	Products      *controllers.ProductController
	Cart          *controllers.CartController
	Orders        *controllers.OrderController
	Payouts       *controllers.PayoutController
	Chats         *controllers.ChatController
	Notifications *controllers.NotificationController
	Announcements *controllers.AnnouncementController
	Damage        *controllers.DamageController
	Admin         *controllers.AdminController
	Profile       *controllers.ProfileController
}

// SetupRoutes configures all API routes by calling individual route
// registration functions.
func SetupRoutes(e *echo.Echo, client *mongo.Client, h Handlers, issuer *middleware.TokenIssuer, hub *websocket.Hub, activity middleware.ActivityRecorder) {
	protect := issuer.Middleware()

	RegisterHealthRoutes(e, client)
	RegisterAuthRoutes(e, h.Auth, protect)
	RegisterUserRoutes(e, h, protect, hub)
	RegisterNotificationRoutes(e, h.Notifications, protect)
	RegisterSellerRoutes(e, h, protect)
	RegisterRiderRoutes(e, h, protect)
	RegisterAdminRoutes(e, h, protect, activity)
}

// RegisterHealthRoutes answers load balancer probes.
func RegisterHealthRoutes(e *echo.Echo, client *mongo.Client) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "OK",
			"message": "AgriMarket Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		if client == nil {
			return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx, nil); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": "unreachable",
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})
}
