package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/controllers"
)

// RegisterNotificationRoutes registers all notification-related routes
func RegisterNotificationRoutes(e *echo.Echo, notificationController *controllers.NotificationController, protect echo.MiddlewareFunc) {
	n := e.Group("/api/notifications", protect)

	n.GET("", notificationController.List)
	n.GET("/unread-count", notificationController.UnreadCount)
	n.PATCH("/read-all", notificationController.MarkAllRead)
	n.PATCH("/:id/read", notificationController.MarkRead)
	n.DELETE("/:id", notificationController.Delete)

	// FCM token update endpoint
	n.POST("/fcm-token", notificationController.UpdateFCMToken)
}
