package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/middleware"
	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/websocket"
)

// RegisterUserRoutes sets up the public catalogue and the buyer routes, plus
// order, chat and websocket routes shared by every role.
func RegisterUserRoutes(e *echo.Echo, h Handlers, protect echo.MiddlewareFunc, hub *websocket.Hub) {
	// Public catalogue
	e.GET("/api/products", h.Products.Catalogue)
	e.GET("/api/products/:id", h.Products.GetProduct)
	e.GET("/api/announcements", h.Announcements.Active)

	r := e.Group("/api", protect)

	// Buyer cart and checkout
	buyer := r.Group("", middleware.RequireRole(models.RoleUser))
	buyer.GET("/cart", h.Cart.GetCart)
	buyer.DELETE("/cart", h.Cart.ClearCart)
	buyer.POST("/cart/items", h.Cart.AddItem)
	buyer.PATCH("/cart/items/:productId", h.Cart.UpdateItem)
	buyer.DELETE("/cart/items/:productId", h.Cart.RemoveItem)
	buyer.POST("/checkout", h.Orders.Checkout)
	buyer.GET("/orders", h.Orders.MyOrders)
	buyer.POST("/orders/:id/refund", h.Orders.RequestRefund)

	// Orders seen by any party
	r.GET("/orders/:id", h.Orders.GetOrder)
	r.DELETE("/orders/:id", h.Orders.DeleteOrder)
	r.POST("/orders/:id/cancel", h.Orders.Cancel, middleware.RequireRole(models.RoleUser, models.RoleSeller, models.RoleAdmin))
	r.GET("/orders/:id/qrcode", h.Orders.PickupQRCode, middleware.RequireRole(models.RoleSeller))

	// Chats
	r.POST("/chats", h.Chats.StartChat)
	r.GET("/chats", h.Chats.Inbox)
	r.GET("/chats/unread-count", h.Chats.UnreadCount)
	r.GET("/chats/:id/messages", h.Chats.Messages)
	r.POST("/chats/:id/messages", h.Chats.SendMessage)
	r.PATCH("/chats/:id/read", h.Chats.MarkRead)

	// Realtime events
	r.GET("/ws", func(c echo.Context) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return echo.ErrUnauthorized
		}
		return websocket.HandleWebSocket(c, hub, userID, middleware.CurrentRole(c))
	})
}
