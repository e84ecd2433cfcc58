package controllers

import (
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
)

type NotificationController struct {
	notifications *repositories.NotificationRepository
	accounts      *repositories.AccountRepository
	logger        *log.Logger
}

func NewNotificationController(notifications *repositories.NotificationRepository, accounts *repositories.AccountRepository) *NotificationController {
	return &NotificationController{
		notifications: notifications,
		accounts:      accounts,
		logger:        log.New(os.Stdout, "[notifications] ", log.LstdFlags),
	}
}

// List returns the caller's notifications, newest first. ?unread=true keeps
// only unread ones.
func (nc *NotificationController) List(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	page, limit := paging(c)
	unreadOnly := c.QueryParam("unread") == "true"

	ctx, cancel := requestContext(c)
	defer cancel()

	items, total, err := nc.notifications.List(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return fail(c, nc.logger, err, "Failed to load notifications")
	}
	return respond(c, http.StatusOK, "Notifications retrieved", Page{Items: items, Total: total, Page: page, Limit: limit})
}

func (nc *NotificationController) UnreadCount(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	count, err := nc.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return fail(c, nc.logger, err, "Failed to count notifications")
	}
	return respond(c, http.StatusOK, "Unread count retrieved", map[string]int64{"unreadCount": count})
}

func (nc *NotificationController) MarkRead(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid notification ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := nc.notifications.MarkRead(ctx, id, userID); err != nil {
		return fail(c, nc.logger, err, "Failed to update notification")
	}
	return respond(c, http.StatusOK, "Notification marked as read", nil)
}

func (nc *NotificationController) MarkAllRead(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	updated, err := nc.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return fail(c, nc.logger, err, "Failed to update notifications")
	}
	return respond(c, http.StatusOK, "Notifications marked as read", map[string]int64{"updated": updated})
}

func (nc *NotificationController) Delete(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid notification ID")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := nc.notifications.Delete(ctx, id, userID); err != nil {
		return fail(c, nc.logger, err, "Failed to delete notification")
	}
	return respond(c, http.StatusOK, "Notification deleted", nil)
}

// UpdateFCMToken stores the device token used for push notifications.
func (nc *NotificationController) UpdateFCMToken(c echo.Context) error {
	userID, role, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.FCMTokenUpdateRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := nc.accounts.SetFCMToken(ctx, role, userID, req.FCMToken); err != nil {
		return fail(c, nc.logger, err, "Failed to update FCM token")
	}
	return respond(c, http.StatusOK, "FCM token updated", nil)
}
