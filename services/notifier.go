package services

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/websocket"
)

// Publisher pushes realtime events to connected clients.
type Publisher interface {
	SendToUser(userID primitive.ObjectID, event websocket.Event) error
	Broadcast(event websocket.Event)
}

// Alerts is what the order, product and account flows use to reach people.
type Alerts interface {
	Notify(ctx context.Context, recipientID primitive.ObjectID, role, kind, title, message string, data map[string]interface{})
	NotifyAdmins(ctx context.Context, kind, title, message string, data map[string]interface{})
	Email(ctx context.Context, role string, recipientID primitive.ObjectID, subject, body string)
	Signal(userID primitive.ObjectID, event string, data interface{})
	Broadcast(event string, data interface{})
}

// Notifier stores in-app notifications and fans them out over websocket,
// push and email. Delivery failures are logged, never returned.
type Notifier struct {
	notifications *repositories.NotificationRepository
	accounts      *repositories.AccountRepository
	hub           Publisher
	push          PushSender
	mailer        Mailer
}

func NewNotifier(notifications *repositories.NotificationRepository, accounts *repositories.AccountRepository, hub Publisher, push PushSender, mailer Mailer) *Notifier {
	return &Notifier{
		notifications: notifications,
		accounts:      accounts,
		hub:           hub,
		push:          push,
		mailer:        mailer,
	}
}

type contact struct {
	Email    string `bson:"email"`
	FCMToken string `bson:"fcmToken"`
}

func (n *Notifier) Notify(ctx context.Context, recipientID primitive.ObjectID, role, kind, title, message string, data map[string]interface{}) {
	notification := &models.Notification{
		RecipientID:   recipientID,
		RecipientRole: role,
		Title:         title,
		Message:       message,
		Type:          kind,
		Data:          data,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		log.Printf("Failed to save notification for %s: %v", recipientID.Hex(), err)
		return
	}

	n.Signal(recipientID, websocket.EventNotification, notification)

	if role != models.RoleRider && role != models.RoleUser {
		return
	}
	var c contact
	if err := n.accounts.FindByID(ctx, role, recipientID, &c); err != nil || c.FCMToken == "" {
		return
	}
	if err := n.push.Send(ctx, c.FCMToken, title, message, data); err != nil {
		log.Printf("Push to %s %s failed: %v", role, recipientID.Hex(), err)
	}
}

func (n *Notifier) NotifyAdmins(ctx context.Context, kind, title, message string, data map[string]interface{}) {
	var admins []models.Admin
	if _, err := n.accounts.List(ctx, models.RoleAdmin, bson.M{}, 1, 100, &admins); err != nil {
		log.Printf("Failed to list admins for notification: %v", err)
		return
	}
	for _, admin := range admins {
		n.Notify(ctx, admin.ID, models.RoleAdmin, kind, title, message, data)
	}
}

func (n *Notifier) Email(ctx context.Context, role string, recipientID primitive.ObjectID, subject, body string) {
	var c contact
	if err := n.accounts.FindByID(ctx, role, recipientID, &c); err != nil || c.Email == "" {
		return
	}
	if err := n.mailer.Send(c.Email, subject, body); err != nil {
		log.Printf("Email to %s %s failed: %v", role, recipientID.Hex(), err)
	}
}

// Signal sends a realtime event to a user if they are connected.
func (n *Notifier) Signal(userID primitive.ObjectID, event string, data interface{}) {
	if n.hub == nil {
		return
	}
	err := n.hub.SendToUser(userID, websocket.Event{Type: event, Data: data})
	if err != nil && err != websocket.ErrNotConnected {
		log.Printf("Websocket signal %s to %s failed: %v", event, userID.Hex(), err)
	}
}

func (n *Notifier) Broadcast(event string, data interface{}) {
	if n.hub == nil {
		return
	}
	n.hub.Broadcast(websocket.Event{Type: event, Data: data})
}
