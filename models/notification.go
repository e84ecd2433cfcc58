package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationOrderPlaced    = "order_placed"
	NotificationOrderUpdated   = "order_updated"
	NotificationOrderCancelled = "order_cancelled"
	NotificationRefund         = "refund"
	NotificationProductReview  = "product_review"
	NotificationAccountReview  = "account_review"
	NotificationPayout         = "payout"
	NotificationDelivery       = "delivery_available"
	NotificationDamage         = "damage_report"
)

// Notification model
type Notification struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	RecipientID   primitive.ObjectID `json:"recipientId" bson:"recipientId"`
	RecipientRole string             `json:"recipientRole" bson:"recipientRole"`
	Title         string             `json:"title" bson:"title"`
	Message       string             `json:"message" bson:"message"`
	Type          string             `json:"type" bson:"type"`
	Data          interface{}        `json:"data,omitempty" bson:"data,omitempty"`
	IsRead        bool               `json:"isRead" bson:"isRead"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// Chat is a one-to-one conversation. Unread is keyed by participant id hex.
type Chat struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Participants  []Participant       `json:"participants" bson:"participants"`
	OrderID       *primitive.ObjectID `json:"orderId,omitempty" bson:"orderId,omitempty"`
	LastMessage   string              `json:"lastMessage" bson:"lastMessage"`
	LastMessageAt time.Time           `json:"lastMessageAt" bson:"lastMessageAt"`
	Unread        map[string]int      `json:"-" bson:"unread"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
}

type Participant struct {
	ID   primitive.ObjectID `json:"id" bson:"id"`
	Role string             `json:"role" bson:"role"`
}

// HasParticipant reports whether id takes part in the chat.
func (c *Chat) HasParticipant(id primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// UnreadFor returns the unread counter of a participant.
func (c *Chat) UnreadFor(id primitive.ObjectID) int {
	if c.Unread == nil {
		return 0
	}
	return c.Unread[id.Hex()]
}

type Message struct {
	ID         primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	ChatID     primitive.ObjectID   `json:"chatId" bson:"chatId"`
	SenderID   primitive.ObjectID   `json:"senderId" bson:"senderId"`
	SenderRole string               `json:"senderRole" bson:"senderRole"`
	Content    string               `json:"content" bson:"content"`
	ReadBy     []primitive.ObjectID `json:"readBy" bson:"readBy"`
	CreatedAt  time.Time            `json:"createdAt" bson:"createdAt"`
}

// ChatSummary is an inbox entry seen from one participant.
type ChatSummary struct {
	Chat
	UnreadCount int `json:"unreadCount"`
}

type StartChatRequest struct {
	ParticipantID   string `json:"participantId" validate:"required"`
	ParticipantRole string `json:"participantRole" validate:"required,oneof=user seller rider admin"`
	OrderID         string `json:"orderId"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}
