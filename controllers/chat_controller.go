package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/utils"
	"github.com/agrimarket/agrimarket_backend/websocket"
)

type ChatController struct {
	chats    *repositories.ChatRepository
	accounts *repositories.AccountRepository
	alerts   services.Alerts
	logger   *log.Logger
}

func NewChatController(chats *repositories.ChatRepository, accounts *repositories.AccountRepository, alerts services.Alerts) *ChatController {
	return &ChatController{
		chats:    chats,
		accounts: accounts,
		alerts:   alerts,
		logger:   log.New(os.Stdout, "[chat] ", log.LstdFlags),
	}
}

// StartChat returns the conversation between the caller and a participant,
// creating it on first contact.
func (cc *ChatController) StartChat(c echo.Context) error {
	userID, role, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.StartChatRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	otherID, err := primitive.ObjectIDFromHex(req.ParticipantID)
	if err != nil {
		return badRequest(c, "Invalid participant ID")
	}
	if otherID == userID {
		return badRequest(c, "Cannot start a chat with yourself")
	}
	var orderID *primitive.ObjectID
	if req.OrderID != "" {
		id, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			return badRequest(c, "Invalid order ID")
		}
		orderID = &id
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var other bson.M
	if err := cc.accounts.FindByID(ctx, req.ParticipantRole, otherID, &other); err != nil {
		return fail(c, cc.logger, err, "Failed to start chat")
	}

	chat, err := cc.chats.FindBetween(ctx, userID, otherID)
	if errors.Is(err, repositories.ErrNotFound) {
		chat = &models.Chat{
			Participants: []models.Participant{{ID: userID, Role: role}, {ID: otherID, Role: req.ParticipantRole}},
			OrderID:      orderID,
		}
		err = cc.chats.Create(ctx, chat)
	}
	if err != nil {
		return fail(c, cc.logger, err, "Failed to start chat")
	}
	return respond(c, http.StatusOK, "Chat ready", models.ChatSummary{Chat: *chat, UnreadCount: chat.UnreadFor(userID)})
}

func (cc *ChatController) Inbox(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	chats, err := cc.chats.ListFor(ctx, userID)
	if err != nil {
		return fail(c, cc.logger, err, "Failed to load chats")
	}
	inbox := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		inbox = append(inbox, models.ChatSummary{Chat: chat, UnreadCount: chat.UnreadFor(userID)})
	}
	return respond(c, http.StatusOK, "Chats retrieved", inbox)
}

// participantChat loads the chat in the path when the caller takes part in it.
func (cc *ChatController) participantChat(ctx context.Context, c echo.Context, userID primitive.ObjectID) (*models.Chat, error) {
	chatID, err := paramID(c, "id")
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	chat, err := cc.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, services.ErrForbidden
	}
	return chat, nil
}

func (cc *ChatController) Messages(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	page, limit := paging(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	chat, err := cc.participantChat(ctx, c, userID)
	if err != nil {
		return fail(c, cc.logger, err, "Failed to load messages")
	}

	messages, total, err := cc.chats.Messages(ctx, chat.ID, page, limit)
	if err != nil {
		return fail(c, cc.logger, err, "Failed to load messages")
	}
	return respond(c, http.StatusOK, "Messages retrieved", Page{Items: messages, Total: total, Page: page, Limit: limit})
}

func (cc *ChatController) SendMessage(c echo.Context) error {
	userID, role, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req models.SendMessageRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	content := utils.SanitizeInput(req.Content)
	if strings.TrimSpace(content) == "" {
		return badRequest(c, "Message is empty")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	chat, err := cc.participantChat(ctx, c, userID)
	if err != nil {
		return fail(c, cc.logger, err, "Failed to send message")
	}

	msg := &models.Message{SenderID: userID, SenderRole: role, Content: content}
	if err := cc.chats.AddMessage(ctx, chat, msg); err != nil {
		return fail(c, cc.logger, err, "Failed to send message")
	}
	for _, p := range chat.Participants {
		if p.ID != userID {
			cc.alerts.Signal(p.ID, websocket.EventChatMessage, msg)
		}
	}
	return respond(c, http.StatusCreated, "Message sent", msg)
}

func (cc *ChatController) MarkRead(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	chat, err := cc.participantChat(ctx, c, userID)
	if err != nil {
		return fail(c, cc.logger, err, "Failed to mark chat read")
	}

	if err := cc.chats.MarkRead(ctx, chat.ID, userID); err != nil {
		return fail(c, cc.logger, err, "Failed to mark chat read")
	}
	return respond(c, http.StatusOK, "Chat marked as read", nil)
}

func (cc *ChatController) UnreadCount(c echo.Context) error {
	userID, _, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	count, err := cc.chats.TotalUnread(ctx, userID)
	if err != nil {
		return fail(c, cc.logger, err, "Failed to count unread messages")
	}
	return respond(c, http.StatusOK, "Unread count retrieved", map[string]int{"unreadCount": count})
}
