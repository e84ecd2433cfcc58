package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
)

type ChatRepository struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{
		chats:    db.Collection(config.ChatsCollection),
		messages: db.Collection(config.MessagesCollection),
	}
}

// FindBetween returns the conversation that has exactly these two participants.
func (r *ChatRepository) FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := r.chats.FindOne(ctx, bson.M{
		"participants": bson.M{"$size": 2},
		"$and": bson.A{
			bson.M{"participants.id": a},
			bson.M{"participants.id": b},
		},
	}).Decode(&chat)
	if err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	if chat.Unread == nil {
		chat.Unread = map[string]int{}
	}
	now := time.Now()
	chat.CreatedAt = now
	chat.LastMessageAt = now
	_, err := r.chats.InsertOne(ctx, chat)
	return translate(err)
}

func (r *ChatRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat); err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

// ListFor returns the inbox of a participant, newest activity first.
func (r *ChatRepository) ListFor(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "lastMessageAt", Value: -1}})
	cursor, err := r.chats.Find(ctx, bson.M{"participants.id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	chats := []models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// AddMessage stores msg and bumps the unread counter of every other participant.
func (r *ChatRepository) AddMessage(ctx context.Context, chat *models.Chat, msg *models.Message) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	msg.ChatID = chat.ID
	msg.ReadBy = []primitive.ObjectID{msg.SenderID}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return err
	}

	inc := bson.M{}
	for _, p := range chat.Participants {
		if p.ID != msg.SenderID {
			inc["unread."+p.ID.Hex()] = 1
		}
	}
	update := bson.M{"$set": bson.M{"lastMessage": msg.Content, "lastMessageAt": msg.CreatedAt}}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	_, err := r.chats.UpdateOne(ctx, bson.M{"_id": chat.ID}, update)
	return err
}

// Messages returns a page of history, oldest first within the page.
func (r *ChatRepository) Messages(ctx context.Context, chatID primitive.ObjectID, page, limit int64) ([]models.Message, int64, error) {
	filter := bson.M{"chatId": chatID}
	total, err := r.messages.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip(page, limit)).
		SetLimit(limit)
	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}

// MarkRead clears the participant's unread counter and read flags.
func (r *ChatRepository) MarkRead(ctx context.Context, chatID, userID primitive.ObjectID) error {
	if _, err := r.chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"unread." + userID.Hex(): 0}},
	); err != nil {
		return err
	}
	_, err := r.messages.UpdateMany(ctx,
		bson.M{"chatId": chatID, "readBy": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"readBy": userID}},
	)
	return err
}

// TotalUnread sums the participant's unread counters across chats.
func (r *ChatRepository) TotalUnread(ctx context.Context, userID primitive.ObjectID) (int, error) {
	chats, err := r.ListFor(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range chats {
		total += chats[i].UnreadFor(userID)
	}
	return total, nil
}
