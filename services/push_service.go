package services

import (
	"context"
	"log"

	firebase "firebase.google.com/go/v4"

	"github.com/agrimarket/agrimarket_backend/utils"
)

// PushSender delivers device push notifications.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]interface{}) error
}

// NewPushService uses Firebase Cloud Messaging when the app is initialized.
func NewPushService(app *firebase.App) PushSender {
	if app == nil {
		return noopPush{}
	}
	return &FirebasePush{app: app}
}

type FirebasePush struct {
	app *firebase.App
}

func (p *FirebasePush) Send(ctx context.Context, token, title, body string, data map[string]interface{}) error {
	client, err := p.app.Messaging(ctx)
	if err != nil {
		log.Printf("Error getting messaging client: %v", err)
		return err
	}
	response, err := client.Send(ctx, utils.BuildPushMessage(token, title, body, data))
	if err != nil {
		log.Printf("Error sending FCM notification: %v", err)
		return err
	}
	log.Printf("Push notification sent: %s", response)
	return nil
}

type noopPush struct{}

func (noopPush) Send(context.Context, string, string, string, map[string]interface{}) error {
	return nil
}
