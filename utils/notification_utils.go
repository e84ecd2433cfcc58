package utils

import (
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// PushChannelID is the Android notification channel of the rider app.
const PushChannelID = "agrimarket_fcm_channel"

// PushData flattens notification data into the string map FCM expects.
func PushData(data map[string]interface{}) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// BuildPushMessage prepares a high priority FCM message for one device.
func BuildPushMessage(token, title, body string, data map[string]interface{}) *messaging.Message {
	badge := 1
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: PushData(data),
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: PushChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
					Badge: &badge,
				},
			},
		},
	}
}
