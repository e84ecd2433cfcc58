package config

import (
	"context"
	"encoding/base64"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

var FirebaseApp *firebase.App

// InitFirebase initializes the Firebase Admin SDK used for rider push
// notifications. Push is disabled when no credentials are configured.
func InitFirebase() {
	ctx := context.Background()

	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	var opt option.ClientOption

	if base64Creds := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); base64Creds != "" {
		log.Printf("Using Firebase credentials from base64 environment variable")
		decoded, err := base64.StdEncoding.DecodeString(base64Creds)
		if err != nil {
			log.Printf("Warning: error decoding Firebase credentials, push disabled: %v", err)
			return
		}
		opt = option.WithCredentialsJSON(decoded)
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		if _, err := os.Stat(credFile); err != nil {
			log.Printf("Warning: Firebase credentials file %s not readable, push disabled", credFile)
			return
		}
		log.Printf("Using Firebase credentials file: %s", credFile)
		opt = option.WithCredentialsFile(credFile)
	} else {
		log.Println("Warning: Firebase credentials not configured, push notifications disabled")
		return
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		log.Printf("Warning: error initializing firebase app: %v", err)
		return
	}
	FirebaseApp = app
}
