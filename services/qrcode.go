package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
)

const (
	QRPurposePickup = "pickup"
	QRImageSize     = 300
	// pickup codes outlive any realistic packing delay
	PickupCodeTTL = 72 * time.Hour
)

// NewPickupCode issues a one-time pickup token for an order.
func NewPickupCode(orderID primitive.ObjectID, now time.Time) *models.QrCode {
	return &models.QrCode{
		ID:        primitive.NewObjectID(),
		OrderID:   orderID,
		Token:     uuid.New().String(),
		Purpose:   QRPurposePickup,
		ExpiresAt: now.Add(PickupCodeTTL),
		CreatedAt: now,
	}
}

// PickupPayload is the text encoded in a pickup QR image.
func PickupPayload(code *models.QrCode) string {
	return fmt.Sprintf("agrimarket://pickup/%s/%s", code.OrderID.Hex(), code.Token)
}

// QRDataURL renders content as a PNG QR code data URL.
func QRDataURL(content string, size int) (string, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return "", fmt.Errorf("failed to scale QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return "", fmt.Errorf("failed to encode QR code as PNG: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
