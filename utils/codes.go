package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// CodePrefix identifies what a generated code belongs to
type CodePrefix string

const (
	OrderPrefix CodePrefix = "ORD"
)

// GenerateCode generates a code for the given prefix.
// Format: {PREFIX}-{RANDOM} where RANDOM is 6 uppercase alphanumeric characters
// Example: ORD-ABC123
func GenerateCode(prefix CodePrefix) (string, error) {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = strings.ToUpper(randomStr[:6])

	return string(prefix) + "-" + randomStr, nil
}

// GenerateOrderNumber generates a human readable order reference
func GenerateOrderNumber() (string, error) {
	return GenerateCode(OrderPrefix)
}
