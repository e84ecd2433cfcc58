// utils/otp.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPTTL is how long an emailed code stays valid.
const OTPTTL = 10 * time.Minute

// MaxOTPAttempts per account per hour.
const MaxOTPAttempts = 5

// GenerateSecureOTP returns a 6 digit numeric code from crypto/rand.
func GenerateSecureOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
