// utils/validation.go
package utils

import (
	"errors"
	"html"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// MaxImageSize is the upload limit for product and profile images.
const MaxImageSize = 5 * 1024 * 1024

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneStrip   = regexp.MustCompile(`[^\d+]`)
	scriptRegex  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	allowedImage = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
	}
)

// IsValidImageFile checks if the uploaded file is a valid image
func IsValidImageFile(file *multipart.FileHeader) bool {
	return ValidateImage(file.Filename, file.Size) == nil
}

// ValidateImage validates file size and extension
func ValidateImage(filename string, size int64) error {
	if size > MaxImageSize {
		return errors.New("file too large")
	}
	if !allowedImage[strings.ToLower(filepath.Ext(filename))] {
		return errors.New("invalid file type")
	}
	return nil
}

// SanitizeInput sanitizes user input to prevent XSS and injection attacks
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	// Script blocks go before escaping, afterwards they no longer match.
	input = scriptRegex.ReplaceAllString(input, "")
	input = html.EscapeString(input)

	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}

// SanitizeEmail sanitizes and validates an email address
func SanitizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", errors.New("invalid email format")
	}
	return email, nil
}

// SanitizePhone sanitizes and validates a phone number. An empty phone is
// accepted since it is optional for buyers.
func SanitizePhone(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", nil
	}

	phone = phoneStrip.ReplaceAllString(phone, "")
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	if len(phone) < 8 || len(phone) > 16 {
		return "", errors.New("invalid phone number length")
	}

	return phone, nil
}

// SanitizeStringArray sanitizes an array of strings
func SanitizeStringArray(inputs []string) []string {
	sanitized := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if s := SanitizeInput(input); s != "" {
			sanitized = append(sanitized, s)
		}
	}
	return sanitized
}
