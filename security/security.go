package security

import (
	"mime"
	"net/url"
	"strings"
)

var validTypes = map[string]bool{
	"application/json":                  true,
	"application/x-www-form-urlencoded": true,
	"multipart/form-data":               true,
}

var sensitiveKeys = []string{"password", "token", "code", "otp", "secret"}

// ValidateContentType reports whether a request body type is accepted. Media
// type parameters such as charset or boundary are ignored.
func ValidateContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return validTypes[mediaType]
}

// IsSensitiveKey reports whether a field name may carry a credential.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// RedactValues flattens query values for storage, masking sensitive keys.
func RedactValues(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for key := range values {
		if IsSensitiveKey(key) {
			out[key] = "[REDACTED]"
			continue
		}
		out[key] = values.Get(key)
	}
	return out
}
