package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig carries the settings the handlers and background workers read.
type AppConfig struct {
	Port             string
	Env              string
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	CookieSecure     bool
	TaxRate          float64
	DeliveryFee      float64
	RiderShare       float64
	AutoAdvance      bool
	AutoAdvanceDelay time.Duration
	UploadDir        string
	AllowedOrigins   []string
}

// Load reads AppConfig from the environment.
func Load() AppConfig {
	return AppConfig{
		Port:             GetEnv("PORT", "8080"),
		Env:              GetEnv("ENV", "production"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AccessTokenTTL:   GetDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  GetDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CookieSecure:     GetBool("COOKIE_SECURE", true),
		TaxRate:          GetFloat("TAX_RATE", 0.05),
		DeliveryFee:      GetFloat("DELIVERY_FEE", 50),
		RiderShare:       GetFloat("RIDER_SHARE", 0.8),
		AutoAdvance:      GetBool("ORDER_AUTO_ADVANCE", false),
		AutoAdvanceDelay: GetDuration("ORDER_AUTO_ADVANCE_DELAY", 30*time.Second),
		UploadDir:        GetEnv("UPLOAD_DIR", "uploads"),
		AllowedOrigins:   GetList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}
}

// IsProduction reports whether the server runs outside development.
func (c AppConfig) IsProduction() bool {
	return c.Env != "development" && c.Env != "dev"
}

func GetEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func GetBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// GetDuration reads a positive duration; zero and negative values fall back.
func GetDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// GetList splits a comma separated variable, dropping empty entries.
func GetList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
