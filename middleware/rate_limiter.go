// middleware/rate_limiter.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/agrimarket/agrimarket_backend/models"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

// RateLimiter keeps one token bucket per client IP and route. An IP that
// exhausts a bucket is blocked for blockDuration.
type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             sync.Mutex
	defaultLimit   endpointLimit
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
	now            func() time.Time
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:            make(map[string]*rate.Limiter),
		blockedIPs:     make(map[string]time.Time),
		defaultLimit:   endpointLimit{limit: rate.Every(100 * time.Millisecond), burst: 20}, // 10 requests per second
		blockDuration:  5 * time.Minute,
		endpointLimits: make(map[string]endpointLimit),
		now:            time.Now,
	}

	// Credential and OTP endpoints are limited hard against brute force.
	strict := endpointLimit{limit: rate.Every(2 * time.Second), burst: 5}
	limiter.endpointLimits["/api/auth/login"] = strict
	limiter.endpointLimits["/api/admin/login"] = strict
	limiter.endpointLimits["/api/auth/verify-email"] = strict
	limiter.endpointLimits["/api/auth/reset-password"] = strict

	limiter.endpointLimits["/api/auth/register/:role"] = endpointLimit{limit: rate.Every(500 * time.Millisecond), burst: 5}
	limiter.endpointLimits["/api/auth/resend-otp"] = endpointLimit{limit: rate.Every(30 * time.Second), burst: 3}
	limiter.endpointLimits["/api/auth/forgot-password"] = endpointLimit{limit: rate.Every(30 * time.Second), burst: 3}

	return limiter
}

// SetEndpointLimit overrides the limit of a route path.
func (r *RateLimiter) SetEndpointLimit(path string, limit rate.Limit, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpointLimits[path] = endpointLimit{limit: limit, burst: burst}
}

// Run drops expired blocks until ctx is cancelled.
func (r *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for ip, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, ip)
			r.resetLocked(ip)
		}
	}
}

// resetLocked forgets every bucket of ip.
func (r *RateLimiter) resetLocked(ip string) {
	prefix := ip + "|"
	for key := range r.ips {
		if strings.HasPrefix(key, prefix) {
			delete(r.ips, key)
		}
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, "/uploads/") {
				return next(c)
			}
			ip := c.RealIP()

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if r.now().Before(blockUntil) {
					r.mu.Unlock()
					return tooManyRequests(c, "IP address blocked due to too many requests", blockUntil)
				}
				delete(r.blockedIPs, ip)
				r.resetLocked(ip)
			}
			r.mu.Unlock()

			path := c.Path()
			if !r.getLimiter(ip, path).Allow() {
				blockUntil := r.now().Add(r.blockDuration)
				r.mu.Lock()
				r.blockedIPs[ip] = blockUntil
				r.mu.Unlock()
				c.Logger().Warnf("rate limit exceeded for %s on %s", ip, path)
				return tooManyRequests(c, "Too many requests", blockUntil)
			}

			return next(c)
		}
	}
}

func (r *RateLimiter) getLimiter(ip, path string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, specific := r.endpointLimits[path]
	key := ip + "|"
	if specific {
		key += path
	} else {
		cfg = r.defaultLimit
	}
	limiter, exists := r.ips[key]
	if !exists {
		limiter = rate.NewLimiter(cfg.limit, cfg.burst)
		r.ips[key] = limiter
	}
	return limiter
}

func tooManyRequests(c echo.Context, message string, retryAfter time.Time) error {
	c.Response().Header().Set("Retry-After", retryAfter.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusTooManyRequests, models.Response{
		Status:  http.StatusTooManyRequests,
		Message: message,
		Data:    map[string]string{"retryAfter": retryAfter.Format(time.RFC3339)},
	})
}
