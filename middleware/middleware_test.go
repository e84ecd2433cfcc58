package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/services"
)

const testUserID = "64b7f0c2a1b2c3d4e5f60718"

func newIssuer() *TokenIssuer {
	return NewTokenIssuer(config.AppConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}, services.NewMemoryTokenStore())
}

func protectedServer(issuer *TokenIssuer, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	chain := append([]echo.MiddlewareFunc{issuer.Middleware()}, extra...)
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentRole(c)+":"+c.Get("userId").(string))
	}, chain...)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareAcceptsAccessToken(t *testing.T) {
	issuer := newIssuer()
	pair, err := issuer.Issue(context.Background(), testUserID, "a@b.co", models.RoleSeller)
	require.NoError(t, err)
	e := protectedServer(issuer)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)
		rec := serve(e, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "seller:"+testUserID, rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: pair.AccessToken})
		assert.Equal(t, http.StatusOK, serve(e, req).Code)
	})

	t.Run("query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me?token="+pair.AccessToken, nil)
		assert.Equal(t, http.StatusOK, serve(e, req).Code)
	})
}

func TestMiddlewareRejects(t *testing.T) {
	issuer := newIssuer()
	pair, err := issuer.Issue(context.Background(), testUserID, "a@b.co", models.RoleUser)
	require.NoError(t, err)
	e := protectedServer(issuer)

	t.Run("missing token", func(t *testing.T) {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh token used as access token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.RefreshToken)
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := NewTokenIssuer(config.AppConfig{JWTSecret: "other", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour}, services.NewMemoryTokenStore())
		forged, err := other.Issue(context.Background(), testUserID, "a@b.co", models.RoleAdmin)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+forged.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		claims, err := issuer.Parse(pair.AccessToken, TokenTypeAccess)
		require.NoError(t, err)
		require.NoError(t, issuer.Revoke(context.Background(), claims, pair.RefreshToken))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

		_, _, err = issuer.Rotate(context.Background(), pair.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestRotateWorksOnce(t *testing.T) {
	issuer := newIssuer()
	ctx := context.Background()
	pair, err := issuer.Issue(ctx, testUserID, "a@b.co", models.RoleRider)
	require.NoError(t, err)

	_, err = issuer.Parse(pair.AccessToken, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	next, claims, err := issuer.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRider, claims.Role)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, _, err = issuer.Rotate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, _, err = issuer.Rotate(ctx, next.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthCookies(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	SetAuthCookies(c, &models.TokenPair{
		AccessToken:      "a",
		RefreshToken:     "r",
		AccessExpiresAt:  time.Now().Add(time.Minute),
		RefreshExpiresAt: time.Now().Add(time.Hour),
	}, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, cookie := range cookies {
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
	}
	assert.Equal(t, AccessCookie, cookies[0].Name)
	assert.Equal(t, RefreshCookie, cookies[1].Name)
}

func TestRequireRole(t *testing.T) {
	issuer := newIssuer()
	e := protectedServer(issuer, RequireRole(models.RoleAdmin, models.RoleSeller))

	for role, want := range map[string]int{
		models.RoleSeller: http.StatusOK,
		models.RoleAdmin:  http.StatusOK,
		models.RoleUser:   http.StatusForbidden,
		models.RoleRider:  http.StatusForbidden,
	} {
		pair, err := issuer.Issue(context.Background(), testUserID, "a@b.co", role)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)
		assert.Equal(t, want, serve(e, req).Code, role)
	}
}

func TestRateLimiterBlocksPerIP(t *testing.T) {
	limiter := NewRateLimiter()
	limiter.SetEndpointLimit("/api/auth/login", rate.Every(time.Hour), 2)

	e := echo.New()
	e.Use(limiter.RateLimit())
	e.POST("/api/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/products", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	login := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		return serve(e, req).Code
	}

	assert.Equal(t, http.StatusOK, login("10.0.0.1"))
	assert.Equal(t, http.StatusOK, login("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("10.0.0.1"))
	assert.Equal(t, http.StatusOK, login("10.0.0.2"))

	// the block covers every route for that ip
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	rec := serve(e, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiterCleanupLiftsBlock(t *testing.T) {
	limiter := NewRateLimiter()
	now := time.Now()
	limiter.now = func() time.Time { return now }
	limiter.blockedIPs["10.0.0.9"] = now.Add(time.Minute)
	limiter.ips["10.0.0.9|/x"] = rate.NewLimiter(1, 1)

	limiter.cleanup()
	assert.Len(t, limiter.blockedIPs, 1)

	now = now.Add(2 * time.Minute)
	limiter.cleanup()
	assert.Empty(t, limiter.blockedIPs)
	assert.Empty(t, limiter.ips)
}

type fakeRecorder struct {
	entries []*models.ActivityLog
	err     error
}

func (f *fakeRecorder) Insert(_ context.Context, entry *models.ActivityLog) error {
	f.entries = append(f.entries, entry)
	return f.err
}

func TestActivityTracker(t *testing.T) {
	recorder := &fakeRecorder{}
	e := echo.New()
	withActor := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("userId", testUserID)
			c.Set("role", models.RoleAdmin)
			return next(c)
		}
	}
	g := e.Group("/api/admin", withActor, ActivityTracker(recorder))
	g.PATCH("/sellers/:id/approve", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	g.PATCH("/sellers/:id/reject", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "reason required")
	})
	g.GET("/sellers", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	serve(e, httptest.NewRequest(http.MethodGet, "/api/admin/sellers", nil))
	serve(e, httptest.NewRequest(http.MethodPatch, "/api/admin/sellers/abc/reject", nil))
	rec := serve(e, httptest.NewRequest(http.MethodPatch, "/api/admin/sellers/abc/approve?token=x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, "PATCH /api/admin/sellers/:id/approve", entry.Action)
	assert.Equal(t, "sellers", entry.EntityType)
	assert.Equal(t, "abc", entry.EntityID)
	assert.Equal(t, models.RoleAdmin, entry.ActorRole)
	assert.Equal(t, testUserID, entry.ActorID)
	details := entry.Details.(map[string]interface{})
	assert.Equal(t, "[REDACTED]", details["query"].(map[string]string)["token"])
}

func TestActivityTrackerKeepsResponseWhenStoreFails(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("db down")}
	e := echo.New()
	e.POST("/api/admin/announcements", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, ActivityTracker(recorder))

	rec := serve(e, httptest.NewRequest(http.MethodPost, "/api/admin/announcements", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, recorder.entries, 1)
}

func TestRequireBodyType(t *testing.T) {
	e := echo.New()
	e.Use(RequireBodyType())
	e.POST("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("hello"))
	req.Header.Set(echo.HeaderContentType, "text/plain")
	assert.Equal(t, http.StatusUnsupportedMediaType, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestSecurityHeadersAndRedirect(t *testing.T) {
	e := echo.New()
	e.Use(HTTPSRedirect("production"), SecurityHeadersWithConfig(SecurityConfig{AllowedDomains: []string{"https://api.example"}}))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "connect-src 'self' ws: wss: https://api.example")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-Proto", "http")
	rec = serve(e, req)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderLocation), "https://"))
}
