package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/controllers"
	"github.com/agrimarket/agrimarket_backend/middleware"
	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/services"
	"github.com/agrimarket/agrimarket_backend/websocket"
)

type discardActivity struct{}

func (discardActivity) Insert(context.Context, *models.ActivityLog) error { return nil }

func setup(t *testing.T) (*echo.Echo, *middleware.TokenIssuer) {
	t.Helper()
	cfg := config.AppConfig{
		JWTSecret:       "routes-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
	issuer := middleware.NewTokenIssuer(cfg, services.NewMemoryTokenStore())

	handlers := Handlers{
		Auth:          controllers.NewAuthController(nil, issuer, nil, nil, nil, nil, cfg),
		Products:      controllers.NewProductController(nil, nil, nil, t.TempDir()),
		Cart:          controllers.NewCartController(nil),
		Orders:        controllers.NewOrderController(nil, nil),
		Payouts:       controllers.NewPayoutController(nil, nil, nil),
		Chats:         controllers.NewChatController(nil, nil, nil),
		Notifications: controllers.NewNotificationController(nil, nil),
		Announcements: controllers.NewAnnouncementController(nil, nil),
		Damage:        controllers.NewDamageController(nil, nil, nil),
		Admin:         controllers.NewAdminController(nil, nil, nil, nil, nil, nil),
		Profile:       controllers.NewProfileController(nil, nil, nil, nil),
	}

	e := echo.New()
	SetupRoutes(e, nil, handlers, issuer, websocket.NewHub(), discardActivity{})
	return e, issuer
}

func bearer(t *testing.T, issuer *middleware.TokenIssuer, role string) string {
	t.Helper()
	pair, err := issuer.Issue(context.Background(), primitive.NewObjectID().Hex(), role+"@example.com", role)
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func do(e *echo.Echo, method, target, auth string) int {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRoutesRegistered(t *testing.T) {
	e, _ := setup(t)

	registered := map[string]bool{}
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/register/:role",
		"POST /api/auth/refresh",
		"POST /api/admin/login",
		"GET /api/products",
		"POST /api/checkout",
		"PATCH /api/seller/orders/:id/status",
		"POST /api/rider/orders/:id/pickup",
		"GET /api/orders/:id/qrcode",
		"PATCH /api/admin/rider-payouts/:id/pay",
		"GET /api/chats/unread-count",
		"PATCH /api/notifications/read-all",
		"GET /api/ws",
		"GET /api/admin/reports/top-products",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestHealthRoutes(t *testing.T) {
	e, _ := setup(t)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/", ""))
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health", ""))
}

func TestRoleGates(t *testing.T) {
	e, issuer := setup(t)

	tests := []struct {
		name   string
		method string
		target string
		role   string
		want   int
	}{
		{"cart needs a token", http.MethodGet, "/api/cart", "", http.StatusUnauthorized},
		{"seller cannot use the cart", http.MethodGet, "/api/cart", models.RoleSeller, http.StatusForbidden},
		{"buyer cannot list seller products", http.MethodGet, "/api/seller/products", models.RoleUser, http.StatusForbidden},
		{"rider cannot approve products", http.MethodPatch, "/api/admin/products/" + primitive.NewObjectID().Hex() + "/approve", models.RoleRider, http.StatusForbidden},
		{"seller cannot claim deliveries", http.MethodPost, "/api/rider/orders/" + primitive.NewObjectID().Hex() + "/accept", models.RoleSeller, http.StatusForbidden},
		{"buyer cannot print pickup codes", http.MethodGet, "/api/orders/" + primitive.NewObjectID().Hex() + "/qrcode", models.RoleUser, http.StatusForbidden},
		{"garbage token", http.MethodGet, "/api/notifications", "garbage", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := ""
			switch tt.role {
			case "":
			case "garbage":
				auth = "Bearer not-a-token"
			default:
				auth = bearer(t, issuer, tt.role)
			}
			assert.Equal(t, tt.want, do(e, tt.method, tt.target, auth))
		})
	}
}
