package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/config"
	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/services"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

type sentAlert struct {
	recipient primitive.ObjectID
	role      string
	kind      string
	title     string
}

type fakeAlerts struct {
	mu         sync.Mutex
	notified   []sentAlert
	admins     []string
	signals    []string
	broadcasts []string
	emails     int
}

func (f *fakeAlerts) Notify(_ context.Context, recipientID primitive.ObjectID, role, kind, title, _ string, _ map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, sentAlert{recipient: recipientID, role: role, kind: kind, title: title})
}

func (f *fakeAlerts) NotifyAdmins(_ context.Context, kind, _, _ string, _ map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins = append(f.admins, kind)
}

func (f *fakeAlerts) Email(context.Context, string, primitive.ObjectID, string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails++
}

func (f *fakeAlerts) Signal(_ primitive.ObjectID, event string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, event)
}

func (f *fakeAlerts) Broadcast(event string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, event)
}

// call describes one request against a handler.
type call struct {
	method string
	target string
	body   string
	names  []string
	values []string
	userID primitive.ObjectID
	role   string
}

func serve(t *testing.T, handler echo.HandlerFunc, in call) (*httptest.ResponseRecorder, models.Response) {
	t.Helper()
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}

	method := in.method
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, in.target, strings.NewReader(in.body))
	if in.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames(in.names...)
	c.SetParamValues(in.values...)
	if !in.userID.IsZero() {
		c.Set("userId", in.userID.Hex())
		c.Set("role", in.role)
	}

	require.NoError(t, handler(c))

	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{repositories.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load order: %w", repositories.ErrNotFound), http.StatusNotFound},
		{repositories.ErrConflict, http.StatusConflict},
		{repositories.ErrInsufficientStock, http.StatusConflict},
		{repositories.ErrDuplicate, http.StatusConflict},
		{services.ErrInvalidTransition, http.StatusConflict},
		{fmt.Errorf("cancel: %w", services.ErrInvalidTransition), http.StatusConflict},
		{services.ErrEmptyCart, http.StatusBadRequest},
		{services.ErrInvalidQRCode, http.StatusBadRequest},
		{repositories.ErrUnknownRole, http.StatusBadRequest},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrRiderNotReady, http.StatusForbidden},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("socket closed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	handler := func(c echo.Context) error {
		return fail(c, testLogger(), errors.New("connection reset by peer"), "Failed to load")
	}
	rec, resp := serve(t, handler, call{target: "/"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to load", resp.Message)

	handler = func(c echo.Context) error {
		return fail(c, testLogger(), repositories.ErrInsufficientStock, "Failed to load")
	}
	rec, resp = serve(t, handler, call{target: "/"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, repositories.ErrInsufficientStock.Error(), resp.Message)
}

func TestBind(t *testing.T) {
	handler := func(c echo.Context) error {
		var req models.AddToCartRequest
		if err := bind(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
		return respond(c, http.StatusOK, "ok", req)
	}

	rec, resp := serve(t, handler, call{method: http.MethodPost, target: "/", body: "{not json"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errInvalidBody.Error(), resp.Message)

	rec, resp = serve(t, handler, call{method: http.MethodPost, target: "/", body: `{"productId":"x","quantity":0}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Message, "Quantity")

	rec, _ = serve(t, handler, call{method: http.MethodPost, target: "/", body: `{"productId":"x","quantity":2}`})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestViewCart(t *testing.T) {
	cart := &models.Cart{Items: []models.CartItem{
		{Name: "Tomatoes", Price: 1.15, Quantity: 3},
		{Name: "Onions", Price: 0.5, Quantity: 4},
	}}
	view := viewCart(cart)

	require.Len(t, view.Items, 2)
	assert.Equal(t, 3.45, view.Items[0].LineTotal)
	assert.Equal(t, 2.0, view.Items[1].LineTotal)
	assert.Equal(t, 7, view.ItemCount)
	assert.Equal(t, 5.45, view.Total)

	empty := viewCart(&models.Cart{})
	assert.NotNil(t, empty.Items)
	assert.Zero(t, empty.Total)
}

func TestAccountFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, accountFilter(models.RoleUser, "", ""))
	assert.Equal(t, bson.M{"approvalStatus": models.ApprovalPending}, accountFilter(models.RoleSeller, "pending", ""))
	assert.Equal(t, bson.M{}, accountFilter(models.RoleUser, "pending", ""))
	assert.Equal(t, bson.M{"isActive": false}, accountFilter(models.RoleRider, "inactive", ""))

	f := accountFilter(models.RoleSeller, "", "a.b")
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	assert.Len(t, or, 3)
	assert.Equal(t, primitive.Regex{Pattern: `a\.b`, Options: "i"}, or[0].(bson.M)["fullName"])

	f = accountFilter(models.RoleUser, "", "ann")
	assert.Len(t, f["$or"].(bson.A), 2)
}

func TestHandlersRequireAuthentication(t *testing.T) {
	chats := NewChatController(nil, nil, &fakeAlerts{})
	notifications := NewNotificationController(nil, nil)
	payouts := NewPayoutController(nil, nil, &fakeAlerts{})

	for name, h := range map[string]echo.HandlerFunc{
		"inbox":         chats.Inbox,
		"notifications": notifications.List,
		"payouts":       payouts.SellerPayouts,
	} {
		rec, _ := serve(t, h, call{target: "/"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestRegisterValidation(t *testing.T) {
	ac := NewAuthController(nil, nil, nil, nil, nil, &fakeAlerts{}, config.AppConfig{})

	tests := []struct {
		name string
		role string
		body string
		msg  string
	}{
		{"unknown role", "admin", `{}`, "Unknown role"},
		{"short password", "user", `{"email":"a@b.co","password":"short","fullName":"A"}`, "Password"},
		{"seller without farm", "seller", `{"email":"a@b.co","password":"longenough","fullName":"A"}`, "Farm name is required"},
		{"rider without phone", "rider", `{"email":"a@b.co","password":"longenough","fullName":"A"}`, "hone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := serve(t, ac.Register, call{
				method: http.MethodPost,
				target: "/api/auth/register/" + tt.role,
				body:   tt.body,
				names:  []string{"role"},
				values: []string{tt.role},
			})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, resp.Message, tt.msg)
		})
	}
}

func TestStartChatWithSelf(t *testing.T) {
	cc := NewChatController(nil, nil, &fakeAlerts{})
	me := primitive.NewObjectID()

	rec, resp := serve(t, cc.StartChat, call{
		method: http.MethodPost,
		target: "/api/chats",
		body:   fmt.Sprintf(`{"participantId":%q,"participantRole":"seller"}`, me.Hex()),
		userID: me,
		role:   models.RoleUser,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot start a chat with yourself", resp.Message)
}

func TestAnnouncementWindow(t *testing.T) {
	ac := NewAnnouncementController(nil, &fakeAlerts{})
	rec, resp := serve(t, ac.Create, call{
		method: http.MethodPost,
		target: "/api/admin/announcements",
		body:   `{"title":"Mango season","body":"Fresh mangoes","startDate":"2026-05-01T00:00:00Z","endDate":"2026-04-01T00:00:00Z"}`,
		userID: primitive.NewObjectID(),
		role:   models.RoleAdmin,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errBadWindow.Error(), resp.Message)
}

func TestQueryValidation(t *testing.T) {
	admin := NewAdminController(nil, nil, nil, nil, nil, &fakeAlerts{})
	damage := NewDamageController(nil, nil, &fakeAlerts{})
	payouts := NewPayoutController(nil, nil, &fakeAlerts{})
	profile := NewProfileController(nil, nil, nil, nil)
	id := primitive.NewObjectID()

	tests := []struct {
		name    string
		handler echo.HandlerFunc
		in      call
	}{
		{"top products limit", admin.TopProducts, call{target: "/?limit=zero"}},
		{"sales report range", admin.SalesReport, call{target: "/?from=2026-03-10&to=2026-03-01"}},
		{"admin role path", admin.SetActive, call{method: http.MethodPatch, target: "/", body: `{"active":false}`, names: []string{"role", "id"}, values: []string{"admin", id.Hex()}}},
		{"reject without reason", admin.Reject(models.RoleSeller), call{method: http.MethodPatch, target: "/", body: `{}`, names: []string{"id"}, values: []string{id.Hex()}}},
		{"resolved flag", damage.AdminList, call{target: "/?resolved=maybe"}},
		{"payout dates", payouts.SellerPayouts, call{target: "/?from=01-02-2026", userID: id, role: models.RoleSeller}},
		{"empty profile update", profile.UpdateSellerProfile, call{method: http.MethodPut, target: "/", body: `{"fullName":"  "}`, userID: id, role: models.RoleSeller}},
		{"bad payout id", payouts.PaySeller, call{method: http.MethodPatch, target: "/", names: []string{"id"}, values: []string{"nope"}, userID: id, role: models.RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := serve(t, tt.handler, tt.in)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
