package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/repositories"
	"github.com/agrimarket/agrimarket_backend/websocket"
)

func TestQRDataURL(t *testing.T) {
	url, err := QRDataURL("agrimarket://pickup/abc/def", QRImageSize)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, QRImageSize, img.Bounds().Dx())
}

func TestNewPickupCode(t *testing.T) {
	orderID := primitive.NewObjectID()
	now := time.Now()
	a := NewPickupCode(orderID, now)
	b := NewPickupCode(orderID, now)

	assert.Equal(t, QRPurposePickup, a.Purpose)
	assert.Equal(t, now.Add(PickupCodeTTL), a.ExpiresAt)
	assert.NotEqual(t, a.Token, b.Token)
	assert.Equal(t, "agrimarket://pickup/"+orderID.Hex()+"/"+a.Token, PickupPayload(a))
}

func TestOTPEmail(t *testing.T) {
	subject, body := OTPEmail(models.OTPPurposeReset, "123456")
	assert.Equal(t, "Password Reset Code", subject)
	assert.Contains(t, body, "123456")

	subject, _ = OTPEmail(models.OTPPurposeVerify, "654321")
	assert.Contains(t, subject, "Verify")
}

type fakeDue struct {
	orders []models.Order
}

func (f *fakeDue) DueForAutoAdvance(context.Context, time.Time, int64) ([]models.Order, error) {
	return f.orders, nil
}

type fakeAdvancer struct {
	fail map[string]error
	seen []string
}

func (f *fakeAdvancer) AutoAdvance(_ context.Context, order *models.Order) (*models.Order, error) {
	f.seen = append(f.seen, order.OrderNumber)
	if err := f.fail[order.OrderNumber]; err != nil {
		return nil, err
	}
	return order, nil
}

func TestAutoAdvanceTick(t *testing.T) {
	due := &fakeDue{orders: []models.Order{
		{OrderNumber: "ORD-1", Status: models.OrderStatusPending},
		{OrderNumber: "ORD-2", Status: models.OrderStatusPacking},
		{OrderNumber: "ORD-3", Status: models.OrderStatusInTransit},
	}}
	adv := &fakeAdvancer{fail: map[string]error{
		"ORD-2": repositories.ErrConflict,
		"ORD-3": errors.New("boom"),
	}}
	w := NewAutoAdvanceWorker(due, adv, time.Second)

	assert.Equal(t, 1, w.Tick(context.Background()))
	assert.Equal(t, []string{"ORD-1", "ORD-2", "ORD-3"}, adv.seen)
}

func TestAutoAdvanceRunStops(t *testing.T) {
	w := NewAutoAdvanceWorker(&fakeDue{}, &fakeAdvancer{}, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestAutoAdvanceIntervalFloor(t *testing.T) {
	for _, d := range []time.Duration{0, time.Nanosecond, -time.Minute} {
		w := NewAutoAdvanceWorker(&fakeDue{}, &fakeAdvancer{}, d)
		assert.Equal(t, time.Second, w.interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() {
		NewAutoAdvanceWorker(&fakeDue{}, &fakeAdvancer{}, 0).Run(ctx)
	})
}

type fakePublisher struct {
	sent      []websocket.Event
	broadcast []websocket.Event
	offline   bool
}

func (p *fakePublisher) SendToUser(_ primitive.ObjectID, event websocket.Event) error {
	if p.offline {
		return websocket.ErrNotConnected
	}
	p.sent = append(p.sent, event)
	return nil
}

func (p *fakePublisher) Broadcast(event websocket.Event) {
	p.broadcast = append(p.broadcast, event)
}

func TestNotifierSignals(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(nil, nil, pub, noopPush{}, logMailer{})

	n.Signal(primitive.NewObjectID(), websocket.EventOrderUpdated, "payload")
	n.Broadcast(websocket.EventProductsUpdated, nil)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, websocket.EventOrderUpdated, pub.sent[0].Type)
	assert.Equal(t, "payload", pub.sent[0].Data)
	require.Len(t, pub.broadcast, 1)

	pub.offline = true
	n.Signal(primitive.NewObjectID(), websocket.EventChatMessage, nil)
	assert.Len(t, pub.sent, 1)
}

// recordingAlerts captures what the order flows try to tell people.
type recordingAlerts struct {
	mu      sync.Mutex
	notices []string
	signals []primitive.ObjectID
}

func (r *recordingAlerts) Notify(_ context.Context, _ primitive.ObjectID, role, kind, _, _ string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, role+":"+kind)
}

func (r *recordingAlerts) NotifyAdmins(_ context.Context, kind, _, _ string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, "admins:"+kind)
}

func (r *recordingAlerts) Email(context.Context, string, primitive.ObjectID, string, string) {}

func (r *recordingAlerts) Signal(userID primitive.ObjectID, _ string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, userID)
}

func (r *recordingAlerts) Broadcast(string, interface{}) {}
