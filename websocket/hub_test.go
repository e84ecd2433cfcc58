package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func startServer(t *testing.T, hub *Hub, userID primitive.ObjectID) string {
	t.Helper()
	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(c, hub, userID, "user")
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello Event
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, EventConnected, hello.Type)
	return conn
}

func TestSendToEveryConnectionOfUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	userID := primitive.NewObjectID()
	url := startServer(t, hub, userID)
	first := dial(t, url)
	second := dial(t, url)

	require.Eventually(t, func() bool { return hub.ConnectionCount(userID) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.SendToUser(userID, Event{Type: EventOrderUpdated, Message: "packing"}))
	for _, conn := range []*websocket.Conn{first, second} {
		var got Event
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, EventOrderUpdated, got.Type)
		assert.Equal(t, "packing", got.Message)
	}
}

func TestSendToOfflineUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	err := hub.SendToUser(primitive.NewObjectID(), Event{Type: EventNotification})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestDisconnectUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	userID := primitive.NewObjectID()
	conn := dial(t, startServer(t, hub, userID))
	require.Eventually(t, func() bool { return hub.ConnectionCount(userID) == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ConnectionCount(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	connA := dial(t, startServer(t, hub, a))
	connB := dial(t, startServer(t, hub, b))
	require.Eventually(t, func() bool {
		return hub.ConnectionCount(a) == 1 && hub.ConnectionCount(b) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(Event{Type: EventAnnouncementsUpdated})
	for _, conn := range []*websocket.Conn{connA, connB} {
		var got Event
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, EventAnnouncementsUpdated, got.Type)
	}
}
