package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades an authenticated request and registers the
// connection with the hub.
func HandleWebSocket(c echo.Context, hub *Hub, userID primitive.ObjectID, role string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(userID, role, conn)
	client.send <- Event{
		Type:    EventConnected,
		Message: "WebSocket connection established",
		UserID:  userID.Hex(),
	}
	if !hub.add(client) {
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump(hub)
	return nil
}

// readPump only watches for disconnects and pongs; clients do not send data.
func (cl *Client) readPump(hub *Hub) {
	defer func() {
		hub.remove(cl)
		cl.Conn.Close()
	}()

	cl.Conn.SetReadLimit(maxMessage)
	cl.Conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.Conn.SetPongHandler(func(string) error {
		return cl.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on the connection.
func (cl *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-cl.send:
			cl.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.Conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			cl.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
