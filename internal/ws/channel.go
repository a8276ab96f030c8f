package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WebSocketChannel adapts a gorilla websocket connection to the hub's Channel
// interface. Writes are serialized; gorilla connections allow only one
// concurrent writer.
type WebSocketChannel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWebSocketChannel(conn *websocket.Conn) *WebSocketChannel {
	return &WebSocketChannel{conn: conn}
}

func (c *WebSocketChannel) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *WebSocketChannel) Close() error {
	return c.conn.Close()
}
