package gateway

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout   = 10 * time.Second
	sendBufferSize = 64
)

// SocketConn is one live websocket with a dedicated write pump. All writes go
// through the send channel so the router never touches the socket directly.
type SocketConn struct {
	id   string
	ws   *websocket.Conn
	log  *slog.Logger
	send chan []byte
	once sync.Once
	done chan struct{}
}

func newSocketConn(log *slog.Logger, ws *websocket.Conn) *SocketConn {
	return &SocketConn{
		id:   uuid.NewString(),
		ws:   ws,
		log:  log,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *SocketConn) ID() string {
	return c.id
}

// Deliver queues one frame for the write pump. A peer too slow to drain its
// buffer loses frames rather than blocking the caller.
func (c *SocketConn) Deliver(frame []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection %s is closed", c.id)
	case c.send <- frame:
		return nil
	default:
		return fmt.Errorf("connection %s send buffer full", c.id)
	}
}

func (c *SocketConn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("socket write failed", "connection", c.id, "error", err)
				c.close()
				return
			}
		}
	}
}

func (c *SocketConn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
