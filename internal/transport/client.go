package transport

import (
	"sync"

	"github.com/gorilla/websocket"
)

// client is one websocket connection with its outbound queue.
// Only the writer goroutine writes to conn.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
	closeCode int
	closeText string
}

func newClient(id string, conn *websocket.Conn, queueSize int) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

// enqueue offers a frame without blocking and reports whether it was taken
func (c *client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// shutdown asks the writer to send a close frame and release the connection
func (c *client) shutdown(code int, text string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeText = text
		close(c.done)
	})
}
