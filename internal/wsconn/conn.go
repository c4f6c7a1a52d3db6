package wsconn

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SendQueueSize bounds the number of outbound frames buffered per
// connection before WriteMessage drops the connection (spec.md §5:
// "on overflow the connection is dropped").
const SendQueueSize = 64

// WriteTimeout bounds a single frame write.
const WriteTimeout = 10 * time.Second

// ErrClosed is returned by WriteMessage once the connection's writer
// goroutine has exited.
var ErrClosed = errors.New("wsconn: connection closed")

// Conn serializes writes to an underlying websocket.Conn through a
// single writer goroutine, and exposes a plain ReadMessage/WriteMessage
// pair so callers never touch gorilla/websocket directly (satisfies
// olaf/internal/domain.Conn).
type Conn struct {
	ws *websocket.Conn

	writeCh chan []byte
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// New wraps ws and starts its writer goroutine.
func New(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:      ws,
		writeCh: make(chan []byte, SendQueueSize),
		done:    make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *Conn) writeLoop() {
	for {
		select {
		case msg, ok := <-c.writeCh:
			if !ok {
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// ReadMessage blocks for the next text frame.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// WriteMessage enqueues b for the writer goroutine. It never blocks:
// if the connection is already closed, or the send queue is full (a
// reader on the other end isn't keeping up), it closes the connection
// and returns ErrClosed rather than stalling the caller (spec.md §5).
func (c *Conn) WriteMessage(b []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.writeCh <- b:
		return nil
	default:
		c.Close()
		return ErrClosed
	}
}

// Close shuts down the writer goroutine and the underlying socket. It
// is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the peer address string for logging.
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}
