// Package ws is an alternate websocket front-end: it adapts websocket
// connections into the same line-oriented connections the TCP transport
// produces, so browser clients share the user and room registries with
// everyone else. It also serves a small status page.
package ws

import (
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/simplechat/relay/chat"
)

const lineBuffer = 32

// Conn adapts a websocket connection to a chat.Conn. One text message is
// one line in either direction.
type Conn struct {
	c *websocket.Conn

	lines chan string
	done  chan struct{}

	wmu       sync.Mutex
	closeOnce sync.Once
}

// NewConn wraps an upgraded websocket connection and starts its reader.
func NewConn(c *websocket.Conn) *Conn {
	conn := &Conn{
		c:     c,
		lines: make(chan string, lineBuffer),
		done:  make(chan struct{}),
	}
	go conn.readLoop()
	return conn
}

func (c *Conn) readLoop() {
	defer close(c.lines)

	for {
		kind, data, err := c.c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Printf("Read from %s ended: %v", c.c.RemoteAddr(), err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		line := strings.TrimRight(string(data), "\r\n")
		select {
		case c.lines <- line:
		case <-c.done:
			return
		}
	}
}

// ReadLine returns the next message without blocking, failing with
// chat.ErrWouldBlock when none is ready and chat.ErrClosed once the peer
// has disconnected.
func (c *Conn) ReadLine() (string, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", chat.ErrClosed
		}
		return line, nil
	default:
		return "", chat.ErrWouldBlock
	}
}

// WriteLine sends one line as a single text message.
func (c *Conn) WriteLine(s string) error {
	return c.write(s)
}

// WriteString sends a prompt. Websocket messages are already framed, so
// prompts ride as their own message.
func (c *Conn) WriteString(s string) error {
	return c.write(s)
}

func (c *Conn) write(s string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.c.WriteMessage(websocket.TextMessage, []byte(s))
}

// Close severs the connection and releases the reader.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.c.Close()
	})
	return err
}
