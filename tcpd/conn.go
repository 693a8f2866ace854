// Package tcpd accepts raw TCP connections and frames them into the
// line-oriented, non-blocking connections the chat core consumes. It knows
// nothing about chat semantics.
package tcpd

import (
	"bufio"
	"net"
	"strings"
	"sync"

	"github.com/simplechat/relay/chat"
)

// Complete input lines buffered per connection before the socket
// backpressures.
const lineBuffer = 32

// Longest raw line the framer tolerates. The chat layer enforces its own,
// much smaller limit with a rejection notice; this only bounds memory per
// connection, and a line beyond it severs the connection.
const maxLineBytes = 256 * 1024

// Conn wraps a TCP connection as a chat.Conn. A reader goroutine frames
// incoming bytes into lines so ReadLine never blocks.
type Conn struct {
	c net.Conn

	lines chan string
	done  chan struct{}

	wmu       sync.Mutex
	closeOnce sync.Once
}

// NewConn frames an accepted network connection and starts its reader.
func NewConn(c net.Conn) *Conn {
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

	scanner := bufio.NewScanner(c.c)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		select {
		case c.lines <- line:
		case <-c.done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Printf("Read from %s ended: %v", c.c.RemoteAddr(), err)
	}
}

// ReadLine returns the next complete line without blocking. It fails with
// chat.ErrWouldBlock when no line is ready and chat.ErrClosed once the peer
// has disconnected and the buffer is drained.
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

// WriteLine sends one line, appending the terminator.
func (c *Conn) WriteLine(s string) error {
	return c.WriteString(s + "\n")
}

// WriteString sends raw text, used for prompts.
func (c *Conn) WriteString(s string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.c.Write([]byte(s))
	return err
}

// RemoteAddr of the underlying connection.
func (c *Conn) RemoteAddr() net.Addr {
	return c.c.RemoteAddr()
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
