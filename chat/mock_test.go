package chat

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// MockConn is an in-memory Conn for testing. Input lines are queued with
// Push; written lines are captured for assertions.
type MockConn struct {
	mu       sync.Mutex
	written  []string
	raw      []string
	closed   bool
	failSend bool

	input chan string
}

func NewMockConn() *MockConn {
	return &MockConn{
		input: make(chan string, 16),
	}
}

// Push queues an input line for ReadLine.
func (c *MockConn) Push(line string) {
	c.input <- line
}

func (c *MockConn) ReadLine() (string, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return "", ErrClosed
	}

	select {
	case line := <-c.input:
		return line, nil
	default:
		return "", ErrWouldBlock
	}
}

func (c *MockConn) WriteLine(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.failSend {
		return errors.New("write to severed connection")
	}
	c.written = append(c.written, s)
	return nil
}

func (c *MockConn) WriteString(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raw = append(c.raw, s)
	return nil
}

func (c *MockConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// FailSends makes every subsequent WriteLine fail, simulating a severed
// connection.
func (c *MockConn) FailSends() {
	c.mu.Lock()
	c.failSend = true
	c.mu.Unlock()
}

// Written returns a snapshot of all lines written so far.
func (c *MockConn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.written...)
}

// Received reports whether any written line contains substr.
func (c *MockConn) Received(substr string) bool {
	for _, line := range c.Written() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// waitFor polls cond until it holds or the deadline passes. Room delivery
// is asynchronous, so assertions about fan-out need to wait.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
