package relay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/simplechat/relay/chat"
	"github.com/simplechat/relay/pubsub"
)

type mockConn struct {
	mu      sync.Mutex
	written []string
	closed  bool

	input chan string
}

func newMockConn() *mockConn {
	return &mockConn{
		input: make(chan string, 16),
	}
}

func (c *mockConn) push(line string) {
	c.input <- line
}

func (c *mockConn) ReadLine() (string, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return "", chat.ErrClosed
	}

	select {
	case line := <-c.input:
		return line, nil
	default:
		return "", chat.ErrWouldBlock
	}
}

func (c *mockConn) WriteLine(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write to severed connection")
	}
	c.written = append(c.written, s)
	return nil
}

func (c *mockConn) WriteString(s string) error {
	return nil
}

func (c *mockConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *mockConn) received(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range c.written {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// login pushes a name and waits until the handshake accepts it.
func login(t *testing.T, ctx context.Context, host *Host, name string) *mockConn {
	t.Helper()
	conn := newMockConn()
	go host.Connect(ctx, conn)
	conn.push(name)
	waitFor(t, name+" to be registered", func() bool {
		_, ok := host.Hub().Users.Get(name)
		return ok
	})
	return conn
}

func TestHandshakeValidation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := NewHost(pubsub.NewMemoryBroker())
	defer host.Close()

	alice := login(t, ctx, host, "alice")
	if !alice.received("Welcome, alice!") {
		t.Errorf("Got: %v", alice.written)
	}

	// Second connection walks through every rejection before settling.
	bob := newMockConn()
	go host.Connect(ctx, bob)

	bob.push("_nope")
	waitFor(t, "invalid name rejection", func() bool {
		return bob.received("Invalid username.")
	})

	bob.push("alice")
	waitFor(t, "taken name rejection", func() bool {
		return bob.received("Username already taken.")
	})

	bob.push("bob")
	waitFor(t, "bob to be registered", func() bool {
		_, ok := host.Hub().Users.Get("bob")
		return ok
	})
	if !bob.received("Welcome, bob!") {
		t.Errorf("Got: %v", bob.written)
	}
	if !bob.received("Available commands:") {
		t.Errorf("help listing missing, got: %v", bob.written)
	}

	if got := host.Hub().Users.Len(); got != 2 {
		t.Errorf("Got: %d users; Expected: 2", got)
	}
}

func TestDispatcherRoutesInput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := NewHost(pubsub.NewMemoryBroker())
	defer host.Close()

	conns := make(chan chat.Conn)
	go host.Serve(ctx, conns)

	alice := newMockConn()
	bob := newMockConn()
	conns <- alice
	conns <- bob
	alice.push("alice")
	bob.push("bob")
	waitFor(t, "both logins", func() bool {
		return host.Hub().Users.Len() == 2
	})

	alice.push("/join general")
	bob.push("/join general")
	waitFor(t, "both to join", func() bool {
		r, ok := host.Hub().Rooms.Get("general")
		return ok && r.Len() == 2
	})

	alice.push("hello")
	waitFor(t, "bob to receive the broadcast", func() bool {
		return bob.received("alice: hello")
	})
	if alice.received("alice: hello") {
		t.Error("sender received its own broadcast")
	}
}

func TestClosedConnIsImplicitQuit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := NewHost(pubsub.NewMemoryBroker())
	defer host.Close()

	conns := make(chan chat.Conn)
	go host.Serve(ctx, conns)

	alice := newMockConn()
	bob := newMockConn()
	conns <- alice
	conns <- bob
	alice.push("alice")
	bob.push("bob")
	waitFor(t, "both logins", func() bool {
		return host.Hub().Users.Len() == 2
	})

	alice.push("/join general")
	bob.push("/join general")
	waitFor(t, "both to join", func() bool {
		r, ok := host.Hub().Rooms.Get("general")
		return ok && r.Len() == 2
	})

	// Peer vanishes without /quit.
	alice.Close()

	waitFor(t, "alice to be cleaned up", func() bool {
		_, ok := host.Hub().Users.Get("alice")
		return !ok
	})
	r, _ := host.Hub().Rooms.Get("general")
	waitFor(t, "membership to drop", func() bool {
		return r.Len() == 1
	})
	waitFor(t, "bob to see the left notice", func() bool {
		return bob.received("alice left.")
	})
}

func TestOversizedInputRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := NewHost(pubsub.NewMemoryBroker())
	defer host.Close()

	conns := make(chan chat.Conn)
	go host.Serve(ctx, conns)

	alice := newMockConn()
	conns <- alice
	alice.push("alice")
	waitFor(t, "login", func() bool {
		return host.Hub().Users.Len() == 1
	})

	alice.push(strings.Repeat("x", maxInputLength+1))
	waitFor(t, "rejection notice", func() bool {
		return alice.received("Message rejected: Input too long.")
	})
}
