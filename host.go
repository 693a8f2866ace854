package relay

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/simplechat/relay/chat"
	"github.com/simplechat/relay/pubsub"
)

const maxInputLength int = 1024

// Delay between successive polling passes over all sessions. A pacing
// choice to avoid a tight spin loop, not a correctness requirement.
const pollInterval = 100 * time.Millisecond

// Host is the bridge between transports and the chat module: it runs the
// login handshake for accepted connections and the polling dispatcher that
// feeds authenticated sessions' input to the command interpreter.
type Host struct {
	hub *chat.Hub

	mu   sync.Mutex
	motd string

	pollOnce sync.Once
}

// NewHost creates a Host over a broker.
func NewHost(broker pubsub.Broker) *Host {
	return &Host{
		hub: chat.NewHub(broker),
	}
}

// Hub exposes the shared registries and interpreter, for alternate
// front-ends that produce their own sessions.
func (h *Host) Hub() *chat.Hub {
	return h.hub
}

// SetMotd sets the host's message of the day, shown before the login
// prompt.
func (h *Host) SetMotd(motd string) {
	h.mu.Lock()
	h.motd = motd
	h.mu.Unlock()
}

// Serve consumes accepted connections from a transport, running the login
// handshake for each in its own goroutine. May be called once per
// transport; the shared polling dispatcher is started on the first call.
// Serve returns when the source channel closes or ctx is done.
func (h *Host) Serve(ctx context.Context, conns <-chan chat.Conn) {
	h.pollOnce.Do(func() {
		go h.poll(ctx)
	})

	for {
		select {
		case conn, ok := <-conns:
			if !ok {
				return
			}
			go h.Connect(ctx, conn)
		case <-ctx.Done():
			return
		}
	}
}

// Connect runs the login handshake on a fresh connection and, on success,
// registers the session for polling. Rejected names re-prompt until the
// client gives up or gets one right.
func (h *Host) Connect(ctx context.Context, conn chat.Conn) {
	h.mu.Lock()
	motd := h.motd
	h.mu.Unlock()

	if motd != "" {
		conn.WriteLine(chat.ServerPrefix + motd)
	}
	conn.WriteLine(chat.ServerPrefix + "Welcome. What's your username?")

	for {
		conn.WriteString(chat.Prompt)
		line, err := readLine(ctx, conn)
		if err != nil {
			conn.Close()
			return
		}

		name := chat.SanitizeName(strings.TrimSpace(line))
		if !chat.ValidName(name) {
			conn.WriteLine(chat.ServerPrefix + "Invalid username.")
			continue
		}

		s := chat.NewSession(name, conn)
		if err := h.hub.Users.Add(s); err != nil {
			conn.WriteLine(chat.ServerPrefix + "Username already taken.")
			continue
		}

		logger.Debugf("Joined: %s", name)
		s.Send("Welcome, " + name + "!")
		for _, helpLine := range strings.Split(h.hub.Help(), chat.Newline) {
			s.Send(helpLine)
		}
		return
	}
}

// poll is the dispatcher loop: a full pass over all registered sessions
// every pollInterval, draining whatever input is ready.
func (h *Host) poll(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.pass(ctx)
		}
	}
}

// pass reads every available line from every session. A closed read is an
// implicit /quit; empty reads are silently skipped.
func (h *Host) pass(ctx context.Context) {
	for _, s := range h.hub.Users.List() {
		for {
			line, err := s.ReadLine()
			if err == chat.ErrWouldBlock {
				break
			}
			if err != nil {
				logger.Debugf("Read from %s failed, disconnecting: %s", s.Name(), err)
				h.hub.Quit(ctx, s)
				break
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if len(line) > maxInputLength {
				s.Send("Message rejected: Input too long.")
				continue
			}
			h.hub.HandleInput(ctx, s, line)
		}
	}
}

// Close stops every room's delivery loop.
func (h *Host) Close() error {
	return h.hub.Rooms.Close()
}

// readLine blocks on a non-blocking connection until a full line arrives,
// the peer disconnects, or ctx is done. Used only during the handshake;
// authenticated sessions are read by the polling dispatcher instead.
func readLine(ctx context.Context, conn chat.Conn) (string, error) {
	for {
		line, err := conn.ReadLine()
		if err == chat.ErrWouldBlock {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(pollInterval):
			}
			continue
		}
		return line, err
	}
}
