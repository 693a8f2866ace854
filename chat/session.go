package chat

import (
	"sync"
	"time"
	"unicode"
)

// Session is the server-side state for one authenticated connected user.
type Session struct {
	name   string
	conn   Conn
	joined time.Time

	mu   sync.Mutex
	room string // current room name, "" while in the lobby

	closeOnce sync.Once
}

// NewSession binds a validated name to a connection.
func NewSession(name string, conn Conn) *Session {
	return &Session{
		name:   name,
		conn:   conn,
		joined: time.Now(),
	}
}

// Name returns the session's unique display name. Immutable once assigned.
func (s *Session) Name() string {
	return s.name
}

// Joined returns when the session authenticated.
func (s *Session) Joined() time.Time {
	return s.joined
}

// Room returns the current room name, or "" while in the lobby.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) setRoom(name string) {
	s.mu.Lock()
	s.room = name
	s.mu.Unlock()
}

// clearRoomIf clears the current room only if it still points at name.
// Used by the delivery loop's prune path, which may race the session's own
// command stream.
func (s *Session) clearRoomIf(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room != name {
		return false
	}
	s.room = ""
	return true
}

// Send writes one server-originated line to the session's connection.
func (s *Session) Send(body string) error {
	return s.conn.WriteLine(ServerPrefix + body)
}

// ReadLine polls the connection for the next available input line.
func (s *Session) ReadLine() (string, error) {
	return s.conn.ReadLine()
}

// Close severs the connection. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

// ValidName reports whether a name is acceptable for login: non-empty and
// starting with an alphanumeric rune.
func ValidName(name string) bool {
	for _, r := range name {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	return false
}
