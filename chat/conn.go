package chat

import "errors"

// The error returned by ReadLine when no complete line is ready yet.
var ErrWouldBlock = errors.New("no data ready")

// The error returned by ReadLine once the peer has disconnected.
var ErrClosed = errors.New("connection closed")

// ServerPrefix starts every server-originated line.
const ServerPrefix = "<= "

// Prompt terminates every input prompt.
const Prompt = "=> "

// SystemID is the reserved sender identity for server notices published to
// a room. Usernames must start with an alphanumeric rune, so it can never
// collide with a real user.
const SystemID = "*system*"

// Conn is a line-oriented connection to one client. Implementations live in
// the transport packages; the core only ever reads and writes lines.
type Conn interface {
	// ReadLine returns the next complete input line without blocking.
	// It fails with ErrWouldBlock when no line is ready and with
	// ErrClosed once the peer has disconnected.
	ReadLine() (string, error)

	// WriteLine sends one line, appending the line terminator.
	WriteLine(s string) error

	// WriteString sends raw text without a terminator, used for prompts.
	WriteString(s string) error

	Close() error
}
