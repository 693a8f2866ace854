package tcpd

import (
	"context"
	"net"

	"github.com/simplechat/relay/chat"
)

// Listener accepts TCP connections for the chat relay.
type Listener struct {
	net.Listener
}

// Listen opens a TCP listening socket.
func Listen(laddr string) (*Listener, error) {
	socket, err := net.Listen("tcp", laddr)
	if err != nil {
		return nil, err
	}
	return &Listener{Listener: socket}, nil
}

// ServeConns accepts incoming connections and yields them as framed line
// connections. The channel closes when the listener fails or ctx is done.
func (l *Listener) ServeConns(ctx context.Context) <-chan chat.Conn {
	ch := make(chan chat.Conn)

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	go func() {
		defer close(ch)

		for {
			conn, err := l.Accept()
			if err != nil {
				logger.Printf("Failed to accept connection: %v", err)
				return
			}
			logger.Printf("Accepted connection from %s", conn.RemoteAddr())

			select {
			case ch <- NewConn(conn):
			case <-ctx.Done():
				conn.Close()
				return
			}
		}
	}()

	return ch
}
