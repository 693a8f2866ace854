package tcpd

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/simplechat/relay/chat"
)

// readLine polls past ErrWouldBlock so tests can wait for the reader
// goroutine to frame a line.
func readLine(t *testing.T, c *Conn) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, err := c.ReadLine()
		if err == chat.ErrWouldBlock {
			time.Sleep(time.Millisecond)
			continue
		}
		if err != nil {
			t.Fatal(err)
		}
		return line
	}
	t.Fatal("timed out waiting for a line")
	return ""
}

func TestConnFraming(t *testing.T) {
	server, client := net.Pipe()
	conn := NewConn(server)
	defer conn.Close()

	if _, err := conn.ReadLine(); err != chat.ErrWouldBlock {
		t.Errorf("Got: %v; Expected: %v", err, chat.ErrWouldBlock)
	}

	go client.Write([]byte("hello\r\nworld\n"))

	if got := readLine(t, conn); got != "hello" {
		t.Errorf("Got: %q; Expected: %q", got, "hello")
	}
	if got := readLine(t, conn); got != "world" {
		t.Errorf("Got: %q; Expected: %q", got, "world")
	}
}

func TestConnFramesLongLines(t *testing.T) {
	server, client := net.Pipe()
	conn := NewConn(server)
	defer conn.Close()

	// Well past the default bufio.Scanner token limit. The line must
	// survive framing so the chat layer can answer with its own rejection
	// instead of the peer seeing a silent disconnect.
	long := strings.Repeat("a", 100*1024)
	go client.Write([]byte(long + "\n"))

	if got := readLine(t, conn); got != long {
		t.Errorf("Got: %d bytes; Expected: %d", len(got), len(long))
	}
}

func TestConnWrite(t *testing.T) {
	server, client := net.Pipe()
	conn := NewConn(server)
	defer conn.Close()

	lines := make(chan string, 2)
	go func() {
		r := bufio.NewReader(client)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			lines <- line
		}
	}()

	if err := conn.WriteLine("<= hi"); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteString("=> "); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-lines:
		if got != "<= hi\n" {
			t.Errorf("Got: %q; Expected: %q", got, "<= hi\n")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the written line")
	}
}

func TestConnClosedByPeer(t *testing.T) {
	server, client := net.Pipe()
	conn := NewConn(server)
	defer conn.Close()

	go func() {
		client.Write([]byte("bye\n"))
		client.Close()
	}()

	if got := readLine(t, conn); got != "bye" {
		t.Errorf("Got: %q; Expected: %q", got, "bye")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := conn.ReadLine()
		if err == chat.ErrClosed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Got: %v; Expected: %v", err, chat.ErrClosed)
		}
		time.Sleep(time.Millisecond)
	}
}
