package server

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/aesdsocket-go/aesdsocket/internal/logstore"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := New(logstore.NewMemoryStore(), nil)
	if err := s.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}
	go s.Serve()
	t.Cleanup(func() {
		s.Shutdown()
		s.Wait()
	})
	return s, s.Addr().String()
}

func TestSingleCommandEcho(t *testing.T) {
	_, addr := startTestServer(t)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "hello\n" {
		t.Fatalf("got %q, want %q", line, "hello\n")
	}
}

func TestTwoCommandsAccumulate(t *testing.T) {
	_, addr := startTestServer(t)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)

	conn.Write([]byte("one\n"))
	if got, _ := r.ReadString('\n'); got != "one\n" {
		t.Fatalf("first reply = %q", got)
	}

	conn.Write([]byte("two\n"))
	first, _ := r.ReadString('\n')
	second, _ := r.ReadString('\n')
	if first != "one\n" || second != "two\n" {
		t.Fatalf("second reply = %q %q", first, second)
	}
}

func TestPartialSendReassembly(t *testing.T) {
	_, addr := startTestServer(t)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.Write([]byte("par"))
	time.Sleep(10 * time.Millisecond)
	conn.Write([]byte("tial\n"))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "partial\n" {
		t.Fatalf("got %q, want %q", line, "partial\n")
	}
}

func TestEvictionVisibleAcrossConnections(t *testing.T) {
	_, addr := startTestServer(t)

	for i := 0; i < 11; i++ {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		conn.Write([]byte("x\n"))
		bufio.NewReader(conn).ReadString('\n')
		conn.Close()
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("final dial: %v", err)
	}
	defer conn.Close()
	conn.Write([]byte("y\n"))
	r := bufio.NewReader(conn)
	var lines []string
	for i := 0; i < 10; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		lines = append(lines, line)
	}
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
}

func TestInterleavedWriters(t *testing.T) {
	_, addr := startTestServer(t)

	connA, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial a: %v", err)
	}
	defer connA.Close()
	connB, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial b: %v", err)
	}
	defer connB.Close()

	connA.Write([]byte("aaa\n"))
	readerA := bufio.NewReader(connA)
	if got, _ := readerA.ReadString('\n'); got != "aaa\n" {
		t.Fatalf("a first reply = %q", got)
	}

	connB.Write([]byte("bbb\n"))
	readerB := bufio.NewReader(connB)
	first, _ := readerB.ReadString('\n')
	second, _ := readerB.ReadString('\n')
	if first != "aaa\n" || second != "bbb\n" {
		t.Fatalf("b reply = %q %q", first, second)
	}
}
