package transport_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/transport"
)

type recordingLogger struct {
	events chan log.Event
}

func (r *recordingLogger) Log(e log.Event) {
	select {
	case r.events <- e:
	default:
	}
}

func startServer(t *testing.T, cfg transport.ServerConfig) *transport.Server {
	t.Helper()
	cfg.Address = "127.0.0.1:0"
	server, err := transport.NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := server.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { server.Stop() })
	return server
}

func waitAccept(t *testing.T, server *transport.Server) *transport.ServerConn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, ok := server.Accept(); ok {
			return conn
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no connection accepted")
	return nil
}

// readUntil polls a non-blocking socket until n bytes arrived or it fails.
func readUntil(t *testing.T, conn *transport.ServerConn, n int) ([]byte, error) {
	t.Helper()
	var got []byte
	buf := make([]byte, 64)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < n && time.Now().Before(deadline) {
		m, err := conn.Read(buf)
		got = append(got, buf[:m]...)
		if errors.Is(err, transport.ErrWouldBlock) {
			time.Sleep(2 * time.Millisecond)
			continue
		}
		if err != nil {
			return got, err
		}
	}
	return got, nil
}

func TestServerAcceptReadWrite(t *testing.T) {
	server := startServer(t, transport.ServerConfig{})

	client, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	conn := waitAccept(t, server)
	if conn.ID() == "" {
		t.Error("connection has no ID")
	}
	if server.ConnectionCount() != 1 {
		t.Errorf("ConnectionCount = %d, want 1", server.ConnectionCount())
	}

	if _, err := conn.Read(make([]byte, 8)); !errors.Is(err, transport.ErrWouldBlock) {
		t.Errorf("Read with no data: got %v, want ErrWouldBlock", err)
	}

	if _, err := client.Write([]byte("look\r\n")); err != nil {
		t.Fatalf("client write failed: %v", err)
	}
	got, err := readUntil(t, conn, 6)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "look\r\n" {
		t.Errorf("read %q, want %q", got, "look\r\n")
	}

	if n, err := conn.Write([]byte("You see nothing.\r\n")); err != nil || n != 18 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply := make([]byte, 18)
	if _, err := io.ReadFull(client, reply); err != nil {
		t.Fatalf("client read failed: %v", err)
	}
	if string(reply) != "You see nothing.\r\n" {
		t.Errorf("client got %q", reply)
	}

	in, out := conn.Stats()
	if in != 6 || out != 18 {
		t.Errorf("Stats = %d in, %d out; want 6, 18", in, out)
	}
}

func TestServerConnectionLimit(t *testing.T) {
	server := startServer(t, transport.ServerConfig{
		MaxConnections: 1,
		Refusal:        []byte("full\r\n"),
	})

	first, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer first.Close()
	waitAccept(t, server)

	second, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("second Dial failed: %v", err)
	}
	defer second.Close()

	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, _ := io.ReadAll(second)
	if string(got) != "full\r\n" {
		t.Errorf("refused client got %q, want %q", got, "full\r\n")
	}
	if server.ConnectionCount() != 1 {
		t.Errorf("ConnectionCount = %d, want 1", server.ConnectionCount())
	}
}

func TestServerConnPeerClose(t *testing.T) {
	logger := &recordingLogger{events: make(chan log.Event, 16)}
	server := startServer(t, transport.ServerConfig{Logger: logger})

	client, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	conn := waitAccept(t, server)

	client.Close()

	_, err = readUntil(t, conn, 1)
	if !errors.Is(err, io.EOF) {
		t.Errorf("read after peer close: got %v, want io.EOF", err)
	}

	conn.Close()
	if !conn.Closed() {
		t.Error("Closed() = false after Close")
	}
	if _, err := conn.Write([]byte("x")); !errors.Is(err, transport.ErrConnectionClosed) {
		t.Errorf("Write after Close: got %v, want ErrConnectionClosed", err)
	}
	if server.ConnectionCount() != 0 {
		t.Errorf("ConnectionCount = %d, want 0", server.ConnectionCount())
	}

	var states []string
	for len(logger.events) > 0 {
		e := <-logger.events
		if e.StateChange != nil {
			states = append(states, e.StateChange.NewState)
		}
	}
	if len(states) != 2 || states[0] != "CONNECTED" || states[1] != "DISCONNECTED" {
		t.Errorf("logged states = %v, want [CONNECTED DISCONNECTED]", states)
	}
}

func TestServerStopClosesConnections(t *testing.T) {
	server := startServer(t, transport.ServerConfig{})

	client, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()
	conn := waitAccept(t, server)

	if err := server.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !conn.Closed() {
		t.Error("connection still open after Stop")
	}
	if server.ConnectionCount() != 0 {
		t.Errorf("ConnectionCount = %d, want 0", server.ConnectionCount())
	}
	if err := server.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestServerStartTwice(t *testing.T) {
	server := startServer(t, transport.ServerConfig{})
	if err := server.Start(context.Background()); !errors.Is(err, transport.ErrServerRunning) {
		t.Errorf("second Start: got %v, want ErrServerRunning", err)
	}
}

func TestServerConnShortWrite(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	conn := transport.NewServerConn(serverSide, 10*time.Millisecond, nil)
	defer conn.Close()

	payload := bytes.Repeat([]byte("x"), 1024)

	// nobody reads the pipe, so the write times out
	n, err := conn.Write(payload)
	if !errors.Is(err, transport.ErrWouldBlock) {
		t.Fatalf("Write to stalled peer: got %v, want ErrWouldBlock", err)
	}

	received := make(chan []byte, 1)
	go func() {
		buf := make([]byte, len(payload)-n)
		_, _ = io.ReadFull(clientSide, buf)
		received <- buf
	}()

	rest := payload[n:]
	for len(rest) > 0 {
		m, err := conn.Write(rest)
		rest = rest[m:]
		if err != nil && !errors.Is(err, transport.ErrWouldBlock) {
			t.Fatalf("retry Write failed: %v", err)
		}
	}

	select {
	case got := <-received:
		if len(got) != len(payload)-n {
			t.Errorf("peer received %d bytes, want %d", len(got), len(payload)-n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("peer never received the remainder")
	}
}

func TestServerConnReadSmallBuffer(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	conn := transport.NewServerConn(serverSide, 0, nil)
	defer conn.Close()

	go clientSide.Write([]byte("abcdef"))

	var got []byte
	buf := make([]byte, 4)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < 6 && time.Now().Before(deadline) {
		n, err := conn.Read(buf)
		if n > 4 {
			t.Fatalf("Read returned %d bytes into a 4-byte buffer", n)
		}
		got = append(got, buf[:n]...)
		if errors.Is(err, transport.ErrWouldBlock) {
			time.Sleep(time.Millisecond)
		}
	}
	if string(got) != "abcdef" {
		t.Errorf("read %q, want %q", got, "abcdef")
	}
}

func TestServerBindConflict(t *testing.T) {
	first := startServer(t, transport.ServerConfig{})

	second, err := transport.NewServer(transport.ServerConfig{
		Address:     first.Addr().String(),
		BindRetries: 1,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("Start on a bound address should fail")
	}
	if err := second.Stop(); err != nil {
		t.Errorf("Stop after failed Start: %v", err)
	}
}
