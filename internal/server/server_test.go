package server

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/adred-codev/kvredis/internal/config"
	"github.com/adred-codev/kvredis/internal/logging"
)

func startTestServer(t *testing.T) (*Server, net.Conn) {
	t.Helper()
	cfg := config.Config{
		Host:              "127.0.0.1",
		Port:              0,
		Databases:         4,
		LogLevel:          "error",
		LogFormat:         "json",
		RateLimitPerSec:   10000,
		RateLimitBurst:    10000,
		SubscriberStrikes: 3,
	}
	srv := New(cfg, logging.New("error", "json", "test"))
	if err := srv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, conn
}

func sendCommand(t *testing.T, conn net.Conn, parts ...string) {
	t.Helper()
	req := "*" + itoa(len(parts)) + "\r\n"
	for _, p := range parts {
		req += "$" + itoa(len(p)) + "\r\n" + p + "\r\n"
	}
	if _, err := conn.Write([]byte(req)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return line
}

func TestServerSetGetOverTCP(t *testing.T) {
	_, conn := startTestServer(t)
	r := bufio.NewReader(conn)

	sendCommand(t, conn, "SET", "k", "v")
	if got := readLine(t, r); got != "+OK\r\n" {
		t.Fatalf("SET reply = %q", got)
	}

	sendCommand(t, conn, "GET", "k")
	if got := readLine(t, r); got != "$1\r\n" {
		t.Fatalf("GET header = %q", got)
	}
	if got := readLine(t, r); got != "v\r\n" {
		t.Fatalf("GET value = %q", got)
	}
}

func TestServerPingPong(t *testing.T) {
	_, conn := startTestServer(t)
	r := bufio.NewReader(conn)
	sendCommand(t, conn, "PING")
	if got := readLine(t, r); got != "+PONG\r\n" {
		t.Fatalf("PING reply = %q", got)
	}
}

func TestServerQuitClosesConnection(t *testing.T) {
	_, conn := startTestServer(t)
	r := bufio.NewReader(conn)
	sendCommand(t, conn, "QUIT")
	if got := readLine(t, r); got != "+OK\r\n" {
		t.Fatalf("QUIT reply = %q", got)
	}
	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := conn.Read(buf); err != io.EOF {
		t.Fatalf("expected EOF after QUIT, got %v", err)
	}
}

func TestServerRateLimitRejects(t *testing.T) {
	cfg := config.Config{
		Host:              "127.0.0.1",
		Port:              0,
		Databases:         4,
		LogLevel:          "error",
		LogFormat:         "json",
		RateLimitPerSec:   1,
		RateLimitBurst:    1,
		SubscriberStrikes: 3,
	}
	srv := New(cfg, logging.New("error", "json", "test"))
	if err := srv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	sendCommand(t, conn, "PING")
	if got := readLine(t, r); got != "+PONG\r\n" {
		t.Fatalf("first PING reply = %q", got)
	}
	sendCommand(t, conn, "PING")
	got := readLine(t, r)
	if len(got) == 0 || got[0] != '-' {
		t.Fatalf("expected the second immediate PING to be rate-limited, got %q", got)
	}
}
