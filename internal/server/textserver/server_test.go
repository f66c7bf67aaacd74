package textserver

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/minikv-go/internal/core/command"
	"github.com/yndnr/minikv-go/internal/storage/memory"
)

type countingGauge struct{ n atomic.Int64 }

func (g *countingGauge) Inc() { g.n.Add(1) }
func (g *countingGauge) Dec() { g.n.Add(-1) }

func startServer(t *testing.T, cfg Config, opts ...Option) *Server {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	d := command.NewDispatcher(memory.New())
	srv := New(cfg, d, opts...)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

type client struct {
	t    *testing.T
	conn net.Conn
	br   *bufio.Reader
}

func dial(t *testing.T, srv *Server) *client {
	t.Helper()
	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	return &client{t: t, conn: conn, br: bufio.NewReader(conn)}
}

func (c *client) readLine() string {
	c.t.Helper()
	line, err := c.br.ReadString('\n')
	if err != nil {
		c.t.Fatalf("read: %v (partial %q)", err, line)
	}
	if !strings.HasSuffix(line, "\r\n") {
		c.t.Fatalf("reply %q not CRLF terminated", line)
	}
	return strings.TrimSuffix(line, "\r\n")
}

func (c *client) send(line string) string {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		c.t.Fatalf("write: %v", err)
	}
	return c.readLine()
}

func TestServer_Script(t *testing.T) {
	srv := startServer(t, Config{Greeting: true})
	c := dial(t, srv)

	if got := c.readLine(); got != Greeting {
		t.Fatalf("greeting = %q", got)
	}

	steps := []struct {
		cmd  string
		want string
	}{
		{"PING", "PONG"},
		{"set a 1", "OK"},
		{"INCR a", "(integer) 2"},
		{"GET a", "2"},
		{"SET b \"hello world\"", "OK"},
		{"GET b", "hello world"},
		{"TTL a", "(integer) -1"},
		{"EXPIRE a 100", "(integer) 1"},
		{"DEL a", "(integer) 1"},
		{"GET a", "(nil)"},
		{"TTL a", "(integer) -2"},
		{"FLUSHALL", "OK"},
		{"KEYS", "(empty)"},
		{"NOPE", "(error) unknown command 'NOPE'"},
		{"SAVE", "(error) save failed"},
	}
	for _, step := range steps {
		if got := c.send(step.cmd); got != step.want {
			t.Errorf("%s => %q, want %q", step.cmd, got, step.want)
		}
	}
}

func TestServer_NoGreetingAndBlankLines(t *testing.T) {
	srv := startServer(t, Config{Greeting: false})
	c := dial(t, srv)

	if _, err := c.conn.Write([]byte("\r\n   \r\nPING\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := c.readLine(); got != "PONG" {
		t.Errorf("first reply = %q, want PONG (blank lines get no reply)", got)
	}
}

func TestServer_Quit(t *testing.T) {
	srv := startServer(t, Config{})
	c := dial(t, srv)

	if got := c.send("quit"); got != "OK" {
		t.Errorf("quit => %q", got)
	}
	if _, err := c.br.ReadByte(); err == nil {
		t.Error("connection should be closed after QUIT")
	}
}

func TestServer_LineTooLong(t *testing.T) {
	srv := startServer(t, Config{MaxLineBytes: 32})
	c := dial(t, srv)

	got := c.send("SET k " + strings.Repeat("v", 64))
	if got != "(error) line too long" {
		t.Errorf("reply = %q", got)
	}
	if _, err := c.br.ReadByte(); err == nil {
		t.Error("connection should be closed after an oversized line")
	}
}

func TestServer_RateLimit(t *testing.T) {
	srv := startServer(t, Config{RateLimit: 1})
	c := dial(t, srv)

	if got := c.send("SET a 1"); got != "OK" {
		t.Fatalf("first command => %q", got)
	}
	if got := c.send("SET a 2"); got != "(error) rate limit exceeded" {
		t.Errorf("second command => %q", got)
	}

	time.Sleep(1100 * time.Millisecond)
	if got := c.send("GET a"); got != "1" {
		t.Errorf("GET a => %q, limited command must not have run", got)
	}
}

func TestServer_ConnectionGaugeAndShutdown(t *testing.T) {
	g := &countingGauge{}
	srv := startServer(t, Config{}, WithConnectionGauge(g))

	c1 := dial(t, srv)
	c2 := dial(t, srv)
	c1.send("PING")
	c2.send("PING")

	if got := g.n.Load(); got != 2 {
		t.Errorf("open connections = %d, want 2", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if _, err := c1.br.ReadByte(); err == nil {
		t.Error("live connection should be closed on shutdown")
	}
	if got := g.n.Load(); got != 0 {
		t.Errorf("open connections after shutdown = %d, want 0", got)
	}
	if _, err := net.DialTimeout("tcp", srv.Addr().String(), 200*time.Millisecond); err == nil {
		t.Error("listener should be closed")
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() = %v", err)
	}
}

func TestServer_ConcurrentClients(t *testing.T) {
	srv := startServer(t, Config{})

	const clients = 8
	const perClient = 50
	done := make(chan struct{}, clients)
	for i := 0; i < clients; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			conn, err := net.Dial("tcp", srv.Addr().String())
			if err != nil {
				t.Error(err)
				return
			}
			defer conn.Close()
			br := bufio.NewReader(conn)
			for j := 0; j < perClient; j++ {
				if _, err := conn.Write([]byte("INCR counter\r\n")); err != nil {
					t.Error(err)
					return
				}
				if _, err := br.ReadString('\n'); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	for i := 0; i < clients; i++ {
		<-done
	}

	c := dial(t, srv)
	if got := c.send("GET counter"); got != "400" {
		t.Errorf("counter = %q, want 400", got)
	}
}

func TestRemoteIP(t *testing.T) {
	tcp := &net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 5555}
	if got := remoteIP(tcp); got != "10.1.2.3" {
		t.Errorf("remoteIP(tcp) = %q", got)
	}
	if got := remoteIP(&net.UnixAddr{Name: "/tmp/sock", Net: "unix"}); got != "local" {
		t.Errorf("remoteIP(unix) = %q", got)
	}
}

func TestServer_UnixSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minikv.sock")

	// A stale socket from a previous run is replaced.
	stale, err := net.Listen("unix", path)
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}
	stale.(*net.UnixListener).SetUnlinkOnClose(false)
	stale.Close()

	srv := startServer(t, Config{Network: "unix", Addr: path})

	conn, err := net.DialTimeout("unix", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	c := &client{t: t, conn: conn, br: bufio.NewReader(conn)}

	if got := c.send("PING"); got != "PONG" {
		t.Errorf("PING = %q", got)
	}
}

func TestServer_UnixSocketRefusesRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-socket")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	srv := New(Config{Network: "unix", Addr: path}, command.NewDispatcher(memory.New()))
	if err := srv.Start(context.Background()); err == nil {
		srv.Shutdown(context.Background())
		t.Fatal("Start() should refuse to replace a regular file")
	}
}
