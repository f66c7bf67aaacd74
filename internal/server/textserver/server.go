package textserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/minikv-go/internal/core/command"
	"github.com/yndnr/minikv-go/internal/core/domain"
	"github.com/yndnr/minikv-go/internal/telemetry/logger"
)

// Greeting is sent to each client on connect when enabled.
const Greeting = "# minikv ready. Commands: PING | SET k v [EX s] | GET k | DEL k | EXPIRE k s | TTL k | INCR k | KEYS | FLUSHALL | SAVE"

// limiterIdle is how long an IP's bucket survives without traffic.
const limiterIdle = 10 * time.Minute

// Config holds the text server configuration.
type Config struct {
	// Network is "tcp" (default) or "unix"; for "unix" Addr is the
	// socket path.
	Network string
	Addr    string

	// ReadTimeout bounds reading the rest of a line once its first byte
	// has arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration
	// IdleTimeout bounds the wait for the next command.
	IdleTimeout time.Duration

	// RateLimit is the commands per second allowed per client IP.
	// Zero disables limiting.
	RateLimit    float64
	MaxLineBytes int
	Greeting     bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:6380",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    1000,
		MaxLineBytes: 64 * 1024,
		Greeting:     true,
	}
}

// Processor executes one command line and returns its reply.
type Processor interface {
	Process(ctx context.Context, line string) string
}

// Gauge tracks open connections. prometheus.Gauge satisfies it.
type Gauge interface {
	Inc()
	Dec()
}

// Server is the line-protocol TCP server.
type Server struct {
	cfg     Config
	proc    Processor
	logger  *slog.Logger
	gauge   Gauge
	limiter *ipLimiter

	mu      sync.Mutex
	ln      net.Listener
	conns   map[net.Conn]struct{}
	running atomic.Bool
	wg      sync.WaitGroup
	stop    chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConnectionGauge reports open connections to g.
func WithConnectionGauge(g Gauge) Option {
	return func(s *Server) {
		s.gauge = g
	}
}

// New creates a text server that hands command lines to proc.
func New(cfg Config, proc Processor, opts ...Option) *Server {
	def := DefaultConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = def.MaxLineBytes
	}

	s := &Server{
		cfg:     cfg,
		proc:    proc,
		logger:  slog.Default(),
		limiter: newIPLimiter(cfg.RateLimit),
		conns:   make(map[net.Conn]struct{}),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "textserver")
	return s
}

// Start binds the listener and serves connections in the background.
// ctx is the parent of every command's context.
func (s *Server) Start(ctx context.Context) error {
	network := s.cfg.Network
	if network == "" {
		network = "tcp"
	}
	if network == "unix" {
		if err := removeStaleSocket(s.cfg.Addr); err != nil {
			return err
		}
	}
	ln, err := net.Listen(network, s.cfg.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("text server listening", "network", network, "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("accept loop stopped", "error", err)
		}
	}()

	if s.limiter != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.pruneLoop()
		}()
	}

	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes live connections and waits for their
// handlers to return or ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.stop)

	s.mu.Lock()
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	s.logger.Info("text server stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}

		if !s.track(c) {
			_ = c.Close()
			return nil
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	if s.gauge != nil {
		s.gauge.Inc()
	}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[c]; !ok {
		return
	}
	delete(s.conns, c)
	if s.gauge != nil {
		s.gauge.Dec()
	}
}

func (s *Server) pruneLoop() {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.limiter.prune(limiterIdle); n > 0 {
				s.logger.Debug("pruned idle rate limiters", "count", n)
			}
		}
	}
}

func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	defer c.Close()

	connID := ulid.Make().String()
	remote := c.RemoteAddr().String()
	ip := remoteIP(c.RemoteAddr())
	log := s.logger.With("conn", connID, "remote", remote)
	ctx = logger.WithLogger(logger.WithRequestID(ctx, connID), log)

	log.Debug("connection opened")
	defer log.Debug("connection closed")

	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)

	write := func(reply string) error {
		if err := c.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
		if _, err := bw.WriteString(reply); err != nil {
			return err
		}
		if _, err := bw.WriteString("\r\n"); err != nil {
			return err
		}
		return bw.Flush()
	}

	if s.cfg.Greeting {
		if err := write(Greeting); err != nil {
			return
		}
	}

	for {
		// Idle deadline until the first byte of the next line.
		if err := c.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if _, err := br.Peek(1); err != nil {
			s.logReadError(log, err)
			return
		}

		if err := c.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}
		line, err := readLine(br, s.cfg.MaxLineBytes)
		if err != nil {
			if errors.Is(err, ErrLineTooLong) {
				log.Warn("line too long", "limit", s.cfg.MaxLineBytes)
				_ = write(command.Error(ErrLineTooLong))
				return
			}
			s.logReadError(log, err)
			return
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if isQuit(line) {
			_ = write(command.ReplyOK)
			return
		}

		var reply string
		if s.limiter.allow(ip) {
			reply = s.proc.Process(ctx, line)
		} else {
			reply = command.Error(domain.ErrRateLimited)
		}

		if err := write(reply); err != nil {
			log.Debug("write failed", "error", err)
			return
		}
	}
}

func (s *Server) logReadError(log *slog.Logger, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Debug("connection timed out")
		return
	}
	log.Debug("connection read error", "error", err)
}

func isQuit(line string) bool {
	tokens := command.Split(line)
	return len(tokens) > 0 && strings.EqualFold(tokens[0], "QUIT")
}

func remoteIP(addr net.Addr) string {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP.String()
	case *net.UnixAddr:
		return "local"
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// removeStaleSocket deletes a socket file left by a previous process.
// Anything else at path is an error.
func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("textserver: %s exists and is not a socket", path)
	}
	return os.Remove(path)
}
