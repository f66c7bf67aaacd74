package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Config holds the HTTP listener configuration.
type Config struct {
	Addr string

	// TLS, when set, serves HTTPS.
	TLS *tls.Config

	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// Server represents the HTTP server.
type Server struct {
	cfg        Config
	httpServer *http.Server
	logger     *slog.Logger

	mu   sync.Mutex
	ln   net.Listener
	done chan struct{}
}

// New creates a new HTTP server.
func New(cfg Config, h http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}

	// Long-lived WebSocket handlers watch this context; it ends as soon
	// as Shutdown begins.
	baseCtx, cancel := context.WithCancel(context.Background())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		TLSConfig:         cfg.TLS,
	}
	srv.RegisterOnShutdown(cancel)

	return &Server{
		cfg:        cfg,
		httpServer: srv,
		logger:     logger.With("component", "httpserver"),
		done:       make(chan struct{}),
	}
}

// TLSEnabled reports whether the server serves HTTPS.
func (s *Server) TLSEnabled() bool {
	return s.cfg.TLS != nil
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("http server listening", "address", ln.Addr().String(), "tls", s.TLSEnabled())

	go func() {
		defer close(s.done)
		var err error
		if s.TLSEnabled() {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "error", err)
		}
	}()

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

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	started := s.ln != nil
	s.mu.Unlock()
	if started {
		select {
		case <-s.done:
		case <-ctx.Done():
		}
	}

	if err == nil {
		s.logger.Info("http server stopped")
	}
	return err
}
