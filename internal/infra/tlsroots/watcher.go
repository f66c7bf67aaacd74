package tlsroots

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yndnr/minikv-go/internal/infra/confloader"
)

// CertReloader serves a key pair and reloads it when either file
// changes. A failed reload keeps the previous pair.
type CertReloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	watcher *confloader.Watcher
}

// Option configures a CertReloader.
type Option func(*CertReloader)

// WithLogger sets the logger for the reloader.
func WithLogger(logger *slog.Logger) Option {
	return func(r *CertReloader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewCertReloader loads the key pair once. Call Watch to follow changes.
func NewCertReloader(certFile, keyFile string, opts ...Option) (*CertReloader, error) {
	r := &CertReloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return r, nil
}

// Reload reads the key pair from disk.
func (r *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	r.logger.Info("certificate loaded", "cert_file", r.certFile)
	return nil
}

// Watch starts following the cert and key files in the background.
func (r *CertReloader) Watch() error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(r.logger))
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	for _, f := range []string{r.certFile, r.keyFile} {
		if err := w.Watch(f); err != nil {
			_ = w.Stop()
			return fmt.Errorf("tlsroots: watch %s: %w", f, err)
		}
	}

	w.OnChange(func(path string) {
		if err := r.Reload(); err != nil {
			r.logger.Error("certificate reload failed, keeping previous",
				"changed", path,
				"error", err)
		}
	})
	w.StartAsync()

	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()
	return nil
}

// Stop ends watching. Safe to call without Watch.
func (r *CertReloader) Stop() error {
	r.mu.RLock()
	w := r.watcher
	r.mu.RUnlock()
	if w == nil {
		return nil
	}
	return w.Stop()
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// ServerConfig returns a server TLS config backed by the reloader.
func (r *CertReloader) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}
