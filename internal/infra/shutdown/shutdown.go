package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook stops one component. It should return once the component has
// stopped or ctx is done.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Handler runs shutdown hooks once a termination request arrives.
type Handler struct {
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	hooks   []namedHook
	trigger chan struct{}
	once    sync.Once
	done    chan struct{}
	err     error
}

// NewHandler creates a handler whose hooks share the given timeout.
func NewHandler(timeout time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		timeout: timeout,
		logger:  logger,
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a hook. Hooks run in reverse order of registration.
func (h *Handler) OnShutdown(name string, hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, namedHook{name: name, fn: hook})
}

// Trigger requests shutdown without a signal. Safe to call repeatedly.
func (h *Handler) Trigger() {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.trigger:
	default:
		close(h.trigger)
	}
}

// Wait blocks until SIGINT or SIGTERM, then runs the hooks.
func (h *Handler) Wait() error {
	return h.WaitContext(context.Background())
}

// WaitContext blocks until a signal arrives, ctx is done or Trigger is
// called, then runs the hooks and returns their joined errors.
func (h *Handler) WaitContext(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		h.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		h.logger.Info("shutdown requested", "reason", ctx.Err())
	case <-h.trigger:
		h.logger.Info("shutdown triggered")
	}

	return h.Run()
}

// Run executes the hooks immediately. Only the first call runs them;
// later calls wait for it and return the same result.
func (h *Handler) Run() error {
	h.once.Do(func() {
		defer close(h.done)

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := make([]namedHook, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			hook := hooks[i]
			start := time.Now()
			if err := hook.fn(ctx); err != nil {
				h.logger.Error("shutdown hook failed", "hook", hook.name, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", hook.name, err))
				continue
			}
			h.logger.Debug("shutdown hook done", "hook", hook.name, "elapsed", time.Since(start))
		}

		h.err = errors.Join(errs...)
	})

	<-h.done
	return h.err
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
