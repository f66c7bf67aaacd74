package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yndnr/minikv-go/internal/core/command"
	"github.com/yndnr/minikv-go/internal/core/domain"
	"github.com/yndnr/minikv-go/internal/telemetry/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Store is the store surface the structured endpoints use.
type Store interface {
	command.KV
	Count() int
}

// Dispatcher runs command lines for /command, /ws and /save.
type Dispatcher interface {
	Process(ctx context.Context, line string) string
	Call(ctx context.Context, verb string, args ...string) string
	Save(ctx context.Context) (int, error)
}

// Handler serves the minikv HTTP API.
type Handler struct {
	store      Store
	dispatcher Dispatcher
	version    string
	now        func() time.Time
	maxMessage int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(h *Handler) {
		h.version = v
	}
}

// WithClock overrides the time source used for SET expirations.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithMaxMessageBytes limits WebSocket message size.
func WithMaxMessageBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxMessage = n
		}
	}
}

// New creates a Handler.
func New(store Store, dispatcher Dispatcher, opts ...Option) *Handler {
	h := &Handler{
		store:      store,
		dispatcher: dispatcher,
		version:    "dev",
		now:        time.Now,
		maxMessage: 64 * 1024,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the key-value, command and health endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ping", h.handlePing)
	r.Get("/get/{key}", h.handleGet)
	r.Post("/set/{key}", h.handleSet)
	r.Delete("/del/{key}", h.handleDel)
	r.Post("/incr/{key}", h.handleIncr)
	r.Post("/expire/{key}", h.handleExpire)
	r.Get("/ttl/{key}", h.handleTTL)
	r.Get("/keys", h.handleKeys)
	r.Post("/flushall", h.handleFlushAll)
	r.Post("/save", h.handleSave)
	r.Post("/command", h.handleCommand)
	r.Get("/health", h.handleHealth)
}

// writeJSON writes v as the JSON response body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

// WriteError writes the error envelope. Domain errors keep their code
// and message; anything else is logged and reported as an internal error.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		logger.FromContext(r.Context()).Error("internal error", "error", err)
		de = domain.ErrInternal
	}

	w.Header().Set("X-Error-Code", de.Code)
	writeJSON(w, r, domain.HTTPStatus(de.Code), ErrorBody{
		Error:     ErrorDetail{Code: de.Code, Message: de.Message},
		RequestID: logger.RequestIDFromContext(r.Context()),
	})
}
