package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yndnr/minikv-go/internal/core/domain"
	"github.com/yndnr/minikv-go/internal/server/httpserver/handler"
	"github.com/yndnr/minikv-go/internal/telemetry/metric"
)

var (
	errRouteNotFound    = domain.NewDomainError("KV-REQ-4040", "route not found")
	errMethodNotAllowed = domain.NewDomainError("KV-REQ-4050", "method not allowed")
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Store      handler.Store
	Dispatcher handler.Dispatcher

	// Metrics enables request metrics and GET /metrics when set.
	Metrics *metric.Registry

	Logger  *slog.Logger
	Version string

	// WebSocket enables GET /ws.
	WebSocket bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	// Order: RealIP -> RequestID -> Recover -> AccessLog -> Metrics -> handler
	r.Use(middleware.RealIP)
	r.Use(RequestID(log))
	r.Use(Recover())
	r.Use(AccessLog())
	if cfg.Metrics != nil {
		r.Use(Metrics(cfg.Metrics))
	}

	h := handler.New(cfg.Store, cfg.Dispatcher, handler.WithVersion(cfg.Version))
	h.Routes(r)

	if cfg.WebSocket {
		r.Get("/ws", h.HandleWebSocket)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, errMethodNotAllowed)
	})

	return r
}
