package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "minikv"

// Registry holds all application metrics.
//
// Each Registry owns its own prometheus.Registry so tests can create as
// many as they like without duplicate registration panics.
type Registry struct {
	reg *prometheus.Registry

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Transport metrics
	TCPConnections      prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Storage metrics
	SnapshotsTotal *prometheus.CounterVec
}

// NewRegistry creates a registry with every minikv instrument plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands dispatched, by command and result",
		}, []string{"command", "result"}),

		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command dispatch latency",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"command"}),

		TCPConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tcp_connections",
			Help:      "Open text protocol connections",
		}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by route pattern, method and status code",
		}, []string{"route", "method", "code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),

		SnapshotsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Snapshot saves, by result",
		}, []string{"result"}),
	}

	r.reg.MustRegister(
		r.CommandsTotal,
		r.CommandDuration,
		r.TCPConnections,
		r.HTTPRequestsTotal,
		r.HTTPRequestDuration,
		r.SnapshotsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// MustRegister adds extra collectors, such as a StoreCollector.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry for tests and custom handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveCommand records one dispatched command.
func (r *Registry) ObserveCommand(command, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(command, result).Inc()
	r.CommandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// ObserveSnapshot records one snapshot save attempt.
func (r *Registry) ObserveSnapshot(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.SnapshotsTotal.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served HTTP request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (r *Registry) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	r.HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
