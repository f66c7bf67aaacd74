// Package metric provides Prometheus metrics for minikv.
//
//   - prometheus.go: the Registry, its instruments and the /metrics handler
//   - collector.go: a collector that reads key counts from the store on scrape
//
// Every metric lives under the "minikv" namespace.
package metric
