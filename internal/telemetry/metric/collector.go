package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreStats is the subset of store statistics exported on scrape.
type StoreStats struct {
	Keys         int
	LazyExpired  uint64
	SweptExpired uint64
}

// StoreCollector reads store statistics each time Prometheus scrapes.
type StoreCollector struct {
	stats func() StoreStats

	keys    *prometheus.Desc
	expired *prometheus.Desc
}

// NewStoreCollector creates a collector backed by the given stats function.
func NewStoreCollector(stats func() StoreStats) *StoreCollector {
	return &StoreCollector{
		stats: stats,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "keys"),
			"Resident keys, including expired keys not yet removed",
			nil, nil,
		),
		expired: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "expired_removed_total"),
			"Expired keys removed, by removal path",
			[]string{"path"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.expired
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(s.Keys))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(s.LazyExpired), "lazy")
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(s.SweptExpired), "sweeper")
}
