// Package clmetrics exports the number of live cl wrappers (platforms, devices and contexts) as
// Prometheus metrics.
//
// Example:
//
//	prometheus.MustRegister(clmetrics.NewCollector())
package clmetrics

import (
	"github.com/gomlx/gocl/cl"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements prometheus.Collector, reading the counters on each collection.
type Collector struct {
	wrappersAlive *prometheus.Desc
	runtimes      *prometheus.Desc
}

// Assert Collector implements prometheus.Collector.
var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a new Collector. Register it with prometheus.MustRegister or Register.
func NewCollector() *Collector {
	return &Collector{
		wrappersAlive: prometheus.NewDesc(
			"gocl_wrappers_alive",
			"Number of wrapped OpenCL objects whose reference count hasn't reached zero",
			[]string{"kind"}, nil,
		),
		runtimes: prometheus.NewDesc(
			"gocl_runtimes_available",
			"Number of cl runtimes registered or with a registered loader",
			nil, nil,
		),
	}
}

// Register creates a Collector and registers it with reg.
func Register(reg prometheus.Registerer) (*Collector, error) {
	c := NewCollector()
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.wrappersAlive
	ch <- c.runtimes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for kind, count := range cl.WrappersAlive() {
		ch <- prometheus.MustNewConstMetric(c.wrappersAlive, prometheus.GaugeValue, float64(count), kind)
	}
	ch <- prometheus.MustNewConstMetric(c.runtimes, prometheus.GaugeValue, float64(len(cl.AvailableRuntimes())))
}
