package agegraph

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "agegraph"

type collector struct {
	client *Client

	totalConns      *prometheus.Desc
	idleConns       *prometheus.Desc
	acquiredConns   *prometheus.Desc
	maxConns        *prometheus.Desc
	acquireCount    *prometheus.Desc
	emptyAcquires   *prometheus.Desc
	canceledAcquire *prometheus.Desc
	acquireSeconds  *prometheus.Desc
	healthy         *prometheus.Desc
}

// NewCollector returns a prometheus collector exporting pool statistics and
// the health monitor state of c.
//
//	prometheus.MustRegister(agegraph.NewCollector(client))
func NewCollector(c *Client) prometheus.Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "pool", name), help, nil, nil)
	}
	return &collector{
		client:          c,
		totalConns:      desc("total_conns", "Number of connections currently open."),
		idleConns:       desc("idle_conns", "Number of idle connections."),
		acquiredConns:   desc("acquired_conns", "Number of connections currently in use."),
		maxConns:        desc("max_conns", "Maximum size of the pool."),
		acquireCount:    desc("acquires_total", "Number of successful acquires."),
		emptyAcquires:   desc("empty_acquires_total", "Number of acquires that waited for a connection."),
		canceledAcquire: desc("canceled_acquires_total", "Number of acquires canceled by context."),
		acquireSeconds:  desc("acquire_seconds_total", "Total time spent acquiring connections."),
		healthy: prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", "healthy"),
			"1 if the last health check succeeded.", nil, nil),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalConns
	ch <- c.idleConns
	ch <- c.acquiredConns
	ch <- c.maxConns
	ch <- c.acquireCount
	ch <- c.emptyAcquires
	ch <- c.canceledAcquire
	ch <- c.acquireSeconds
	ch <- c.healthy
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	s := c.client.Stats()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v)
	}

	gauge(c.totalConns, float64(s.TotalConns))
	gauge(c.idleConns, float64(s.IdleConns))
	gauge(c.acquiredConns, float64(s.AcquiredConns))
	gauge(c.maxConns, float64(s.MaxConns))
	counter(c.acquireCount, float64(s.AcquireCount))
	counter(c.emptyAcquires, float64(s.EmptyAcquireCount))
	counter(c.canceledAcquire, float64(s.CanceledAcquires))
	counter(c.acquireSeconds, s.AcquireDuration.Seconds())

	healthy := 0.0
	if c.client.Healthy() {
		healthy = 1
	}
	gauge(c.healthy, healthy)
}
