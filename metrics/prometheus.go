package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// collector bridges the rcrowley/go-metrics Registry to Prometheus's
// collection model: each Collect call walks the registry once and emits
// one counter metric per counter, one gauge metric per gauge, and one gauge
// metric per timer field. The teacher's go.mod pulls both
// libraries without wiring them together; this is that wiring.
type collector struct {
	namespace string
}

// NewCollector returns a prometheus.Collector exposing every metric
// currently registered in Registry, for cmd/pbaasd to register against its
// /metrics endpoint.
func NewCollector(namespace string) prometheus.Collector {
	return &collector{namespace: namespace}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	// Metric set is dynamic (packages register counters as they run), so
	// Describe is intentionally unchecked — matches prometheus.Collector's
	// documented allowance for collectors with a dynamic metric set.
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	snap := TakeSnapshot()
	for name, v := range snap.Counters {
		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(c.namespace+"_"+sanitize(name), "pbaasd counter "+name, nil, nil),
			prometheus.CounterValue, float64(v),
		)
	}
	for name, v := range snap.Gauges {
		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(c.namespace+"_"+sanitize(name), "pbaasd gauge "+name, nil, nil),
			prometheus.GaugeValue, float64(v),
		)
	}
	for name, fields := range snap.Timers {
		for field, v := range fields {
			ch <- prometheus.MustNewConstMetric(
				prometheus.NewDesc(c.namespace+"_"+sanitize(name)+"_"+field, "pbaasd timer "+name, nil, nil),
				prometheus.GaugeValue, v,
			)
		}
	}
}

func sanitize(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			out[i] = ch
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
