// Package metrics wraps rcrowley/go-metrics the way klaytn's work/worker.go
// registers its mining counters: helpers that register named
// counters/gauges/timers in one process-wide Registry. No pbaasd package
// registers any metric through them at present. cmd/pbaasd exposes the same
// registry over prometheus/client_golang for scraping.
package metrics

import (
	"github.com/rcrowley/go-metrics"
)

// Registry is the process-wide metrics registry every package registers
// into, mirroring go-metrics' own DefaultRegistry pattern.
var Registry = metrics.NewRegistry()

// NewCounter registers (or retrieves) a named counter, e.g.
// "mergemine/submitted" or "aggregator/exports".
func NewCounter(name string) metrics.Counter {
	return metrics.GetOrRegisterCounter(name, Registry)
}

// NewGauge registers (or retrieves) a named gauge.
func NewGauge(name string) metrics.Gauge {
	return metrics.GetOrRegisterGauge(name, Registry)
}

// NewTimer registers (or retrieves) a named timer.
func NewTimer(name string) metrics.Timer {
	return metrics.GetOrRegisterTimer(name, Registry)
}

// Snapshot is a point-in-time view of every registered metric, suitable for
// rendering either via the Prometheus bridge in cmd/pbaasd or a debug RPC.
type Snapshot struct {
	Counters map[string]int64            `json:"counters"`
	Gauges   map[string]int64             `json:"gauges"`
	Timers   map[string]map[string]float64 `json:"timers"`
}

// TakeSnapshot walks the registry once, copying out current values.
func TakeSnapshot() Snapshot {
	snap := Snapshot{
		Counters: make(map[string]int64),
		Gauges:   make(map[string]int64),
		Timers:   make(map[string]map[string]float64),
	}
	Registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			snap.Counters[name] = m.Count()
		case metrics.Gauge:
			snap.Gauges[name] = m.Value()
		case metrics.Timer:
			snap.Timers[name] = map[string]float64{
				"mean_ns": m.Mean(),
				"p95_ns":  m.Percentile(0.95),
				"count":   float64(m.Count()),
			}
		}
	})
	return snap
}
