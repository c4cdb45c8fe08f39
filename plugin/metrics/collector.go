package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/uniyakcom/gormw/router"
)

// statsCollector 在采集时读取 router.Stats
type statsCollector struct {
	r     *router.Router
	descs []statDesc
}

type statDesc struct {
	desc  *prometheus.Desc
	value func(router.Stats) int64
}

func newStatsCollector(namespace string, r *router.Router) *statsCollector {
	d := func(name, help string, v func(router.Stats) int64) statDesc {
		return statDesc{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "router", name), help, nil, nil),
			value: v,
		}
	}
	return &statsCollector{
		r: r,
		descs: []statDesc{
			d("dispatched_total", "Messages dispatched", func(s router.Stats) int64 { return s.Dispatched }),
			d("emitted_total", "Messages written to output", func(s router.Stats) int64 { return s.Emitted }),
			d("suppressed_total", "Messages vetoed by a subscriber", func(s router.Stats) int64 { return s.Suppressed }),
			d("replaced_total", "Messages replaced by a subscriber", func(s router.Stats) int64 { return s.Replaced }),
			d("malformed_total", "Input lines dropped as malformed", func(s router.Stats) int64 { return s.Malformed }),
			d("expired_total", "Correlated subscriptions expired", func(s router.Stats) int64 { return s.Expired }),
			d("panics_total", "Subscriber callbacks that panicked", func(s router.Stats) int64 { return s.Panics }),
			d("write_errors_total", "Output write failures", func(s router.Stats) int64 { return s.WriteErrors }),
			d("tap_errors_total", "Observer failures", func(s router.Stats) int64 { return s.TapErrors }),
		},
	}
}

// Describe 实现 prometheus.Collector
func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d.desc
	}
}

// Collect 实现 prometheus.Collector
func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.r.Stats()
	for _, d := range c.descs {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.CounterValue, float64(d.value(st)))
	}
}
