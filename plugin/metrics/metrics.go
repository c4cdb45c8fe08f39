// Package metrics 提供路由器的 Prometheus 指标。
//
// Metrics 既是路由器插件（运行期间导出路由器统计），也提供中间件
// （按频道统计回调耗时与处理结果）。
//
//	m := metrics.New("gormw", prometheus.DefaultRegisterer)
//	r.Use(m.Middleware())
//	r.AddPlugin(m)
package metrics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/uniyakcom/gormw/core"
	"github.com/uniyakcom/gormw/message"
	"github.com/uniyakcom/gormw/router"
)

// Metrics 路由器指标
type Metrics struct {
	namespace string
	reg       prometheus.Registerer

	// HandlerDuration 回调耗时
	HandlerDuration *prometheus.HistogramVec

	// HandlerResults 回调结果计数
	HandlerResults *prometheus.CounterVec

	mu        sync.Mutex
	collector *statsCollector
}

var _ router.RouterPlugin = (*Metrics)(nil)

// New 创建指标集并注册到 reg。reg 为 nil 时使用 prometheus.DefaultRegisterer。
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "gormw"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		namespace: namespace,
		reg:       reg,
		HandlerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "handler_duration_seconds",
				Help:      "Subscriber callback duration in seconds",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"channel", "scoped"},
		),
		HandlerResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handler_results_total",
				Help:      "Subscriber callback results by action",
			},
			[]string{"channel", "action"},
		),
	}
}

// Middleware 返回统计回调耗时与结果的中间件。
// 标签只使用基础频道名，关联 ID 不进入标签。
func (m *Metrics) Middleware() router.Middleware {
	return func(key string, h core.Handler) core.Handler {
		channel, id := core.SplitKey(key)
		scoped := strconv.FormatBool(id != "")
		duration := m.HandlerDuration.WithLabelValues(channel, scoped)

		return func(msg *message.Message) core.Result {
			start := time.Now()
			res := h(msg)
			duration.Observe(time.Since(start).Seconds())
			m.HandlerResults.WithLabelValues(channel, res.Action.String()).Inc()
			return res
		}
	}
}

// OnStart 注册路由器统计采集器
func (m *Metrics) OnStart(_ context.Context, r *router.Router) error {
	c := newStatsCollector(m.namespace, r)
	if err := m.reg.Register(c); err != nil {
		return err
	}
	m.mu.Lock()
	m.collector = c
	m.mu.Unlock()
	return nil
}

// OnStop 注销路由器统计采集器
func (m *Metrics) OnStop(*router.Router) {
	m.mu.Lock()
	c := m.collector
	m.collector = nil
	m.mu.Unlock()

	if c != nil {
		m.reg.Unregister(c)
	}
}
