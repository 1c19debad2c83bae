package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 用于 Prometheus 监控缓存命中、丢失、加载、过期等指标。
// nil 的 *Metrics 可以直接使用，不做任何统计。
type Metrics struct {
	Hits        prometheus.Counter // 命中次数
	Misses      prometheus.Counter // 丢失次数
	Loads       prometheus.Counter // 回源次数
	LoadErrors  prometheus.Counter // 回源失败次数
	Expirations prometheus.Counter // 过期删除次数
}

// NewMetrics 创建指标，reg 不为空时注册
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	newCounter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		Hits:        newCounter("hits_total", "Number of cache hits."),
		Misses:      newCounter("misses_total", "Number of cache misses."),
		Loads:       newCounter("loads_total", "Number of producer calls on a miss."),
		LoadErrors:  newCounter("load_errors_total", "Number of producer calls that failed."),
		Expirations: newCounter("expirations_total", "Number of expired entries removed."),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Loads, m.LoadErrors, m.Expirations)
	}
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.Hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.Misses.Inc()
	}
}

func (m *Metrics) load() {
	if m != nil {
		m.Loads.Inc()
	}
}

func (m *Metrics) loadError() {
	if m != nil {
		m.LoadErrors.Inc()
	}
}

func (m *Metrics) expire() {
	if m != nil {
		m.Expirations.Inc()
	}
}
