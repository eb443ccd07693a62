package core

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"
)

// Metrics 会话日志与崩溃捕获的计数器。nil 接收者上的方法都是空操作。
type Metrics struct {
	entries  *prometheus.CounterVec
	captures *prometheus.CounterVec
	failures prometheus.Counter
}

// NewMetrics 创建并注册计数器；reg 为 nil 时返回 nil
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &Metrics{
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionlog",
			Name:      "entries_total",
			Help:      "Log entries accepted by the session backend.",
		}, []string{"level"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionlog",
			Name:      "crash_captures_total",
			Help:      "Crash logs written, by fault channel.",
		}, []string{"reason"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sessionlog",
			Name:      "crash_capture_failures_total",
			Help:      "Crash captures that could not be completed.",
		}),
	}
	var err error
	if m.entries, err = register(reg, m.entries); err != nil {
		return nil, err
	}
	if m.captures, err = register(reg, m.captures); err != nil {
		return nil, err
	}
	if m.failures, err = register(reg, m.failures); err != nil {
		return nil, err
	}
	return m, nil
}

// Hook 用于 zap.Hooks，统计每条日志
func (m *Metrics) Hook(ent zapcore.Entry) error {
	if m == nil {
		return nil
	}
	m.entries.WithLabelValues(levelLabel(ent.Level)).Inc()
	return nil
}

func (m *Metrics) captured(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "manual"
	}
	m.captures.WithLabelValues(reason).Inc()
}

func (m *Metrics) failed() {
	if m == nil {
		return
	}
	m.failures.Inc()
}

// register 注册收集器；同名收集器已存在时复用已注册的实例
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func levelLabel(l zapcore.Level) string {
	if l == zapcore.DPanicLevel {
		return "critical"
	}
	return l.String()
}
