package core_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iuboy/sessionlog/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// counterValue 从注册表中取出指定标签的计数器值，不存在时为 0
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNewMetricsNilRegisterer(t *testing.T) {
	m, err := core.NewMetrics(nil)
	assert.NoError(t, err)
	assert.Nil(t, m)
	assert.NoError(t, m.Hook(zapEntry(zap.InfoLevel)))
}

func TestMetricsCountEntries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := core.NewMetrics(reg)
	require.NoError(t, err)

	s := openSession(t, fileOnly(t), m)
	s.Log(zap.InfoLevel, "a")
	s.Log(zap.InfoLevel, "b")
	s.Log(zap.DPanicLevel, "c")
	require.NoError(t, s.Dispose())
	s.Log(zap.InfoLevel, "after close")

	assert.Equal(t, 2.0, counterValue(t, reg, "sessionlog_entries_total", "level", "info"))
	assert.Equal(t, 1.0, counterValue(t, reg, "sessionlog_entries_total", "level", "critical"))
}

func TestMetricsCountCaptures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := core.NewMetrics(reg)
	require.NoError(t, err)

	dir := t.TempDir()
	w := core.NewCrashWriter(core.CrashWriterOptions{Directory: dir, Metrics: m, Diagnostic: &nopWriter{}})
	require.NotEmpty(t, w.Capture(core.Report{Message: "manual"}))
	require.NotEmpty(t, w.Capture(core.Report{Reason: core.ReasonBackground, Message: core.ReasonBackground, Err: errors.New("x")}))

	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	broken := core.NewCrashWriter(core.CrashWriterOptions{Directory: blocker, Metrics: m, Diagnostic: &nopWriter{}})
	require.Empty(t, broken.Capture(core.Report{Message: "x"}))

	assert.Equal(t, 1.0, counterValue(t, reg, "sessionlog_crash_captures_total", "reason", "manual"))
	assert.Equal(t, 1.0, counterValue(t, reg, "sessionlog_crash_captures_total", "reason", core.ReasonBackground))
	assert.Equal(t, 1.0, counterValue(t, reg, "sessionlog_crash_capture_failures_total", "", ""))
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := core.NewMetrics(reg)
	require.NoError(t, err)
	second, err := core.NewMetrics(reg)
	require.NoError(t, err)

	require.NoError(t, first.Hook(zapEntry(zap.WarnLevel)))
	require.NoError(t, second.Hook(zapEntry(zap.WarnLevel)))
	assert.Equal(t, 2.0, counterValue(t, reg, "sessionlog_entries_total", "level", "warn"))
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }
