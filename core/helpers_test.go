package core_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iuboy/sessionlog/config"
	"github.com/iuboy/sessionlog/core"
	"github.com/iuboy/sessionlog/internal/adapter"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// fileOnly 只启用会话文件输出，刷新间隔足够长，保证只有关闭时才落盘
func fileOnly(t *testing.T) config.LoggerOptions {
	t.Helper()
	root := t.TempDir()
	opts := config.LoggerOptions{
		SessionLogsDirectory: filepath.Join(root, "Session"),
		CrashLogsDirectory:   filepath.Join(root, "Crash"),
		Outputs: []config.OutputConfig{
			{Type: config.File, Level: config.DebugLevel, Encoding: config.PlainText, Enabled: true},
		},
		File:             config.FileConfig{FlushInterval: time.Hour, BufferSize: 1 << 20},
		DiagnosticOutput: &bytes.Buffer{},
	}
	opts.ApplyDefaults()
	return opts
}

func openSession(t *testing.T, opts config.LoggerOptions, metrics *core.Metrics) *core.Session {
	t.Helper()
	s, err := core.OpenSession(opts, adapter.Factory(opts), metrics)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Dispose() })
	return s
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func crashFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "crash_*.log"))
	require.NoError(t, err)
	return matches
}

func zapEntry(level zapcore.Level) zapcore.Entry {
	return zapcore.Entry{Level: level, Time: time.Now()}
}
