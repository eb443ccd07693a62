package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/iuboy/sessionlog/config"
	"github.com/iuboy/sessionlog/core"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// fileAdapter 会话日志文件：lumberjack 负责文件，BufferedWriteSyncer 负责缓冲与定时刷新
type fileAdapter struct {
	lj     *lumberjack.Logger
	buf    *zapcore.BufferedWriteSyncer
	mu     sync.RWMutex
	closed atomic.Bool
}

func newFileAdapter(path string, cfg config.FileConfig) (core.WriteSyncer, error) {
	if path == "" {
		return nil, fmt.Errorf("文件路径不能为空")
	}
	cfg.ApplyDefaults()

	if err := os.MkdirAll(filepath.Dir(path), config.DefaultDirMode); err != nil {
		return nil, err
	}

	// 超过 MaxSizeMB 时轮转为 session-<时间>.log。备份全部保留（MaxBackups 为 0），
	// 崩溃日志按顺序拼接所有分段，下一次运行启动时统一删除。
	lj := &lumberjack.Logger{
		Filename:  path,
		MaxSize:   cfg.MaxSizeMB,
		LocalTime: true,
	}
	// 立即创建文件，而不是等到第一次写入。
	// 注意：首次打开会启动 lumberjack 的清理 goroutine，Close 不会结束它（每个 Logger 一个）。
	if _, err := lj.Write(nil); err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}

	return &fileAdapter{
		lj: lj,
		buf: &zapcore.BufferedWriteSyncer{
			WS:            zapcore.AddSync(lj),
			Size:          cfg.BufferSize,
			FlushInterval: cfg.FlushInterval,
		},
	}, nil
}

func (f *fileAdapter) Write(p []byte) (n int, err error) {
	if f.closed.Load() {
		return 0, os.ErrClosed
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.buf.Write(p)
}

func (f *fileAdapter) Sync() error {
	if f.closed.Load() {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.buf.Sync()
}

// Close 先停止缓冲器（同步刷出剩余数据），再关闭文件
func (f *fileAdapter) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.buf.Stop(); err != nil {
		_ = f.lj.Close()
		return fmt.Errorf("file flush failed: %w", err)
	}
	if err := f.lj.Close(); err != nil {
		return fmt.Errorf("file close failed: %w", err)
	}
	return nil
}
