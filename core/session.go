package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/flock"
	"github.com/iuboy/sessionlog/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrSessionLocked 会话目录已被其他持有者锁定（ExclusiveSession）
var ErrSessionLocked = errors.New("session log directory is locked by another process")

// SessionState 会话日志通道的状态
type SessionState int32

const (
	StateUninitialized SessionState = iota
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Session 会话日志通道。后端独占会话文件的写入；Dispose 之后文件内容完整且不再变化。
type Session struct {
	path string

	// 日志调用持读锁，Dispose 持写锁：Dispose 返回时不存在进行中的写入
	mu      sync.RWMutex
	state   SessionState
	logger  *zap.Logger
	syncers []WriteSyncer
	lock    *flock.Flock
}

// OpenSession 创建目录、清除上一次运行留下的会话文件并启动后端
func OpenSession(opts config.LoggerOptions, factory SyncerFactory, metrics *Metrics, extra ...zap.Option) (*Session, error) {
	opts.ApplyDefaults()
	if err := opts.EnsureDirectories(); err != nil {
		return nil, err
	}

	s := &Session{path: opts.SessionLogPath()}

	if opts.ExclusiveSession {
		s.lock = flock.New(opts.SessionLockPath())
		locked, err := s.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock session directory: %w", err)
		}
		if !locked {
			return nil, ErrSessionLocked
		}
	}

	if err := removeSessionSegments(s.path); err != nil {
		s.unlock()
		return nil, fmt.Errorf("remove stale session log: %w", err)
	}

	if metrics != nil {
		extra = append(extra, zap.Hooks(metrics.Hook))
	}
	logger, syncers, err := NewBackend(opts, factory, extra...)
	if err != nil {
		s.unlock()
		return nil, err
	}

	s.logger = logger
	s.syncers = syncers
	s.state = StateActive
	return s, nil
}

// Path 会话日志文件路径
func (s *Session) Path() string { return s.path }

// State 当前状态
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Log 写一条日志；会话关闭后为空操作
func (s *Session) Log(level zapcore.Level, msg string, fields ...zap.Field) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateActive {
		return
	}
	if ce := s.logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// With 返回附加了字段的 zap.Logger，供需要原生 API 的调用方使用。
// 注意：通过它写入的日志不受关闭状态保护。
func (s *Session) With(fields ...zap.Field) *zap.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger.With(fields...)
}

// Sync 刷出缓冲但不关闭
func (s *Session) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateActive {
		return nil
	}
	var errs []error
	for _, ws := range s.syncers {
		if err := ws.Sync(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispose 同步刷出并关闭所有输出，可重复调用
func (s *Session) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed

	err := closeAll(s.syncers)
	s.syncers = nil
	s.unlock()
	return err
}

func (s *Session) unlock() {
	if s.lock != nil {
		_ = s.lock.Unlock()
		s.lock = nil
	}
}
