package sessionlog

import (
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/iuboy/sessionlog/config"
	"github.com/iuboy/sessionlog/core"
	"github.com/iuboy/sessionlog/fault"
	"github.com/iuboy/sessionlog/internal/adapter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 会话日志 + 崩溃捕获。并发安全。
//
// 崩溃捕获会关闭后端，之后的日志调用都是空操作；Logger 不应在崩溃捕获后继续使用。
type Logger struct {
	id          string
	hub         *fault.Hub
	session     *core.Session
	crash       *core.CrashWriter
	interceptor *core.Interceptor

	// 仅应急日志器使用
	fallback *zap.Logger
}

// New 创建日志器：准备目录、清空会话日志、启动后端并注册故障拦截
func New(opts Options) (*Logger, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	metrics, err := core.NewMetrics(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("注册指标失败: %w", err)
	}

	session, err := core.OpenSession(opts, adapter.Factory(opts), metrics)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		id:      uuid.NewString(),
		hub:     opts.Hub,
		session: session,
	}
	if l.hub == nil {
		l.hub = fault.Process()
	}
	l.crash = core.NewCrashWriter(core.CrashWriterOptions{
		Directory:   opts.CrashLogsDirectory,
		SessionPath: session.Path(),
		SessionID:   l.id,
		Backend:     session,
		Metrics:     metrics,
		Diagnostic:  opts.DiagnosticOutput,
	})
	l.interceptor = core.Intercept(l.hub, func(r core.Report) { l.crash.Capture(r) })
	return l, nil
}

func newFallback(z *zap.Logger) *Logger {
	opts := config.Default()
	return &Logger{
		id:       uuid.NewString(),
		hub:      fault.Process(),
		fallback: z,
		crash: core.NewCrashWriter(core.CrashWriterOptions{
			Directory:  opts.CrashLogsDirectory,
			Diagnostic: opts.DiagnosticOutput,
		}),
	}
}

func (l *Logger) Debug(msg string, fields ...zap.Field)    { l.log(zap.DebugLevel, msg, fields) }
func (l *Logger) Info(msg string, fields ...zap.Field)     { l.log(zap.InfoLevel, msg, fields) }
func (l *Logger) Warn(msg string, fields ...zap.Field)     { l.log(zap.WarnLevel, msg, fields) }
func (l *Logger) Error(msg string, fields ...zap.Field)    { l.log(zap.ErrorLevel, msg, fields) }
func (l *Logger) Critical(msg string, fields ...zap.Field) { l.log(zap.DPanicLevel, msg, fields) }

// log 给消息加上 "文件.成员: " 前缀；调用链固定为 用户代码 -> Debug/Info... -> log
func (l *Logger) log(level zapcore.Level, msg string, fields []zap.Field) {
	msg = core.Tag(core.CallerTag(2), msg)
	if l.session == nil {
		if ce := l.fallback.Check(level, msg); ce != nil {
			ce.Write(fields...)
		}
		return
	}
	l.session.Log(level, msg, fields...)
}

// CaptureCrash 关闭后端并写出崩溃日志，返回崩溃日志路径（失败时为空）。从不 panic。
// err 可以为 nil；err 不带调用栈时记录当前调用栈。
func (l *Logger) CaptureCrash(err error, message string) string {
	return l.captureCrash(err, message)
}

func (l *Logger) captureCrash(err error, message string) string {
	r := core.Report{Err: err, Message: message}
	if err != nil && !core.HasStackTrace(err) {
		r.Stack = debug.Stack()
	}
	return l.crash.Capture(r)
}

// Recover 用于 defer：把逃逸的 panic 投递到 Unhandled 通道（写出崩溃日志）后重新 panic
func (l *Logger) Recover() {
	if r := recover(); r != nil {
		l.escalate(r)
	}
}

func (l *Logger) escalate(r any) {
	l.hub.Escalate(r, debug.Stack())
}

// Go 启动后台任务；任务 panic 或返回 error 时经 Background 通道写出崩溃日志。
// 返回的通道在任务结束且崩溃日志写完后关闭。
func (l *Logger) Go(fn func() error) <-chan struct{} {
	return l.hub.Go(fn)
}

// Sync 刷出缓冲，不关闭
func (l *Logger) Sync() error {
	if l.session == nil {
		return l.fallback.Sync()
	}
	return l.session.Sync()
}

// Close 注销故障拦截并关闭后端，可重复调用
func (l *Logger) Close() error {
	if l.interceptor != nil {
		l.interceptor.Unregister()
	}
	if l.session == nil {
		return nil
	}
	return l.session.Dispose()
}

// SessionID 本次运行的会话标识，写入崩溃日志
func (l *Logger) SessionID() string { return l.id }

// SessionLogPath 会话日志文件路径
func (l *Logger) SessionLogPath() string {
	if l.session == nil {
		return ""
	}
	return l.session.Path()
}

// Zap 返回底层 zap.Logger
func (l *Logger) Zap() *zap.Logger {
	if l.session == nil {
		return l.fallback
	}
	return l.session.With()
}
