// Package sessionlog 包是一个带崩溃捕获的结构化日志库。
//
// 每次运行写一个会话日志（启动时清空），进程出现未处理的 panic 或后台任务失败时，
// 把完整的会话日志连同故障详情写入一个带时间戳的崩溃日志。
//
// 示例：
//
//	err := sessionlog.Init(sessionlog.Options{
//	    SessionLogsDirectory: "Logs/Session",
//	    CrashLogsDirectory:   "Logs/Crash",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sessionlog.Close()
//	defer sessionlog.Recover()
//
//	sessionlog.Info("Service started")
//	sessionlog.Go(func() error { return sync(ctx) })
package sessionlog

import (
	"sync"
	"sync/atomic"

	"github.com/iuboy/sessionlog/config"
	"go.uber.org/zap"
)

// Options 是日志系统的主要配置结构
type Options = config.LoggerOptions
type OutputConfig = config.OutputConfig
type EncoderConfig = config.EncoderConfig
type FileConfig = config.FileConfig

type LogLevel = config.LogLevel
type OutputType = config.OutputType
type EncodingType = config.EncodingType

const (
	DebugLevel    = config.DebugLevel
	InfoLevel     = config.InfoLevel
	WarnLevel     = config.WarnLevel
	ErrorLevel    = config.ErrorLevel
	CriticalLevel = config.CriticalLevel

	JSON      = config.JSON
	PlainText = config.PlainText
	Console   = config.Console
	Debugger  = config.Debug
	File      = config.File
)

var (
	// 全局 logger 实例（并发安全）
	globalLogger atomic.Value // *Logger

	fallbackOnce sync.Once
	fallback     *Logger
)

// Init 初始化全局日志器；已有的全局日志器会被关闭
func Init(opts Options) error {
	logger, err := New(opts)
	if err != nil {
		return err
	}
	SetLogger(logger)
	return nil
}

// SetLogger 替换全局日志器；传入 nil 时关闭当前日志器并退回应急日志器
func SetLogger(logger *Logger) {
	if logger == nil {
		logger = fallbackLogger()
	}
	if prev, ok := globalLogger.Swap(logger).(*Logger); ok && prev != nil && prev != logger {
		_ = prev.Close()
	}
	zap.ReplaceGlobals(logger.Zap())
}

// Default 获取全局日志器，未初始化时返回应急日志器
func Default() *Logger {
	if logger, ok := globalLogger.Load().(*Logger); ok && logger != nil {
		return logger
	}
	return fallbackLogger()
}

// ------------------------------------------------------------------
// 标准日志 API（Level-based）
// ------------------------------------------------------------------

func Debug(msg string, fields ...zap.Field)    { Default().log(zap.DebugLevel, msg, fields) }
func Info(msg string, fields ...zap.Field)     { Default().log(zap.InfoLevel, msg, fields) }
func Warn(msg string, fields ...zap.Field)     { Default().log(zap.WarnLevel, msg, fields) }
func Error(msg string, fields ...zap.Field)    { Default().log(zap.ErrorLevel, msg, fields) }
func Critical(msg string, fields ...zap.Field) { Default().log(zap.DPanicLevel, msg, fields) }

func String(key, val string) zap.Field { return zap.String(key, val) }
func ErrorField(err error) zap.Field   { return zap.Error(err) }

// CaptureCrash 立即写出一份崩溃日志，之后全局日志器不再可用
func CaptureCrash(err error, message string) string {
	return Default().captureCrash(err, message)
}

// Recover 用于 defer：捕获 panic 并写出崩溃日志，然后重新 panic
func Recover() {
	if r := recover(); r != nil {
		Default().escalate(r)
	}
}

// Go 启动后台任务，其失败由全局日志器捕获
func Go(fn func() error) <-chan struct{} { return Default().Go(fn) }

// Sync 强制刷新所有日志输出缓冲
func Sync() error { return Default().Sync() }

// Close 注销故障拦截并关闭全局日志器
func Close() error { return Default().Close() }

// ------------------------------------------------------------------
// 内部：应急日志器（未初始化时使用）
// ------------------------------------------------------------------

func fallbackLogger() *Logger {
	fallbackOnce.Do(func() {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.Development = false
		z, err := cfg.Build()
		if err != nil {
			z = zap.NewNop()
		}
		fallback = newFallback(z)
	})
	return fallback
}
