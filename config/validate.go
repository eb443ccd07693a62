package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
)

func (l LogLevel) Valid() bool {
	for _, level := range []LogLevel{DebugLevel, InfoLevel, WarnLevel, ErrorLevel, CriticalLevel} {
		if l == level {
			return true
		}
	}
	return false
}

// ZapLevel 映射到 zap 级别；critical 使用 DPanic，生产模式下只记录不触发 panic
func (l LogLevel) ZapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case CriticalLevel:
		return zapcore.DPanicLevel
	default:
		return zapcore.DebugLevel
	}
}

func (t OutputType) Valid() bool {
	switch t {
	case Console, Debug, File:
		return true
	default:
		return false
	}
}

func (e EncodingType) Valid() bool {
	return e == JSON || e == PlainText
}

// Validate 验证输出配置
func (oc *OutputConfig) Validate() error {
	if !oc.Type.Valid() {
		return fmt.Errorf("invalid output type: %s", oc.Type)
	}
	if oc.Level == "" {
		oc.Level = DebugLevel
	}
	if !oc.Level.Valid() {
		return fmt.Errorf("invalid log level: %s", oc.Level)
	}
	if oc.Encoding == "" {
		oc.Encoding = PlainText
	}
	if !oc.Encoding.Valid() {
		return fmt.Errorf("invalid encoding: %s", oc.Encoding)
	}
	return nil
}

// ApplyDefaults 设置文件写入默认值
func (fc *FileConfig) ApplyDefaults() *FileConfig {
	if fc.MaxSizeMB <= 0 {
		fc.MaxSizeMB = DefaultFileMaxSizeMB
	}
	if fc.BufferSize <= 0 {
		fc.BufferSize = DefaultFileBufferSize
	}
	if fc.FlushInterval <= 0 {
		fc.FlushInterval = DefaultFlushInterval
	}
	return fc
}

// ApplyDefaults 设置编码器默认值
func (ec *EncoderConfig) ApplyDefaults() *EncoderConfig {
	if ec.TimeFormat == "" {
		ec.TimeFormat = DefaultTimeFormat
	}
	if ec.MessageKey == "" {
		ec.MessageKey = "msg"
	}
	if ec.LevelKey == "" {
		ec.LevelKey = "level"
	}
	if ec.TimeKey == "" {
		ec.TimeKey = "time"
	}
	if ec.StacktraceKey == "" {
		ec.StacktraceKey = "stacktrace"
	}
	return ec
}

// Location 返回编码时区，未配置或无法加载时使用本地时区
func (ec *EncoderConfig) Location() *time.Location {
	if ec.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(ec.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ApplyDefaults 填充目录、输出和编码器默认值
func (lo *LoggerOptions) ApplyDefaults() *LoggerOptions {
	if lo.SessionLogsDirectory == "" {
		lo.SessionLogsDirectory = DefaultSessionLogsDirectory
	}
	if lo.CrashLogsDirectory == "" {
		lo.CrashLogsDirectory = DefaultCrashLogsDirectory
	}
	if len(lo.Outputs) == 0 {
		lo.Outputs = DefaultOutputs()
	}
	lo.Encoder.ApplyDefaults()
	lo.File.ApplyDefaults()
	if lo.DiagnosticOutput == nil {
		lo.DiagnosticOutput = os.Stderr
	}
	return lo
}

// Validate 验证日志配置
func (lo *LoggerOptions) Validate() error {
	if lo.SessionLogsDirectory == "" {
		return errors.New("session logs directory is required")
	}
	if lo.CrashLogsDirectory == "" {
		return errors.New("crash logs directory is required")
	}
	files := 0
	for i := range lo.Outputs {
		if err := lo.Outputs[i].Validate(); err != nil {
			return fmt.Errorf("output %d validation failed: %w", i, err)
		}
		if lo.Outputs[i].Type == File && lo.Outputs[i].Enabled {
			files++
		}
	}
	if files > 1 {
		return errors.New("at most one file output is allowed")
	}
	if lo.Encoder.TimeZone != "" {
		if _, err := time.LoadLocation(lo.Encoder.TimeZone); err != nil {
			return fmt.Errorf("invalid time zone: %s", lo.Encoder.TimeZone)
		}
	}
	return nil
}

// SessionLogPath 返回固定的会话日志路径
func (lo *LoggerOptions) SessionLogPath() string {
	return filepath.Join(lo.SessionLogsDirectory, SessionLogFileName)
}

// SessionLockPath 返回会话锁文件路径
func (lo *LoggerOptions) SessionLockPath() string {
	return filepath.Join(lo.SessionLogsDirectory, SessionLockFileName)
}

// EnsureDirectories 创建会话与崩溃日志目录（已存在则忽略）
func (lo *LoggerOptions) EnsureDirectories() error {
	for _, dir := range []string{lo.SessionLogsDirectory, lo.CrashLogsDirectory} {
		if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
			return fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}
	return nil
}
