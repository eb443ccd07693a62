package config

import (
	"io"
	"time"

	"github.com/iuboy/sessionlog/fault"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultSessionLogsDirectory = "Logs/Session"
	DefaultCrashLogsDirectory   = "Logs/Crash"
	SessionLogFileName          = "session.log"
	SessionLockFileName         = "session.lock"
	DefaultFileMaxSizeMB        = 1024
	DefaultFileBufferSize       = 256 * 1024
	DefaultFlushInterval        = time.Second
	DefaultTimeFormat           = "2006-01-02 15:04:05.000 -07:00"
	DefaultDirMode              = 0755
)

// LogLevel 定义支持的日志级别
type LogLevel string

const (
	DebugLevel    LogLevel = "debug"
	InfoLevel     LogLevel = "info"
	WarnLevel     LogLevel = "warn"
	ErrorLevel    LogLevel = "error"
	CriticalLevel LogLevel = "critical"
)

// OutputType 定义支持的输出类型
type OutputType string

const (
	Console OutputType = "console" // 标准输出
	Debug   OutputType = "debug"   // 调试流（stderr）
	File    OutputType = "file"    // 会话日志文件
)

// EncodingType 定义编码类型
type EncodingType string

const (
	JSON      EncodingType = "json"
	PlainText EncodingType = "console"
)

// OutputConfig 定义日志输出配置
type OutputConfig struct {
	Type     OutputType   `json:"type" mapstructure:"type"`         // 输出类型
	Level    LogLevel     `json:"level" mapstructure:"level"`       // 日志级别
	Encoding EncodingType `json:"encoding" mapstructure:"encoding"` // 编码格式
	Enabled  bool         `json:"enabled" mapstructure:"enabled"`   // 是否启用
}

// FileConfig 定义会话日志文件的写入参数
type FileConfig struct {
	MaxSizeMB     int           `json:"maxSizeMB" mapstructure:"max_size_mb"`         // 单文件上限(MB)
	BufferSize    int           `json:"bufferSize" mapstructure:"buffer_size"`        // 写缓冲大小(字节)
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flush_interval"` // 后台刷新间隔
}

// EncoderConfig 定义日志编码器配置
type EncoderConfig struct {
	TimeFormat    string `json:"timeFormat" mapstructure:"time_format"`
	TimeZone      string `json:"timeZone" mapstructure:"time_zone"` // 空表示本地时区
	MessageKey    string `json:"messageKey" mapstructure:"message_key"`
	LevelKey      string `json:"levelKey" mapstructure:"level_key"`
	TimeKey       string `json:"timeKey" mapstructure:"time_key"`
	StacktraceKey string `json:"stacktraceKey" mapstructure:"stacktrace_key"`
}

// LoggerOptions 定义会话日志与崩溃日志的核心配置
// 构造完成后不再修改
type LoggerOptions struct {
	SessionLogsDirectory string         `json:"sessionLogsDirectory" mapstructure:"session_logs_directory"`
	CrashLogsDirectory   string         `json:"crashLogsDirectory" mapstructure:"crash_logs_directory"`
	ServiceName          string         `json:"serviceName" mapstructure:"service_name"`
	ExclusiveSession     bool           `json:"exclusiveSession" mapstructure:"exclusive_session"` // 会话目录加文件锁
	Outputs              []OutputConfig `json:"outputs" mapstructure:"outputs"`
	Encoder              EncoderConfig  `json:"encoder" mapstructure:"encoder"`
	File                 FileConfig     `json:"file" mapstructure:"file"`

	// 以下字段仅在运行时注入，不参与序列化
	Registerer       prometheus.Registerer `json:"-" mapstructure:"-"`
	DiagnosticOutput io.Writer             `json:"-" mapstructure:"-"`
	Hub              *fault.Hub            `json:"-" mapstructure:"-"`
}

// DefaultOutputs 返回默认的三路输出：控制台、调试流、会话文件
func DefaultOutputs() []OutputConfig {
	return []OutputConfig{
		{Type: Console, Level: DebugLevel, Encoding: PlainText, Enabled: true},
		{Type: Debug, Level: DebugLevel, Encoding: PlainText, Enabled: true},
		{Type: File, Level: DebugLevel, Encoding: PlainText, Enabled: true},
	}
}

// Default 返回带默认值的配置
func Default() LoggerOptions {
	opts := LoggerOptions{}
	opts.ApplyDefaults()
	return opts
}
