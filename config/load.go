package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 SESSIONLOG_CRASH_LOGS_DIRECTORY
const EnvPrefix = "SESSIONLOG"

// Load 从配置文件（yaml/json/toml，按扩展名识别）和环境变量加载配置
// path 为空时只使用默认值和环境变量
func Load(path string) (LoggerOptions, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return LoggerOptions{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var opts LoggerOptions
	if err := v.Unmarshal(&opts); err != nil {
		return LoggerOptions{}, fmt.Errorf("decode config: %w", err)
	}
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return LoggerOptions{}, fmt.Errorf("config validation failed: %w", err)
	}
	return opts, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("session_logs_directory", DefaultSessionLogsDirectory)
	v.SetDefault("crash_logs_directory", DefaultCrashLogsDirectory)
	v.SetDefault("service_name", "")
	v.SetDefault("exclusive_session", false)

	v.SetDefault("encoder.time_format", DefaultTimeFormat)
	v.SetDefault("encoder.time_zone", "")

	v.SetDefault("file.max_size_mb", DefaultFileMaxSizeMB)
	v.SetDefault("file.buffer_size", DefaultFileBufferSize)
	v.SetDefault("file.flush_interval", DefaultFlushInterval)
}
