package adapter

import (
	"fmt"

	"github.com/iuboy/sessionlog/config"
	"github.com/iuboy/sessionlog/core"
)

// CreateSyncer 根据输出配置创建同步器
func CreateSyncer(out config.OutputConfig, opts config.LoggerOptions) (core.WriteSyncer, error) {
	if !out.Enabled {
		return nil, fmt.Errorf("输出类型已被禁用: %s", out.Type)
	}

	switch out.Type {
	case config.Console:
		return newStdoutAdapter()
	case config.Debug:
		return newDebugAdapter()
	case config.File:
		return newFileAdapter(opts.SessionLogPath(), opts.File)
	default:
		return nil, fmt.Errorf("不支持的输出类型: %s", out.Type)
	}
}

// Factory 绑定配置，返回 core 使用的同步器工厂
func Factory(opts config.LoggerOptions) core.SyncerFactory {
	return func(out config.OutputConfig) (core.WriteSyncer, error) {
		return CreateSyncer(out, opts)
	}
}
