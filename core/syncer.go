package core

import "github.com/iuboy/sessionlog/config"

// WriteSyncer 一路输出；Close 必须在返回前刷出所有缓冲数据
type WriteSyncer interface {
	Sync() error
	Close() error
	Write(p []byte) (n int, err error)
}

// SyncerFactory 按输出配置创建同步器
type SyncerFactory func(config.OutputConfig) (WriteSyncer, error)
