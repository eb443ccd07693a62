package core

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/iuboy/sessionlog/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewBackend 创建日志后端：每个启用的输出一个 core，用 Tee 扇出。
// 返回的同步器由调用方负责关闭。
func NewBackend(opts config.LoggerOptions, factory SyncerFactory, extra ...zap.Option) (*zap.Logger, []WriteSyncer, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, fmt.Errorf("配置验证失败: %w", err)
	}

	cores, syncers, err := buildCores(opts, factory)
	if err != nil {
		return nil, nil, err
	}

	diag := opts.DiagnosticOutput
	if diag == nil {
		diag = os.Stderr
	}
	zopts := append([]zap.Option{
		zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(diag))),
	}, extra...)

	logger := zap.New(zapcore.NewTee(cores...), zopts...)
	if opts.ServiceName != "" {
		logger = logger.With(zap.String("service", opts.ServiceName))
	}
	return logger, syncers, nil
}

func buildCores(opts config.LoggerOptions, factory SyncerFactory) ([]zapcore.Core, []WriteSyncer, error) {
	var (
		cores   []zapcore.Core
		syncers []WriteSyncer
	)

	for _, out := range opts.Outputs {
		if !out.Enabled {
			continue
		}

		// 创建同步器
		syncer, err := factory(out)
		if err != nil {
			closeAll(syncers)
			return nil, nil, fmt.Errorf("创建同步器失败: %w", err)
		}
		syncers = append(syncers, syncer)

		encoder := createEncoder(opts.Encoder, out.Encoding)
		cores = append(cores, zapcore.NewCore(encoder, syncer, out.Level.ZapLevel()))
	}

	if len(cores) == 0 {
		return nil, nil, errors.New("没有启用的日志输出")
	}
	return cores, syncers, nil
}

func closeAll(syncers []WriteSyncer) error {
	var errs []error
	for _, s := range syncers {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func createEncoder(cfg config.EncoderConfig, encoding config.EncodingType) zapcore.Encoder {
	cfg.ApplyDefaults()
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     cfg.MessageKey,
		LevelKey:       cfg.LevelKey,
		TimeKey:        cfg.TimeKey,
		NameKey:        "logger",
		StacktraceKey:  cfg.StacktraceKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     createTimeEncoder(cfg),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	switch encoding {
	case config.JSON:
		return zapcore.NewJSONEncoder(encoderConfig)
	default:
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
}

func createTimeEncoder(cfg config.EncoderConfig) zapcore.TimeEncoder {
	loc := cfg.Location()
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format(cfg.TimeFormat))
	}
}

// levelEncoder 大写级别名，DPanic 显示为 CRITICAL
func levelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == zapcore.DPanicLevel {
		enc.AppendString("CRITICAL")
		return
	}
	enc.AppendString(l.CapitalString())
}
