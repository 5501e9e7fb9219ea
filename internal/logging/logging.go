// Package logging 创建解释器使用的 zap 日志记录器
package logging

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugEnv 设置后强制启用 debug 级别日志
const DebugEnv = "JAVM_DEBUG"

// Options 日志选项
type Options struct {
	Level string // debug / info / warn / error
	File  string // 日志文件路径，为空时输出到 stderr
}

// Logger 带运行 ID 的日志记录器
type Logger struct {
	*zap.Logger
	RunID string
	file  *os.File
}

// New 创建日志记录器。环境变量 JAVM_DEBUG 为 1/true/on 时级别强制为 debug
func New(opts Options) (*Logger, error) {
	level := zapcore.WarnLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}
	if debugForced() {
		level = zapcore.DebugLevel
	}

	var (
		sink zapcore.WriteSyncer
		file *os.File
	)
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		sink, file = zapcore.Lock(f), f
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, level)

	runID := uuid.New().String()
	return &Logger{
		Logger: zap.New(core).With(zap.String("run_id", runID)),
		RunID:  runID,
		file:   file,
	}, nil
}

// Nop 返回不输出任何内容的日志记录器
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Close 刷新并关闭日志。输出到 stderr 时忽略 Sync 错误（终端不支持 fsync）
func (l *Logger) Close() error {
	if l.file == nil {
		_ = l.Sync()
		return nil
	}
	return multierr.Append(l.Sync(), l.file.Close())
}

// IsDebug 是否启用 debug 级别
func (l *Logger) IsDebug() bool {
	return l.Core().Enabled(zapcore.DebugLevel)
}

func debugForced() bool {
	switch os.Getenv(DebugEnv) {
	case "1", "true", "on":
		return true
	default:
		return false
	}
}
