package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 定义日志初始化配置
// Level 支持 debug/info/warn/error，Environment 支持 prod/dev 等
// Format 为 json 时与 prod 环境一样输出 JSON
// File 非空时同时写入按大小轮转的日志文件
type Config struct {
	Level       string
	Environment string
	Format      string
	WithSource  bool
	File        string
}

var (
	global *slog.Logger
	once   sync.Once
)

func levelFromString(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level: " + level)
	}
}

func output(cfg Config) io.Writer {
	if cfg.File == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
}

// New 根据配置创建新的 slog.Logger，不设置全局实例
func New(cfg Config) (*slog.Logger, error) {
	lvl, err := levelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}

	w := output(cfg)
	handlerOpts := &slog.HandlerOptions{Level: lvl, AddSource: cfg.WithSource}
	var handler slog.Handler
	if strings.ToLower(cfg.Environment) == "prod" || strings.ToLower(cfg.Environment) == "production" ||
		strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler), nil
}

// Init 初始化全局日志实例，重复调用将返回首次创建的 logger
func Init(cfg Config) (*slog.Logger, error) {
	var initErr error
	once.Do(func() {
		global, initErr = New(cfg)
	})
	return global, initErr
}

// L 返回已初始化的全局 logger，未初始化时回退到 slog.Default()
func L() *slog.Logger {
	if global == nil {
		return slog.Default()
	}
	return global
}

// LogReportProcessing 记录周报处理事件的结构化日志
// operation: aggregate/export
// action: start/success/rejected/error；rejected 为调用方请求无效，记 WARN，只有 error 记 ERROR
// reportCount: 参与处理的周报数
// durationMs: 处理耗时（毫秒）
// errorCode: 错误代码（可选）
func LogReportProcessing(ctx context.Context, logger *slog.Logger, operation, action string, reportCount int, durationMs int64, errorCode string) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("action", action),
		slog.Int("report_count", reportCount),
		slog.Int64("duration_ms", durationMs),
	}
	if errorCode != "" {
		attrs = append(attrs, slog.String("error_code", errorCode))
	}

	switch action {
	case "error":
		logger.LogAttrs(ctx, slog.LevelError, "Report processing error", attrs...)
	case "rejected":
		logger.LogAttrs(ctx, slog.LevelWarn, "Report request rejected", attrs...)
	default:
		logger.LogAttrs(ctx, slog.LevelInfo, "Report processing event", attrs...)
	}
}
