// 包 logger：统一初始化与获取日志器，通过环境变量控制级别、格式与可选的滚动日志文件
package logger

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	rotating      *lumberjack.Logger
)

// fanout：按级别把记录分发到控制台与文件两个处理器
type fanout struct {
	console slog.Handler
	file    slog.Handler
}

func (h *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level) || h.file.Enabled(ctx, level)
}

func (h *fanout) Handle(ctx context.Context, r slog.Record) error {
	if h.file.Enabled(ctx, r.Level) {
		if err := h.file.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	if h.console.Enabled(ctx, r.Level) {
		return h.console.Handle(ctx, r)
	}
	return nil
}

func (h *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fanout{console: h.console.WithAttrs(attrs), file: h.file.WithAttrs(attrs)}
}

func (h *fanout) WithGroup(name string) slog.Handler {
	return &fanout{console: h.console.WithGroup(name), file: h.file.WithGroup(name)}
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Setup：初始化默认日志器
// 约束：控制台输出到标准错误，LOG_FORMAT=json 时为 JSON；设置 LOG_FILE 时另以 JSON 写入滚动文件（Debug 及以上）
func Setup() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	lvl := levelFromEnv()
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	if path := os.Getenv("LOG_FILE"); path != "" {
		maxMB := 10
		if v := os.Getenv("LOG_FILE_MAX_MB"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				maxMB = n
			}
		}
		if rotating != nil {
			_ = rotating.Close()
		}
		rotating = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxMB,
			MaxBackups: 3,
			LocalTime:  true,
		}
		h = &fanout{
			console: h,
			file:    slog.NewJSONHandler(rotating, &slog.HandlerOptions{Level: slog.LevelDebug}),
		}
	}
	defaultLogger = slog.New(h)
	return defaultLogger
}

// L：获取默认日志器，未初始化时回退到 Setup
func L() *slog.Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		return Setup()
	}
	return l
}

// Close 关闭滚动日志文件；未启用文件输出时为空操作
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if rotating == nil {
		return nil
	}
	err := rotating.Close()
	rotating = nil
	return err
}
