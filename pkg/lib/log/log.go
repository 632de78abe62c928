// Package log 是连接器各组件共用的日志入口
//
// 基于 log/slog。组件在包级别声明
//
//	var logger = log.Logger("core/routing")
//
// 输出目标在每次调用时解析，Setup 可以晚于包初始化执行。
//
// 进程启动时读取环境变量 ILP_LOG_LEVEL（debug/info/warn/error）
// 与 ILP_LOG_FORMAT（text/json）。
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var root atomic.Pointer[slog.Logger]

// Setup 按级别与格式重建根 logger，format 为 json 时输出 JSON
func Setup(w io.Writer, level slog.Level, format string) {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		SetDefault(slog.New(slog.NewJSONHandler(w, opts)))
		return
	}
	SetDefault(slog.New(slog.NewTextHandler(w, opts)))
}

// SetDefault 替换根 logger
func SetDefault(l *slog.Logger) { root.Store(l) }

// Default 当前根 logger
func Default() *slog.Logger { return root.Load() }

// ParseLevel 级别名不区分大小写，无法识别时取 info
func ParseLevel(name string) slog.Level {
	var lvl slog.Level
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "warning":
		lvl = slog.LevelWarn
	default:
		if lvl.UnmarshalText([]byte(n)) != nil {
			lvl = slog.LevelInfo
		}
	}
	return lvl
}

// ComponentLogger 带 component 属性的 logger
type ComponentLogger struct {
	name   string
	cached atomic.Pointer[boundLogger]
}

type boundLogger struct {
	parent *slog.Logger
	child  *slog.Logger
}

// Logger 返回组件 logger
func Logger(component string) *ComponentLogger {
	return &ComponentLogger{name: component}
}

// current 根 logger 未变化时复用已绑定 component 的子 logger
func (l *ComponentLogger) current() *slog.Logger {
	parent := Default()
	if b := l.cached.Load(); b != nil && b.parent == parent {
		return b.child
	}
	b := &boundLogger{parent: parent, child: parent.With("component", l.name)}
	l.cached.Store(b)
	return b.child
}

// Enabled 用于跳过开销较大的日志参数构造
func (l *ComponentLogger) Enabled(level slog.Level) bool {
	return Default().Enabled(context.Background(), level)
}

func (l *ComponentLogger) Debug(msg string, args ...any) { l.current().Debug(msg, args...) }

func (l *ComponentLogger) Info(msg string, args ...any) { l.current().Info(msg, args...) }

func (l *ComponentLogger) Warn(msg string, args ...any) { l.current().Warn(msg, args...) }

func (l *ComponentLogger) Error(msg string, args ...any) { l.current().Error(msg, args...) }

func init() {
	Setup(os.Stderr, ParseLevel(os.Getenv("ILP_LOG_LEVEL")), os.Getenv("ILP_LOG_FORMAT"))
}
