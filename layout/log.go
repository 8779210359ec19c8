package layout

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler 丢弃全部日志；Enabled 返回 false，调用方不会格式化消息。
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger 设置布局与渲染共用的日志器，默认不输出任何日志。
// 传入 nil 恢复静默。可并发调用。
//
// 使用的级别：
//   - [slog.LevelDebug]：每个段落的行数、字体与度量
//   - [slog.LevelWarn]：可继续的问题，例如字符宽于行宽导致段落被截断
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger 返回当前日志器，renderer 等子包通过它共享配置。
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
