package sunscope

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discardHandler drops every record; Enabled is false so callers skip
// formatting.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(discardHandler{}))
}

// SetLogger sets the package logger. By default sunscope logs nothing; nil
// restores that. Safe for concurrent use.
//
// Levels:
//   - Debug: per-frame timings and sun positions
//   - Info: export start and completion
//   - Warn: failed or canceled exports
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
