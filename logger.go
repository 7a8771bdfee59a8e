package vfield

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// live tracks engines whose graphics context should follow SetLogger.
var (
	liveMu sync.Mutex
	live   = make(map[*Engine]struct{})
)

// SetLogger configures the logger for vfield and the graphics contexts of
// live engines. By default, vfield produces no log output.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by vfield:
//   - [slog.LevelDebug]: GPU resource lifecycle (textures, programs, frame ticks)
//   - [slog.LevelInfo]: dataset swaps and animation state transitions
//   - [slog.LevelWarn]: host event handlers that failed and were dropped
//
// Example:
//
//	vfield.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	liveMu.Lock()
	defer liveMu.Unlock()
	for e := range live {
		propagateLogger(e.ctx, l)
	}
}

// Logger returns the current logger used by vfield.
// Sub-packages (integration/headless, cmd/vfieldprobe) call this to share
// the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by graphics contexts that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a graphics context if it implements
// the loggerSetter interface.
func propagateLogger(ctx any, l *slog.Logger) {
	if ls, ok := ctx.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

func trackEngine(e *Engine) {
	liveMu.Lock()
	live[e] = struct{}{}
	liveMu.Unlock()
	propagateLogger(e.ctx, Logger())
}

func untrackEngine(e *Engine) {
	liveMu.Lock()
	delete(live, e)
	liveMu.Unlock()
}
