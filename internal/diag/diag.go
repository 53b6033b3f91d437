// Package diag carries syncore's own diagnostics: lenient lock misuse, panics
// in detached threads and sink failures nobody else handles.
//
// Diagnostics are structured slog records rendered by charmbracelet/log on
// stderr. Under go test they are discarded unless a test installs its own
// logger with SetLogger.
package diag

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"

	"github.com/wayneeseguin/syncore/internal/config"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(newDefault(config.Load()))
}

func newDefault(d config.Defaults) *slog.Logger {
	if d.TestMode {
		return slog.New(slog.DiscardHandler)
	}
	return New(os.Stderr, d.DiagLevel)
}

// New returns a diagnostics logger writing to w at the named level
// (trace, debug, info, warn, error).
func New(w io.Writer, level string) *slog.Logger {
	h := charmlog.NewWithOptions(w, charmlog.Options{
		Prefix:          "syncore",
		ReportTimestamp: true,
		Level:           GetLevel(level),
	})
	return slog.New(h)
}

// GetLevel maps a level name onto a charmbracelet/log level.
func GetLevel(level string) charmlog.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return charmlog.DebugLevel
	case "info":
		return charmlog.InfoLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error", "fatal", "panic":
		return charmlog.ErrorLevel
	default:
		return charmlog.WarnLevel
	}
}

// Logger returns the diagnostics logger.
func Logger() *slog.Logger {
	return current.Load()
}

// SetLogger replaces the diagnostics logger and returns a function restoring
// the previous one.
func SetLogger(l *slog.Logger) (restore func()) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

func Warn(msg string, args ...any) { Logger().Warn(msg, args...) }

func Error(msg string, args ...any) { Logger().Error(msg, args...) }
