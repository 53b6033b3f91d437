package logger

import (
	"fmt"
	"time"

	"github.com/wayneeseguin/syncore/internal/diag"
)

// SinkError represents a failure of one sink operation.
type SinkError struct {
	Sink string    // the sink name, e.g. the file path
	Op   string    // "open", "write", "flush" or "close"
	Err  error     // the underlying error
	Time time.Time // when the error occurred
}

// Error implements the error interface
func (e SinkError) Error() string {
	return fmt.Sprintf("logger: sink %s: %s: %v", e.Sink, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e SinkError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives sink failures. It is called from the goroutine that
// hit the failure, which is the writer thread in asynchronous mode, and must
// not log through the same Logger.
type ErrorHandler func(err SinkError)

// SilentErrorHandler discards all errors
var SilentErrorHandler ErrorHandler = func(SinkError) {}

// DiagErrorHandler reports errors through the library's diagnostic log.
var DiagErrorHandler ErrorHandler = func(err SinkError) {
	diag.Warn("log sink failed", "sink", err.Sink, "op", err.Op, "error", err.Err)
}
