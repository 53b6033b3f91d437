package errs

import (
	"fmt"
	"runtime"
)

// PanicError wraps a recovered panic value together with the stack of the
// goroutine that panicked. It is the portable failure handle used to move a
// failure from a background goroutine to the one that waits on it.
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the goroutine stack trace at the point of recovery.
	Stack string
}

// Error returns a human-readable representation of the panic.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error, so that
// errors.Is and errors.As keep matching the original failure kind.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ErrGoexit is the cause recorded when a goroutine body called runtime.Goexit
// instead of returning.
var ErrGoexit = New(PrimitiveNone, "run", KindInvalidState)

// Capture converts a value returned by recover() into a *PanicError. It must be
// called from the deferred function that recovered, so the captured stack
// still contains the panicking frames. Capture(nil) returns nil.
func Capture(recovered any) error {
	if recovered == nil {
		return nil
	}
	if pe, ok := recovered.(*PanicError); ok {
		return pe
	}
	// 8 KiB covers most traces; runtime.Stack truncates if it does not.
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{Value: recovered, Stack: string(buf[:n])}
}

// Rethrow re-raises a captured failure on the calling goroutine. A *PanicError
// panics with its original value; any other non-nil error panics with itself.
func Rethrow(err error) {
	if err == nil {
		return
	}
	if pe, ok := err.(*PanicError); ok {
		panic(pe.Value)
	}
	panic(err)
}
