// Package errs defines the closed failure taxonomy shared by every primitive in
// syncore.
//
// OS level error codes are translated at the boundary into a small set of
// kinds (see [Kind]) and wrapped in an [*Error] that records which primitive
// and which operation failed. Every error built here carries a stack trace
// captured with github.com/pkg/errors, so failures raised deep inside a lock or
// a background thread can still be attributed when they surface.
//
// Failures that cross a goroutine boundary use [Capture] on the producing side
// and [Rethrow] (or a plain error return) on the consuming side.
package errs

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is a failure kind. Kind implements error so that
//
//	errors.Is(err, errs.KindBusy)
//
// matches any syncore error of that kind regardless of wrapping.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNoMemory
	KindTemporarilyUnavailable
	KindPermissionDenied
	KindBusy
	KindInvalidState
	KindAlreadyLocked
	KindNotLocked
	KindNotOwned
	KindDeadlock
	KindRecursionLimit
	KindCreateLimit
	KindDevice
	_kindMax
)

var kindNames = [...]string{
	KindUnknown:                "unknown failure",
	KindNoMemory:               "no memory",
	KindTemporarilyUnavailable: "temporarily unavailable",
	KindPermissionDenied:       "permission denied",
	KindBusy:                   "busy",
	KindInvalidState:           "invalid state",
	KindAlreadyLocked:          "already locked",
	KindNotLocked:              "not locked",
	KindNotOwned:               "not owned",
	KindDeadlock:               "deadlock",
	KindRecursionLimit:         "recursion limit exceeded",
	KindCreateLimit:            "create limit exceeded",
	KindDevice:                 "device error",
}

// String returns the human readable name of the kind.
func (k Kind) String() string {
	if k >= _kindMax {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Error implements error.
func (k Kind) Error() string { return k.String() }

// Primitive names the component a failure is specialized for.
type Primitive uint8

const (
	PrimitiveNone Primitive = iota
	PrimitiveLock
	PrimitiveCond
	PrimitiveThread
	PrimitiveTask
	PrimitiveQueue
	PrimitiveLogger
	PrimitiveSink
)

var primitiveNames = [...]string{
	PrimitiveNone:   "syncore",
	PrimitiveLock:   "lock",
	PrimitiveCond:   "cond",
	PrimitiveThread: "thread",
	PrimitiveTask:   "task",
	PrimitiveQueue:  "queue",
	PrimitiveLogger: "logger",
	PrimitiveSink:   "sink",
}

func (p Primitive) String() string {
	if int(p) >= len(primitiveNames) {
		return primitiveNames[PrimitiveNone]
	}
	return primitiveNames[p]
}

// Error is a classified failure of one operation on one primitive.
type Error struct {
	Primitive Primitive // the primitive that failed
	Op        string    // the operation, e.g. "lock", "join"
	Kind      Kind      // the classified kind
	Err       error     // the underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Primitive, e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error (or an *Error with the
// same primitive and kind).
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind && e.Primitive == t.Primitive
	}
	return false
}

// New returns a classified error with a stack trace attached.
func New(p Primitive, op string, kind Kind) error {
	return pkgerrors.WithStack(&Error{Primitive: p, Op: op, Kind: kind})
}

// Wrap returns a classified error around cause with a stack trace attached.
func Wrap(p Primitive, op string, kind Kind, cause error) error {
	return pkgerrors.WithStack(&Error{Primitive: p, Op: op, Kind: kind, Err: cause})
}

// KindOf returns the kind of the first classified error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return KindUnknown
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// StackOf renders the stack trace attached to err, or "" when there is none.
func StackOf(err error) string {
	for err != nil {
		if st, ok := err.(stackTracer); ok {
			return fmt.Sprintf("%+v", st.StackTrace())
		}
		if pe, ok := err.(*PanicError); ok {
			return pe.Stack
		}
		err = errors.Unwrap(err)
	}
	return ""
}
