package logger

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/wayneeseguin/syncore/pkg/backends"
	"github.com/wayneeseguin/syncore/pkg/errs"
	"github.com/wayneeseguin/syncore/pkg/lock"
)

// sink is one registered destination with its threshold.
type sink struct {
	b     backends.Backend
	level Level
	owned bool
	name  string
}

func newSink(b backends.Backend, level Level, owned bool, name string) *sink {
	if name == "" {
		name = sinkName(b)
	}
	return &sink{b: b, level: level, owned: owned, name: name}
}

func sinkName(b backends.Backend) string {
	switch v := b.(type) {
	case interface{ Path() string }:
		return v.Path()
	case interface{ Subject() string }:
		return "nats:" + v.Subject()
	case interface{ Address() (string, string) }:
		network, address := v.Address()
		return "syslog:" + network + ":" + address
	}
	return fmt.Sprintf("%T", b)
}

// write and flush turn a panicking backend into an error.
func (s *sink) write(p []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Capture(r)
		}
	}()
	return s.b.Write(p)
}

func (s *sink) flush() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Capture(r)
		}
	}()
	return s.b.Flush()
}

func (s *sink) close() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Capture(r)
		}
	}()
	if !s.owned {
		return s.b.Flush()
	}
	return s.b.Close()
}

// register adds the sink described by spec while the logger is built.
func (l *Logger) register(spec SinkSpec) error {
	var s *sink
	switch {
	case spec.Backend != nil:
		s = newSink(spec.Backend, spec.Level, spec.Owned, "")
	case spec.Writer != nil:
		s = newSink(backends.NewWriterBackend(spec.Writer), spec.Level, true, fmt.Sprintf("%T", spec.Writer))
	default:
		b, err := backends.Open(spec.URI)
		if err != nil {
			return err
		}
		s = newSink(b, spec.Level, true, spec.URI)
	}

	if err := l.add(s); err != nil {
		if s.owned {
			_ = s.b.Close()
		}
		return err
	}
	return nil
}

// add publishes s unless the logger is closed or full. The shared hold of
// the gate keeps Close from retiring the sink list while s is pushed.
func (l *Logger) add(s *sink) error {
	if !s.level.valid() {
		return errs.New(errs.PrimitiveLogger, "add sink", errs.KindInvalidState)
	}
	g, err := lock.NewReadGuard(&l.gate)
	if err != nil {
		return err
	}
	defer g.Release()

	if l.closed.Load() {
		return errClosed
	}
	return l.sinks.Push(s)
}

// AddSink registers b at level. The caller keeps ownership of b: the logger
// flushes it on Close but never closes it. AddSink reports false when level
// is LevelNone, when MaxSinks sinks are already registered and when the
// logger is closed.
func (l *Logger) AddSink(b backends.Backend, level Level) bool {
	if b == nil {
		return false
	}
	return l.add(newSink(b, level, false, "")) == nil
}

// AddWriter registers w at level. w itself is never closed.
func (l *Logger) AddWriter(w io.Writer, level Level) bool {
	if w == nil {
		return false
	}
	s := newSink(backends.NewWriterBackend(w), level, true, fmt.Sprintf("%T", w))
	return l.add(s) == nil
}

// AddFile opens path for appending and registers it at level. The file is
// closed when the sink is popped or the logger is closed.
func (l *Logger) AddFile(path string, level Level) bool {
	return l.AddURI(path, level)
}

// AddURI opens the sink described by uri (see backends.Open) and registers
// it at level. A sink that cannot be opened is reported to the error handler.
func (l *Logger) AddURI(uri string, level Level) bool {
	if !level.valid() || l.closed.Load() || l.sinks.Len() >= MaxSinks {
		return false
	}

	b, err := backends.Open(uri)
	if err != nil {
		l.report(&sink{name: uri}, "open", err)
		return false
	}

	s := newSink(b, level, true, uri)
	if err := l.add(s); err != nil {
		_ = b.Close()
		return false
	}
	return true
}

// PopSink removes the most recently registered sink. Records already
// accepted are delivered to it first; an owned sink is then closed. PopSink
// reports false when there is no sink to remove.
func (l *Logger) PopSink() bool {
	if l.sinks.Len() == 0 {
		return false
	}
	// Records accepted so far are delivered while the sink is registered.
	_ = l.drain()

	s, ok := l.sinks.Pop()
	if !ok {
		return false
	}
	// Deliveries that started on the old view may still be writing to s.
	_ = l.drain()
	if err := s.close(); err != nil {
		l.report(s, "close", err)
	}
	return true
}

// Sinks returns the number of registered sinks.
func (l *Logger) Sinks() int {
	return l.sinks.Len()
}

// closeSinks retires every sink, newest first.
func (l *Logger) closeSinks() error {
	var result *multierror.Error
	retired := l.sinks.Drain()
	for i := len(retired) - 1; i >= 0; i-- {
		s := retired[i]
		if err := s.close(); err != nil {
			result = multierror.Append(result, l.report(s, "close", err))
		}
	}
	return result.ErrorOrNil()
}
