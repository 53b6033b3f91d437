package logger

import (
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/wayneeseguin/syncore/internal/buffer"
	"github.com/wayneeseguin/syncore/pkg/chrono"
	"github.com/wayneeseguin/syncore/pkg/errs"
	"github.com/wayneeseguin/syncore/pkg/lock"
	"github.com/wayneeseguin/syncore/pkg/thread"
)

// record is one rendered line travelling from a producer to the sinks.
type record struct {
	buf   *bytes.Buffer
	level Level
}

// syncPoll bounds each wait of drain so a missed idle signal costs at most
// this long.
const syncPoll = 10 * time.Millisecond

// Log renders a record at level and hands it to the sinks. Records at
// LevelNone or above are ignored.
func (l *Logger) Log(level Level, format string, args ...any) {
	l.output(level, format, args, true)
}

// Tracef logs at LevelTrace.
func (l *Logger) Tracef(format string, args ...any) { l.output(LevelTrace, format, args, true) }

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...any) { l.output(LevelDebug, format, args, true) }

// Infof logs at LevelInfo.
func (l *Logger) Infof(format string, args ...any) { l.output(LevelInfo, format, args, true) }

// Warnf logs at LevelWarn.
func (l *Logger) Warnf(format string, args ...any) { l.output(LevelWarn, format, args, true) }

// Errorf logs at LevelError.
func (l *Logger) Errorf(format string, args ...any) { l.output(LevelError, format, args, true) }

// Fatalf logs at LevelFatal. It does not exit the process.
func (l *Logger) Fatalf(format string, args ...any) { l.output(LevelFatal, format, args, true) }

// Trace logs its operands, formatted as by fmt.Sprint, at LevelTrace.
func (l *Logger) Trace(args ...any) { l.output(LevelTrace, "", args, false) }

// Debug logs at LevelDebug.
func (l *Logger) Debug(args ...any) { l.output(LevelDebug, "", args, false) }

// Info logs at LevelInfo.
func (l *Logger) Info(args ...any) { l.output(LevelInfo, "", args, false) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(args ...any) { l.output(LevelWarn, "", args, false) }

// Error logs at LevelError.
func (l *Logger) Error(args ...any) { l.output(LevelError, "", args, false) }

// Fatal logs at LevelFatal. It does not exit the process.
func (l *Logger) Fatal(args ...any) { l.output(LevelFatal, "", args, false) }

// Enabled reports whether a record at level would reach at least one sink.
func (l *Logger) Enabled(level Level) bool {
	if !level.valid() || l.closed.Load() {
		return false
	}
	for _, s := range l.sinks.Snapshot().All() {
		if level >= s.level {
			return true
		}
	}
	return false
}

// output must be called directly by the exported logging methods; the
// caller's file and line are two frames up.
func (l *Logger) output(level Level, format string, args []any, printf bool) {
	if !l.Enabled(level) {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "???", 0
	}

	buf, ok := l.render(level, file, line, format, args, printf)
	if !ok {
		l.metrics.TrackDropped()
		return
	}

	r := record{buf: buf, level: level}
	if l.cfg.Threaded {
		if !l.enqueue(r) {
			buffer.Put(buf)
			l.metrics.TrackDropped()
			return
		}
	} else if !l.write(r) {
		buffer.Put(buf)
		l.metrics.TrackDropped()
		return
	}
	l.metrics.TrackLogged(int(level))
}

// render builds the line for one record. It reports false, and returns no
// buffer, when formatting panicked.
func (l *Logger) render(level Level, file string, line int, format string, args []any, printf bool) (buf *bytes.Buffer, ok bool) {
	buf = buffer.Get()
	defer func() {
		if r := recover(); r != nil {
			buffer.Put(buf)
			buf, ok = nil, false
		}
	}()

	b := buf.AvailableBuffer()
	b = append(b, '[')
	b = chrono.AppendStamp(b, l.cfg.Clock.Now())
	b = append(b, "] ["...)
	b = append(b, level.tag()...)
	b = append(b, ']')
	if l.cfg.Threaded {
		b = append(b, " [0x"...)
		b = strconv.AppendUint(b, uint64(thread.CurrentID()), 16)
		b = append(b, ']')
	}
	b = append(b, ": "...)
	b = append(b, filepath.Base(file)...)
	b = append(b, ':')
	b = strconv.AppendInt(b, int64(line), 10)
	b = append(b, ": "...)
	buf.Write(b)

	if printf {
		fmt.Fprintf(buf, format, args...)
	} else {
		fmt.Fprint(buf, args...)
	}
	if data := buf.Bytes(); len(data) == 0 || data[len(data)-1] != '\n' {
		buf.WriteByte('\n')
	}
	return buf, true
}

// enqueue hands r to the writer thread. It reports false once the logger
// has been closed.
func (l *Logger) enqueue(r record) bool {
	g, err := lock.NewReadGuard(&l.gate)
	if err != nil {
		return false
	}
	if l.closed.Load() {
		g.Release()
		return false
	}
	l.accepted.Add(1)
	l.queue.Push(r)
	g.Release()

	l.wake.NotifyOne()
	return true
}

// write delivers r on the calling goroutine. It reports false once the
// logger has been closed.
func (l *Logger) write(r record) bool {
	g, err := lock.NewGuard(&l.syncMu)
	if err != nil {
		return false
	}
	defer g.Release()

	if l.closed.Load() {
		return false
	}
	l.deliver(r)
	buffer.Put(r.buf)
	return true
}

// deliver writes r to every sink whose threshold it meets, in registration
// order, against the sinks registered when delivery starts.
func (l *Logger) deliver(r record) {
	data := r.buf.Bytes()
	for _, s := range l.sinks.Snapshot().All() {
		if r.level < s.level {
			continue
		}
		start := time.Now()
		n, err := s.write(data)
		l.metrics.TrackWrite(n, time.Since(start))
		if err != nil {
			l.report(s, "write", err)
			continue
		}
		if l.cfg.FlushOnWrite {
			_ = l.flush(s)
		}
	}
}

func (l *Logger) flush(s *sink) error {
	if err := s.flush(); err != nil {
		return l.report(s, "flush", err)
	}
	return nil
}

// run is the body of the writer thread.
func (l *Logger) run() {
	g, err := lock.NewGuard(&l.mu)
	if err != nil {
		return
	}
	defer g.Release()

	ready := func() bool { return l.over.Load() || !l.queue.Empty() }
	for {
		// The poll interval also covers a signal sent between the
		// predicate check and the wait.
		if _, err := l.wake.WaitForEach(g, l.cfg.PollInterval, ready); err != nil {
			return
		}

		if err := g.Unlock(); err != nil {
			return
		}
		l.queue.Drain(func(r record) {
			l.deliver(r)
			buffer.Put(r.buf)
			l.delivered.Add(1)
		})
		if err := g.Lock(); err != nil {
			return
		}
		l.idle.NotifyAll()

		if l.over.Load() && l.queue.Empty() {
			return
		}
	}
}

// drain blocks until every record accepted before the call has been
// delivered. In synchronous mode it waits for the write in progress.
func (l *Logger) drain() error {
	if l.writer == nil {
		g, err := lock.NewGuard(&l.syncMu)
		if err != nil {
			return err
		}
		g.Release()
		return nil
	}

	target := l.accepted.Load()
	g, err := lock.NewGuard(&l.mu)
	if err != nil {
		return err
	}
	defer g.Release()

	for l.delivered.Load() < target {
		if !l.writer.Running() {
			return errs.New(errs.PrimitiveLogger, "sync", errs.KindInvalidState)
		}
		if _, err := l.idle.WaitFor(g, syncPoll); err != nil {
			return err
		}
	}
	return nil
}
