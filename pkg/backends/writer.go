package backends

import (
	"io"
	"sync"

	"github.com/wayneeseguin/syncore/pkg/errs"
)

type flusher interface {
	Flush() error
}

// WriterBackend delivers records to an io.Writer such as os.Stderr or a
// bytes.Buffer. The writer is not closed unless the backend was created with
// NewOwnedWriterBackend.
type WriterBackend struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	closed bool
}

// NewWriterBackend wraps w.
func NewWriterBackend(w io.Writer) *WriterBackend {
	return &WriterBackend{w: w}
}

// NewOwnedWriterBackend wraps wc and closes it on Close.
func NewOwnedWriterBackend(wc io.WriteCloser) *WriterBackend {
	return &WriterBackend{w: wc, closer: wc}
}

func (wb *WriterBackend) Write(entry []byte) (int, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if wb.closed {
		return 0, errs.New(errs.PrimitiveSink, "write", errs.KindInvalidState)
	}
	n, err := wb.w.Write(entry)
	if err != nil {
		return n, errs.FromErrno(errs.PrimitiveSink, "write", err)
	}
	return n, nil
}

// Flush flushes the writer when it buffers (bufio.Writer and the like).
func (wb *WriterBackend) Flush() error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if f, ok := wb.w.(flusher); ok && !wb.closed {
		return errs.FromErrno(errs.PrimitiveSink, "flush", f.Flush())
	}
	return nil
}

func (wb *WriterBackend) Close() error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if wb.closed {
		return nil
	}
	wb.closed = true

	if f, ok := wb.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return errs.FromErrno(errs.PrimitiveSink, "flush", err)
		}
	}
	if wb.closer != nil {
		return errs.FromErrno(errs.PrimitiveSink, "close", wb.closer.Close())
	}
	return nil
}
