package backends

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-multierror"

	"github.com/wayneeseguin/syncore/pkg/errs"
)

// DefaultBufferSize for file operations
const DefaultBufferSize = 32 * 1024

// FileBackend appends records to a file. An advisory lock on the file is held
// around every write so that several processes can share one log file.
type FileBackend struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	lock   *flock.Flock
	path   string
	stats  Stats
}

// NewFileBackend opens path for appending, creating it and its directory
// when needed.
func NewFileBackend(path string) (*FileBackend, error) {
	cleanPath := filepath.Clean(path)

	// #nosec G301 - log directories need to be accessible by other processes
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, errs.FromErrno(errs.PrimitiveSink, "mkdir", err)
	}

	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644) // #nosec G302 - log files need to be readable
	if err != nil {
		return nil, errs.FromErrno(errs.PrimitiveSink, "open", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errs.FromErrno(errs.PrimitiveSink, "stat", err)
	}

	return &FileBackend{
		file:   file,
		writer: bufio.NewWriterSize(file, DefaultBufferSize),
		lock:   flock.New(cleanPath),
		path:   cleanPath,
		stats:  Stats{Path: cleanPath, Size: info.Size()},
	}, nil
}

// Write appends entry to the file buffer.
func (fb *FileBackend) Write(entry []byte) (int, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.file == nil {
		return 0, errs.New(errs.PrimitiveSink, "write", errs.KindInvalidState)
	}

	if err := fb.lock.Lock(); err != nil {
		return 0, fb.failed(errs.FromErrno(errs.PrimitiveSink, "lock", err))
	}
	defer func() {
		_ = fb.lock.Unlock()
	}()

	n, err := fb.writer.Write(entry)
	fb.stats.Size += int64(n)
	fb.stats.BytesWritten += uint64(n)
	fb.stats.WriteCount++
	if err != nil {
		return n, fb.failed(errs.FromErrno(errs.PrimitiveSink, "write", err))
	}
	return n, nil
}

// failed records err in the statistics. fb.mu must be held.
func (fb *FileBackend) failed(err error) error {
	fb.stats.ErrorCount++
	fb.stats.LastError = time.Now()
	return err
}

// Flush writes buffered data to the file.
func (fb *FileBackend) Flush() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.flushLocked()
}

func (fb *FileBackend) flushLocked() error {
	if fb.writer == nil || fb.writer.Buffered() == 0 {
		return nil
	}
	if err := fb.lock.Lock(); err != nil {
		return fb.failed(errs.FromErrno(errs.PrimitiveSink, "lock", err))
	}
	defer func() {
		_ = fb.lock.Unlock()
	}()
	if err := fb.writer.Flush(); err != nil {
		return fb.failed(errs.FromErrno(errs.PrimitiveSink, "flush", err))
	}
	return nil
}

// Sync flushes and commits the file to stable storage.
func (fb *FileBackend) Sync() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if err := fb.flushLocked(); err != nil {
		return err
	}
	if fb.file == nil {
		return nil
	}
	if err := fb.file.Sync(); err != nil {
		return fb.failed(errs.FromErrno(errs.PrimitiveSink, "sync", err))
	}
	return nil
}

// Close flushes and closes the file. Closing twice is a no-op.
func (fb *FileBackend) Close() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.file == nil {
		return nil
	}

	var result *multierror.Error
	if err := fb.flushLocked(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := fb.lock.Close(); err != nil {
		result = multierror.Append(result, errs.FromErrno(errs.PrimitiveSink, "unlock", err))
	}
	if err := fb.file.Close(); err != nil {
		result = multierror.Append(result, errs.FromErrno(errs.PrimitiveSink, "close", err))
	}
	fb.file = nil
	return result.ErrorOrNil()
}

// Size returns the current file size including buffered data.
func (fb *FileBackend) Size() int64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.stats.Size
}

// Path returns the file path
func (fb *FileBackend) Path() string {
	return fb.path
}

// Stats returns backend statistics
func (fb *FileBackend) Stats() Stats {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.stats
}
