package backends

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/gzip"

	"github.com/wayneeseguin/syncore/pkg/errs"
)

// GzipBackend writes records into a gzip stream on a file. Flush emits a
// sync flush so everything written so far can be decompressed; Close writes
// the gzip trailer.
type GzipBackend struct {
	mu   sync.Mutex
	file *os.File
	gz   *gzip.Writer
	path string
}

// NewGzipBackend creates (or truncates) path and writes a gzip stream to it
// at the given compression level (gzip.DefaultCompression for the default).
func NewGzipBackend(path string, level int) (*GzipBackend, error) {
	cleanPath := filepath.Clean(path)

	// #nosec G301
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, errs.FromErrno(errs.PrimitiveSink, "mkdir", err)
	}
	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644) // #nosec G302
	if err != nil {
		return nil, errs.FromErrno(errs.PrimitiveSink, "open", err)
	}

	gz, err := gzip.NewWriterLevel(file, level)
	if err != nil {
		_ = file.Close()
		return nil, errs.Wrap(errs.PrimitiveSink, "open", errs.KindInvalidState, err)
	}

	return &GzipBackend{file: file, gz: gz, path: cleanPath}, nil
}

func (g *GzipBackend) Write(entry []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.file == nil {
		return 0, errs.New(errs.PrimitiveSink, "write", errs.KindInvalidState)
	}
	n, err := g.gz.Write(entry)
	if err != nil {
		return n, errs.FromErrno(errs.PrimitiveSink, "write", err)
	}
	return n, nil
}

func (g *GzipBackend) Flush() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.file == nil {
		return nil
	}
	return errs.FromErrno(errs.PrimitiveSink, "flush", g.gz.Flush())
}

func (g *GzipBackend) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.file == nil {
		return nil
	}

	var result *multierror.Error
	if err := g.gz.Close(); err != nil {
		result = multierror.Append(result, errs.FromErrno(errs.PrimitiveSink, "close", err))
	}
	if err := g.file.Close(); err != nil {
		result = multierror.Append(result, errs.FromErrno(errs.PrimitiveSink, "close", err))
	}
	g.file = nil
	return result.ErrorOrNil()
}

// Path returns the file path
func (g *GzipBackend) Path() string {
	return g.path
}
