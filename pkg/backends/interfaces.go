// Package backends provides the output sinks records are delivered to.
package backends

import "time"

// Backend is a log output sink. Write receives one complete record. A
// Backend is used by one writer at a time.
type Backend interface {
	// Write writes a log entry to the backend
	Write(entry []byte) (int, error)

	// Flush ensures all buffered data is written
	Flush() error

	// Close flushes and releases the backend
	Close() error
}

// Syncer is implemented by backends that can push data to stable storage.
type Syncer interface {
	Sync() error
}

// StatsProvider is implemented by backends that keep their own counters.
type StatsProvider interface {
	Stats() Stats
}

// Stats represents statistics for a backend
type Stats struct {
	Path         string
	Size         int64
	WriteCount   uint64
	BytesWritten uint64
	ErrorCount   uint64
	LastError    time.Time
}

var (
	_ Backend       = (*FileBackend)(nil)
	_ Syncer        = (*FileBackend)(nil)
	_ StatsProvider = (*FileBackend)(nil)
	_ Backend       = (*GzipBackend)(nil)
	_ Backend       = (*WriterBackend)(nil)
	_ Backend       = (*SyslogBackend)(nil)
	_ Backend       = (*NATSBackend)(nil)
)
