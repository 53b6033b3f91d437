// Package buffer pools the byte buffers log records are rendered into.
//
// A record buffer is taken by the producing goroutine, filled, handed to the
// writer through the queue and returned by the writer once every sink has
// seen it.
package buffer

import (
	"bytes"
	"sync"
)

const (
	// DefaultCapacity fits a typical log line.
	DefaultCapacity = 512

	// MaxPooled is the largest capacity kept for reuse; bigger buffers are
	// left to the garbage collector.
	MaxPooled = 32 * 1024
)

// Pool manages reusable byte buffers.
type Pool struct {
	pool     sync.Pool
	capacity int
}

// NewPool creates a pool whose fresh buffers start with capacity bytes.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pool{capacity: capacity}
	p.pool.New = func() any {
		return bytes.NewBuffer(make([]byte, 0, capacity))
	}
	return p
}

// Get returns an empty buffer.
func (p *Pool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf for reuse. nil and oversized buffers are dropped.
func (p *Pool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > MaxPooled {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}

var records = NewPool(DefaultCapacity)

// Get takes a buffer from the shared record pool.
func Get() *bytes.Buffer {
	return records.Get()
}

// Put returns a buffer to the shared record pool.
func Put(buf *bytes.Buffer) {
	records.Put(buf)
}
