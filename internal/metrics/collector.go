// Package metrics counts what the logger does: records accepted per level,
// records dropped, bytes and writes delivered to sinks, and sink failures.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector handles metrics collection for one logger. All methods are safe
// for concurrent use.
type Collector struct {
	levels []string
	logged []atomic.Uint64 // indexed like levels

	dropped      atomic.Uint64
	bytesWritten atomic.Uint64
	writeCount   atomic.Uint64
	totalWrite   atomic.Int64 // nanoseconds
	maxWrite     atomic.Int64 // nanoseconds

	errorCount   atomic.Uint64
	errorsBySink sync.Map // map[string]*atomic.Uint64
}

// NewCollector creates a collector for the given level names. A level is
// tracked by its index in levels.
func NewCollector(levels []string) *Collector {
	return &Collector{
		levels: levels,
		logged: make([]atomic.Uint64, len(levels)),
	}
}

// Metrics contains runtime metrics for the logger.
type Metrics struct {
	MessagesLogged  map[string]uint64 `json:"messages_logged"`
	MessagesDropped uint64            `json:"messages_dropped"`
	QueueDepth      int               `json:"queue_depth"`

	BytesWritten uint64 `json:"bytes_written"`
	WriteCount   uint64 `json:"write_count"`

	ErrorCount   uint64            `json:"error_count"`
	ErrorsBySink map[string]uint64 `json:"errors_by_sink"`

	AverageWriteTime time.Duration `json:"average_write_time"`
	MaxWriteTime     time.Duration `json:"max_write_time"`

	SinkCount int `json:"sink_count"`
}

// Snapshot returns the current counters together with the caller-supplied
// queue depth and sink count.
func (c *Collector) Snapshot(queueDepth, sinks int) Metrics {
	m := Metrics{
		MessagesLogged:  make(map[string]uint64, len(c.levels)),
		MessagesDropped: c.dropped.Load(),
		QueueDepth:      queueDepth,
		BytesWritten:    c.bytesWritten.Load(),
		WriteCount:      c.writeCount.Load(),
		ErrorCount:      c.errorCount.Load(),
		ErrorsBySink:    make(map[string]uint64),
		MaxWriteTime:    time.Duration(c.maxWrite.Load()),
		SinkCount:       sinks,
	}

	for i := range c.logged {
		if n := c.logged[i].Load(); n > 0 {
			m.MessagesLogged[c.levels[i]] = n
		}
	}

	c.errorsBySink.Range(func(key, value any) bool {
		if n := value.(*atomic.Uint64).Load(); n > 0 {
			m.ErrorsBySink[key.(string)] = n
		}
		return true
	})

	if m.WriteCount > 0 {
		m.AverageWriteTime = time.Duration(c.totalWrite.Load()) / time.Duration(m.WriteCount)
	}
	return m
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	for i := range c.logged {
		c.logged[i].Store(0)
	}
	c.dropped.Store(0)
	c.bytesWritten.Store(0)
	c.writeCount.Store(0)
	c.totalWrite.Store(0)
	c.maxWrite.Store(0)
	c.errorCount.Store(0)
	c.errorsBySink.Range(func(_, value any) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})
}

// TrackLogged counts one accepted record at level. Unknown levels are
// ignored.
func (c *Collector) TrackLogged(level int) {
	if level >= 0 && level < len(c.logged) {
		c.logged[level].Add(1)
	}
}

// TrackDropped counts one record that never reached a sink.
func (c *Collector) TrackDropped() {
	c.dropped.Add(1)
}

// TrackWrite records one sink write of n bytes that took d.
func (c *Collector) TrackWrite(n int, d time.Duration) {
	if n > 0 {
		c.bytesWritten.Add(uint64(n))
	}
	c.writeCount.Add(1)
	c.totalWrite.Add(int64(d))

	for {
		old := c.maxWrite.Load()
		if int64(d) <= old || c.maxWrite.CompareAndSwap(old, int64(d)) {
			return
		}
	}
}

// TrackError counts one failure of the named sink.
func (c *Collector) TrackError(sink string) {
	c.errorCount.Add(1)
	val, _ := c.errorsBySink.LoadOrStore(sink, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)
}

// Logged returns the number of records accepted at level.
func (c *Collector) Logged(level int) uint64 {
	if level >= 0 && level < len(c.logged) {
		return c.logged[level].Load()
	}
	return 0
}

// Errors returns the total number of sink failures.
func (c *Collector) Errors() uint64 {
	return c.errorCount.Load()
}
