package logger

import (
	"io"
	"time"

	"github.com/wayneeseguin/syncore/internal/config"
	"github.com/wayneeseguin/syncore/pkg/backends"
	"github.com/wayneeseguin/syncore/pkg/chrono"
	"github.com/wayneeseguin/syncore/pkg/errs"
)

// MaxSinks is the maximum number of sinks a Logger accepts.
const MaxSinks = 8

// SinkSpec describes a sink registered when the Logger is created. Exactly
// one of Backend, Writer and URI is used, in that order of preference.
type SinkSpec struct {
	Backend backends.Backend // closed by the Logger when Owned is set
	Owned   bool
	Writer  io.Writer // wrapped, never closed
	URI     string    // see backends.Open
	Level   Level
}

// Config contains the configuration of a Logger.
type Config struct {
	// Threaded selects asynchronous delivery on a writer thread.
	Threaded bool

	// FlushOnWrite flushes every sink after each record it receives.
	FlushOnWrite bool

	// PollInterval bounds how long the writer thread sleeps without being
	// signalled. It is also the latency of a record whose signal was lost.
	PollInterval time.Duration

	// Clock stamps records.
	Clock chrono.Clock

	// ErrorHandler receives sink failures.
	ErrorHandler ErrorHandler

	// Sinks are registered by New in order.
	Sinks []SinkSpec
}

// DefaultConfig returns a Config populated from the SYNCORE_LOG_* environment
// variables:
//
//   - SYNCORE_LOG_THREADED: asynchronous delivery (default true)
//   - SYNCORE_LOG_FLUSH: flush after every write (default true)
//   - SYNCORE_LOG_POLL: writer poll interval (default 50ms)
//
// The error handler is silent under go test and reports through the
// diagnostic log otherwise.
func DefaultConfig() *Config {
	d := config.Load()
	handler := DiagErrorHandler
	if d.TestMode {
		handler = SilentErrorHandler
	}
	return &Config{
		Threaded:     d.LogThreaded,
		FlushOnWrite: d.LogFlush,
		PollInterval: d.LogPoll,
		Clock:        chrono.SystemClock{},
		ErrorHandler: handler,
	}
}

// Validate applies defaults to unset fields and rejects sink specs that
// cannot be registered.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		c.PollInterval = config.Load().LogPoll
	}
	if c.Clock == nil {
		c.Clock = chrono.SystemClock{}
	}
	if c.ErrorHandler == nil {
		c.ErrorHandler = SilentErrorHandler
	}
	if len(c.Sinks) > MaxSinks {
		return errs.New(errs.PrimitiveLogger, "config", errs.KindCreateLimit)
	}
	for _, s := range c.Sinks {
		if !s.Level.valid() {
			return errs.New(errs.PrimitiveLogger, "config", errs.KindInvalidState)
		}
		if s.Backend == nil && s.Writer == nil && s.URI == "" {
			return errs.New(errs.PrimitiveLogger, "config", errs.KindInvalidState)
		}
	}
	return nil
}

// Option configures a Logger.
type Option func(*Config)

// WithThreading selects asynchronous (true) or synchronous (false) delivery.
func WithThreading(threaded bool) Option {
	return func(c *Config) { c.Threaded = threaded }
}

// WithFlushOnWrite controls flushing after every write.
func WithFlushOnWrite(flush bool) Option {
	return func(c *Config) { c.FlushOnWrite = flush }
}

// WithPollInterval sets the writer thread poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) { c.PollInterval = d }
}

// WithClock sets the clock used to stamp records.
func WithClock(clock chrono.Clock) Option {
	return func(c *Config) { c.Clock = clock }
}

// WithErrorHandler sets the sink failure handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *Config) { c.ErrorHandler = h }
}

// WithSink registers b at level; the Logger closes it on Close.
func WithSink(b backends.Backend, level Level) Option {
	return func(c *Config) {
		c.Sinks = append(c.Sinks, SinkSpec{Backend: b, Owned: true, Level: level})
	}
}

// WithWriter registers w at level.
func WithWriter(w io.Writer, level Level) Option {
	return func(c *Config) {
		c.Sinks = append(c.Sinks, SinkSpec{Writer: w, Level: level})
	}
}

// WithFile registers an append-only file sink at level.
func WithFile(path string, level Level) Option {
	return WithURI(path, level)
}

// WithURI registers the sink described by uri at level.
func WithURI(uri string, level Level) Option {
	return func(c *Config) {
		c.Sinks = append(c.Sinks, SinkSpec{URI: uri, Level: level})
	}
}
