package logger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/wayneeseguin/syncore/internal/metrics"
	"github.com/wayneeseguin/syncore/pkg/cond"
	"github.com/wayneeseguin/syncore/pkg/errs"
	"github.com/wayneeseguin/syncore/pkg/lock"
	"github.com/wayneeseguin/syncore/pkg/mpsc"
	"github.com/wayneeseguin/syncore/pkg/snapshot"
	"github.com/wayneeseguin/syncore/pkg/thread"
)

// Logger delivers rendered records to its sinks. All methods are safe for
// concurrent use.
type Logger struct {
	cfg     Config
	sinks   *snapshot.Stack[*sink]
	metrics *metrics.Collector

	// gate is held shared by producers while they enqueue and exclusively
	// by Close while it stops accepting records.
	gate   lock.RWMutex
	closed atomic.Bool

	// asynchronous delivery
	queue     *mpsc.Queue[record]
	accepted  atomic.Uint64 // records pushed, counted before the push
	delivered atomic.Uint64 // records the writer finished
	mu        lock.Mutex    // guards the writer's waits
	wake      cond.Cond     // producers -> writer
	idle      cond.Cond     // writer -> drain
	over      atomic.Bool
	writer    *thread.Thread

	// synchronous delivery
	syncMu lock.Mutex

	failed  atomic.Bool
	errMu   sync.Mutex
	lastErr error

	closeOnce sync.Once
	closeErr  error
}

// New creates a Logger. Options are applied on top of DefaultConfig.
//
// Parameters:
//   - opts: Functional options, including the sinks to register
//
// Returns:
//   - *Logger: The running logger
//   - error: Invalid configuration, a sink that cannot be opened, or a
//     writer thread that cannot be started
//
// Example:
//
//	log, err := logger.New(
//		logger.WithFile("/var/log/app.log", logger.LevelInfo),
//		logger.WithWriter(os.Stderr, logger.LevelError),
//	)
func New(opts ...Option) (*Logger, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Logger from cfg. The configuration is validated
// and defaults are applied where necessary.
func NewWithConfig(cfg *Config) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Logger{
		cfg:     *cfg,
		sinks:   snapshot.New[*sink](MaxSinks),
		metrics: metrics.NewCollector(recordLevelNames()),
		queue:   mpsc.New[record](),
	}
	l.cfg.Sinks = nil

	for _, spec := range cfg.Sinks {
		if err := l.register(spec); err != nil {
			l.closeSinks()
			return nil, err
		}
	}

	if l.cfg.Threaded {
		w, err := thread.Spawn(l.run)
		if err != nil {
			l.closeSinks()
			return nil, err
		}
		l.writer = w
	}
	return l, nil
}

// Threaded reports whether records are delivered by a writer thread.
func (l *Logger) Threaded() bool {
	return l.cfg.Threaded
}

// OK reports whether every sink operation so far succeeded.
func (l *Logger) OK() bool {
	return !l.failed.Load()
}

// Err returns the most recent sink failure, or nil.
func (l *Logger) Err() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.lastErr
}

// Metrics returns a snapshot of the logger's counters.
func (l *Logger) Metrics() metrics.Metrics {
	return l.metrics.Snapshot(l.queue.Len(), l.sinks.Len())
}

// ResetMetrics zeroes the logger's counters.
func (l *Logger) ResetMetrics() {
	l.metrics.Reset()
}

// Closed reports whether Close has been called.
func (l *Logger) Closed() bool {
	return l.closed.Load()
}

// Sync blocks until every record accepted so far has been written, then
// flushes every sink.
func (l *Logger) Sync() error {
	if err := l.drain(); err != nil {
		return err
	}

	var result *multierror.Error
	for _, s := range l.sinks.Snapshot().All() {
		if err := l.flush(s); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Close stops accepting records, delivers the ones already accepted, stops
// the writer thread and flushes and closes the sinks the logger owns. Later
// calls return the result of the first.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.shutdown()
	})
	return l.closeErr
}

func (l *Logger) shutdown() error {
	// Producers check closed under a shared hold of the gate; once this
	// exclusive hold is released no new record can be accepted.
	g, err := lock.NewWriteGuard(&l.gate)
	l.closed.Store(true)
	if err == nil {
		g.Release()
	}

	var result *multierror.Error

	if l.writer != nil {
		if err := l.drain(); err != nil {
			result = multierror.Append(result, err)
		}
		g, err := lock.NewGuard(&l.mu)
		l.over.Store(true)
		l.wake.NotifyAll()
		if err == nil {
			g.Release()
		}
		if err := l.writer.Join(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	sg, err := lock.NewGuard(&l.syncMu)
	if err == nil {
		defer sg.Release()
	}
	if err := l.closeSinks(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (l *Logger) report(s *sink, op string, err error) error {
	se := SinkError{Sink: s.name, Op: op, Err: err, Time: time.Now()}

	l.metrics.TrackError(s.name)
	l.failed.Store(true)
	l.errMu.Lock()
	l.lastErr = se
	l.errMu.Unlock()

	func() {
		defer func() { _ = recover() }()
		l.cfg.ErrorHandler(se)
	}()
	return se
}

var errClosed = errs.New(errs.PrimitiveLogger, "add sink", errs.KindInvalidState)
