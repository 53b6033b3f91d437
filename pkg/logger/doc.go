// Package logger provides a leveled text logger that delivers records to a
// small set of sinks, either on the caller's goroutine or on a dedicated
// writer thread.
//
// Every record is one line:
//
//	[2026-10-14 09:30:00.123456] [INFO ] [0x1f3a]: main.go:42: service started
//
// The thread segment names the OS thread of the producer and is omitted when
// the logger writes synchronously.
//
// Basic Usage:
//
//	log, err := logger.New(logger.WithFile("/var/log/app.log", logger.LevelInfo))
//	if err != nil {
//		return err
//	}
//	defer log.Close()
//
//	log.Infof("listening on %s", addr)
//
// Multiple Sinks:
//
//	log.AddWriter(os.Stderr, logger.LevelWarn)
//	log.AddURI("syslog:///dev/log?tag=app", logger.LevelError)
//	log.AddURI("nats://127.0.0.1:4222/logs.app", logger.LevelDebug)
//
// A sink only receives records at or above its own threshold. At most
// MaxSinks sinks can be registered.
//
// Asynchronous mode (the default) renders the line on the producer, queues it
// and returns; the writer thread drains the queue. Close delivers everything
// already accepted before it returns. Synchronous mode, selected with
// WithThreading(false), writes to every sink before Log returns.
//
// Logging never fails the caller. Sink failures are passed to the configured
// ErrorHandler, counted in Metrics, and latch the flag reported by OK.
package logger
