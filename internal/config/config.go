// Package config reads the environment-driven defaults shared by the syncore
// packages. Values are read once, the first time they are requested.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Environment variables understood by syncore.
const (
	EnvStrict      = "SYNCORE_STRICT"       // strict (debug) failure policy for locks
	EnvMaxThreads  = "SYNCORE_MAX_THREADS"  // maximum live native threads
	EnvLogThreaded = "SYNCORE_LOG_THREADED" // logger writes on a background thread
	EnvLogPoll     = "SYNCORE_LOG_POLL"     // logger writer poll interval
	EnvLogFlush    = "SYNCORE_LOG_FLUSH"    // logger flushes sinks after each write
	EnvDiagLevel   = "SYNCORE_LOG_LEVEL"    // level for internal diagnostics
)

const (
	defaultMaxThreads = 10000 // matches the Go runtime's own thread limit
	defaultLogPoll    = 50 * time.Millisecond
)

// Defaults groups every environment-derived default.
type Defaults struct {
	Strict      bool
	MaxThreads  int
	LogThreaded bool
	LogPoll     time.Duration
	LogFlush    bool
	DiagLevel   string
	TestMode    bool
}

var (
	loadOnce sync.Once
	loaded   Defaults
)

// Load returns the process-wide defaults.
func Load() Defaults {
	loadOnce.Do(func() {
		loaded = FromEnv(os.LookupEnv)
	})
	return loaded
}

// FromEnv builds Defaults from a lookup function such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) Defaults {
	return Defaults{
		Strict:      getBool(lookup, EnvStrict, false),
		MaxThreads:  getInt(lookup, EnvMaxThreads, defaultMaxThreads),
		LogThreaded: getBool(lookup, EnvLogThreaded, true),
		LogPoll:     getDuration(lookup, EnvLogPoll, defaultLogPoll),
		LogFlush:    getBool(lookup, EnvLogFlush, true),
		DiagLevel:   getString(lookup, EnvDiagLevel, "warn"),
		TestMode:    isTestMode(),
	}
}

func getString(lookup func(string) (string, bool), key, def string) string {
	if value, exists := lookup(key); exists && value != "" {
		return value
	}
	return def
}

func getBool(lookup func(string) (string, bool), key string, def bool) bool {
	if value, exists := lookup(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return def
}

func getInt(lookup func(string) (string, bool), key string, def int) int {
	if value, exists := lookup(key); exists {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getDuration(lookup func(string) (string, bool), key string, def time.Duration) time.Duration {
	if value, exists := lookup(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// isTestMode detects if we're running under go test
func isTestMode() bool {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}

	if exe, err := os.Executable(); err == nil {
		if strings.HasSuffix(filepath.Base(exe), ".test") {
			return true
		}
	}

	return false
}
