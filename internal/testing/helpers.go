// Package testing holds helpers shared by syncore's test suites.
package testing

import (
	"os"
	"strconv"
	"testing"
	"time"
)

// Environment variables that select the test mode.
const (
	EnvUnitOnly    = "SYNCORE_UNIT_TESTS_ONLY"
	EnvIntegration = "SYNCORE_RUN_INTEGRATION_TESTS"
	EnvNATSURL     = "SYNCORE_NATS_URL"
)

// DefaultNATSURL is used by integration tests when SYNCORE_NATS_URL is unset.
const DefaultNATSURL = "nats://127.0.0.1:4222"

// Unit reports whether only unit tests should run. Unit tests must not need
// external services. Integration tests run only when
// SYNCORE_RUN_INTEGRATION_TESTS is true and neither SYNCORE_UNIT_TESTS_ONLY
// nor -short is set.
func Unit() bool {
	if envBool(EnvUnitOnly) {
		return true
	}
	if testing.Short() {
		return true
	}
	return !envBool(EnvIntegration)
}

// Integration reports whether integration tests should run.
func Integration() bool {
	return !Unit()
}

// SkipIfUnit skips the test in unit mode.
func SkipIfUnit(t testing.TB, message ...string) {
	t.Helper()
	if Unit() {
		msg := "skipping integration test in unit mode"
		if len(message) > 0 {
			msg = message[0]
		}
		t.Skip(msg)
	}
}

// NATSURL returns the server integration tests should connect to.
func NATSURL() string {
	if u := os.Getenv(EnvNATSURL); u != "" {
		return u
	}
	return DefaultNATSURL
}

// Eventually polls cond every tick until it holds or timeout elapses, and
// reports whether it held.
func Eventually(cond func() bool, timeout, tick time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(tick)
	}
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
