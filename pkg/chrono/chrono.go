// Package chrono is the time interface used by the condition variable timeouts
// and the logger's timestamp prefix.
//
// Two domains are involved: a monotonic duration measured from process start
// and wall-clock calendar instants. Both are nanosecond resolution; converting
// between them never truncates, so a very short timeout never rounds down to
// an infinite wait or up to a missed one.
package chrono

import (
	"time"
)

// StampLayout is the calendar layout used by Stamp: seconds plus microseconds.
const StampLayout = "2006-01-02 15:04:05.000000"

// epoch carries a monotonic clock reading; every monotonic value is relative
// to it.
var epoch = time.Now()

// Monotonic returns the monotonic duration elapsed since process start.
func Monotonic() time.Duration {
	return time.Since(epoch)
}

// FromMonotonic converts a monotonic duration into an instant. The result
// carries a monotonic reading, so comparisons with time.Now are immune to
// wall-clock steps.
func FromMonotonic(d time.Duration) time.Time {
	return epoch.Add(d)
}

// ToMonotonic converts an instant into the monotonic domain. Instants without
// a monotonic reading (parsed or built with time.Date) are interpreted on the
// wall clock as of now.
func ToMonotonic(t time.Time) time.Duration {
	return Monotonic() + Until(t)
}

// Until returns the time remaining until deadline. It is negative once the
// deadline has passed.
func Until(deadline time.Time) time.Duration {
	return time.Until(deadline)
}

// Deadline returns the absolute instant d from now.
func Deadline(d time.Duration) time.Time {
	return time.Now().Add(d)
}

// Stamp renders t as a calendar timestamp with microsecond precision.
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// AppendStamp appends the Stamp rendering of t to b.
func AppendStamp(b []byte, t time.Time) []byte {
	return t.AppendFormat(b, StampLayout)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Useful in tests.
type FixedClock time.Time

// Now implements Clock.
func (c FixedClock) Now() time.Time { return time.Time(c) }
