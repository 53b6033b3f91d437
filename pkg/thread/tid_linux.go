//go:build linux

package thread

import "golang.org/x/sys/unix"

// CurrentID returns the OS thread id of the calling goroutine's thread.
func CurrentID() int {
	return unix.Gettid()
}
