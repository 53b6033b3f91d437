//go:build !linux

package thread

// CurrentID returns 0; OS thread ids are only reported on linux.
func CurrentID() int {
	return 0
}
