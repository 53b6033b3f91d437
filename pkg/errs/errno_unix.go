//go:build unix

package errs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// kindOfErrno maps a unix error number onto the closed taxonomy.
func kindOfErrno(errno unix.Errno) Kind {
	switch errno {
	case unix.ENOMEM:
		return KindNoMemory
	case unix.EAGAIN:
		return KindTemporarilyUnavailable
	case unix.EPERM, unix.EACCES:
		return KindPermissionDenied
	case unix.EBUSY:
		return KindBusy
	case unix.EINVAL, unix.EBADF:
		return KindInvalidState
	case unix.EDEADLK:
		return KindDeadlock
	case unix.EIO, unix.ENXIO, unix.ENODEV, unix.ENOSPC:
		return KindDevice
	}
	return KindUnknown
}

// FromErrno translates an OS error into a classified error for primitive p.
// The original error is kept as the cause. FromErrno(p, op, nil) returns nil.
func FromErrno(p Primitive, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return Wrap(p, op, kindOfErrno(errno), err)
	}
	return Wrap(p, op, KindUnknown, err)
}
