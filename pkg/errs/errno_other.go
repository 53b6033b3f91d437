//go:build !unix

package errs

// FromErrno translates an OS error into a classified error for primitive p.
// Error numbers are not classified on this platform; the cause is kept.
func FromErrno(p Primitive, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return Wrap(p, op, KindUnknown, err)
}
