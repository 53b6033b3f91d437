// Package lock provides mutual-exclusion primitives with scoped guards.
//
// Three locks are offered:
//
//   - Mutex: exclusive lock, used through a Guard
//   - RecursiveMutex: exclusive lock its owning RecursiveGuard may re-enter
//   - RWMutex: reader/writer lock, used through ReadGuard and WriteGuard
//
// Guards are created locked and released on scope exit:
//
//	g, err := lock.NewGuard(&mu)
//	if err != nil {
//		return err
//	}
//	defer g.Release()
//
// Failures are classified with package errs. Resource failures (acquiring a
// closed lock, closing a held one) are always returned. Programmer errors
// such as locking a guard twice or unlocking a guard that does not own its
// lock follow the lock's policy: strict panics with the classified error,
// lenient logs a diagnostic and carries on. The default policy comes from
// SYNCORE_STRICT; WithStrict overrides it per lock.
package lock

// Holder is a guard that can be released and re-acquired around a blocking
// wait. Guard, ReadGuard, WriteGuard and RecursiveGuard implement it.
type Holder interface {
	Lock() error
	Unlock() error
	Owns() bool
}

var (
	_ Holder = (*Guard)(nil)
	_ Holder = (*ReadGuard)(nil)
	_ Holder = (*WriteGuard)(nil)
	_ Holder = (*RecursiveGuard)(nil)
)
