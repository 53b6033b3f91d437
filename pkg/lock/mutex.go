package lock

import (
	"sync"
	"sync/atomic"

	"github.com/wayneeseguin/syncore/pkg/errs"
)

// Mutex is an exclusive lock. The zero value is an unlocked mutex using the
// default failure policy.
//
// Unlike sync.Mutex, unlocking a Mutex that is not locked is a reported
// failure instead of a fatal runtime error, and a closed Mutex refuses new
// acquisitions with an invalid-state failure.
type Mutex struct {
	mu     sync.Mutex
	locked atomic.Bool
	closed atomic.Bool
	opts   options
}

// New returns a configured Mutex.
func New(opts ...Option) *Mutex {
	return &Mutex{opts: applyOptions(opts)}
}

// Lock blocks until the mutex is acquired. It fails with invalid-state when
// the mutex has been closed, including while the caller was blocked.
func (m *Mutex) Lock() error {
	if m.closed.Load() {
		return errs.New(errs.PrimitiveLock, "lock", errs.KindInvalidState)
	}
	m.mu.Lock()
	if m.closed.Load() {
		m.mu.Unlock()
		return errs.New(errs.PrimitiveLock, "lock", errs.KindInvalidState)
	}
	m.locked.Store(true)
	return nil
}

// TryLock acquires the mutex if it is free. It returns false without blocking
// when the mutex is held, and still fails on a closed mutex.
func (m *Mutex) TryLock() (bool, error) {
	if m.closed.Load() {
		return false, errs.New(errs.PrimitiveLock, "trylock", errs.KindInvalidState)
	}
	if !m.mu.TryLock() {
		return false, nil
	}
	if m.closed.Load() {
		m.mu.Unlock()
		return false, errs.New(errs.PrimitiveLock, "trylock", errs.KindInvalidState)
	}
	m.locked.Store(true)
	return true, nil
}

// Unlock releases the mutex. Unlocking a mutex that is not locked is reported
// according to the mutex's policy.
func (m *Mutex) Unlock() error {
	if !m.locked.CompareAndSwap(true, false) {
		return misuse(m.opts.policy, m.opts.name, "unlock", errs.KindNotLocked)
	}
	m.mu.Unlock()
	return nil
}

// Locked reports whether the mutex is currently held. The answer may be stale
// by the time the caller looks at it.
func (m *Mutex) Locked() bool {
	return m.locked.Load()
}

// Close destroys the mutex. It fails with busy while the mutex is held.
// Closing twice is a no-op.
func (m *Mutex) Close() error {
	if m.closed.Load() {
		return nil
	}
	if !m.mu.TryLock() {
		return errs.New(errs.PrimitiveLock, "close", errs.KindBusy)
	}
	m.closed.Store(true)
	m.mu.Unlock()
	return nil
}

// Guard is a scoped handle representing ownership of a Mutex. A Guard is
// meant to live on one goroutine's stack; it is not safe for concurrent use.
//
//	g, err := lock.NewGuard(&mu)
//	if err != nil {
//		return err
//	}
//	defer g.Release()
type Guard struct {
	m    *Mutex
	owns bool
}

// NewGuard returns a Guard that already holds m.
func NewGuard(m *Mutex) (*Guard, error) {
	g := &Guard{m: m}
	if err := g.Lock(); err != nil {
		return nil, err
	}
	return g, nil
}

// NewUnlockedGuard returns a Guard over m that does not hold it yet.
func NewUnlockedGuard(m *Mutex) *Guard {
	return &Guard{m: m}
}

// Lock acquires the mutex. Locking a guard that already owns its mutex is an
// already-locked misuse.
func (g *Guard) Lock() error {
	if g.owns {
		return misuse(g.m.opts.policy, g.m.opts.name, "lock", errs.KindAlreadyLocked)
	}
	if err := g.m.Lock(); err != nil {
		return err
	}
	g.owns = true
	return nil
}

// TryLock acquires the mutex if it is free.
func (g *Guard) TryLock() (bool, error) {
	if g.owns {
		return true, misuse(g.m.opts.policy, g.m.opts.name, "trylock", errs.KindAlreadyLocked)
	}
	ok, err := g.m.TryLock()
	if err != nil || !ok {
		return false, err
	}
	g.owns = true
	return true, nil
}

// Unlock releases the mutex. Unlocking a guard that does not own its mutex is
// a not-locked misuse.
func (g *Guard) Unlock() error {
	if !g.owns {
		return misuse(g.m.opts.policy, g.m.opts.name, "unlock", errs.KindNotLocked)
	}
	g.owns = false
	return g.m.Unlock()
}

// Owns reports whether the guard currently holds its mutex.
func (g *Guard) Owns() bool {
	return g.owns
}

// Mutex returns the guarded mutex.
func (g *Guard) Mutex() *Mutex {
	return g.m
}

// Release unlocks the mutex if the guard owns it. It is the scope-exit path
// and never reports misuse.
func (g *Guard) Release() {
	if g != nil && g.owns {
		g.owns = false
		_ = g.m.Unlock()
	}
}
