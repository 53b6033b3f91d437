package lock

import (
	"sync"
	"sync/atomic"

	"github.com/wayneeseguin/syncore/pkg/errs"
)

// RWMutex is a reader/writer lock. Any number of readers may hold it while no
// writer does; a writer excludes readers and other writers. The zero value is
// an unlocked RWMutex using the default failure policy.
type RWMutex struct {
	mu      sync.RWMutex
	readers atomic.Int32
	writer  atomic.Bool
	closed  atomic.Bool
	opts    options
}

// NewRW returns a configured RWMutex.
func NewRW(opts ...Option) *RWMutex {
	return &RWMutex{opts: applyOptions(opts)}
}

func (rw *RWMutex) closedErr(op string) error {
	return errs.New(errs.PrimitiveLock, op, errs.KindInvalidState)
}

// RLock acquires a shared hold.
func (rw *RWMutex) RLock() error {
	if rw.closed.Load() {
		return rw.closedErr("rlock")
	}
	rw.mu.RLock()
	if rw.closed.Load() {
		rw.mu.RUnlock()
		return rw.closedErr("rlock")
	}
	rw.readers.Add(1)
	return nil
}

// TryRLock acquires a shared hold if no writer holds or waits for the lock.
func (rw *RWMutex) TryRLock() (bool, error) {
	if rw.closed.Load() {
		return false, rw.closedErr("tryrlock")
	}
	if !rw.mu.TryRLock() {
		return false, nil
	}
	if rw.closed.Load() {
		rw.mu.RUnlock()
		return false, rw.closedErr("tryrlock")
	}
	rw.readers.Add(1)
	return true, nil
}

// RUnlock releases one shared hold.
func (rw *RWMutex) RUnlock() error {
	for {
		n := rw.readers.Load()
		if n <= 0 {
			return misuse(rw.opts.policy, rw.opts.name, "runlock", errs.KindNotLocked)
		}
		if rw.readers.CompareAndSwap(n, n-1) {
			break
		}
	}
	rw.mu.RUnlock()
	return nil
}

// Lock acquires the exclusive hold.
func (rw *RWMutex) Lock() error {
	if rw.closed.Load() {
		return rw.closedErr("lock")
	}
	rw.mu.Lock()
	if rw.closed.Load() {
		rw.mu.Unlock()
		return rw.closedErr("lock")
	}
	rw.writer.Store(true)
	return nil
}

// TryLock acquires the exclusive hold if the lock is free.
func (rw *RWMutex) TryLock() (bool, error) {
	if rw.closed.Load() {
		return false, rw.closedErr("trylock")
	}
	if !rw.mu.TryLock() {
		return false, nil
	}
	if rw.closed.Load() {
		rw.mu.Unlock()
		return false, rw.closedErr("trylock")
	}
	rw.writer.Store(true)
	return true, nil
}

// Unlock releases the exclusive hold.
func (rw *RWMutex) Unlock() error {
	if !rw.writer.CompareAndSwap(true, false) {
		return misuse(rw.opts.policy, rw.opts.name, "unlock", errs.KindNotLocked)
	}
	rw.mu.Unlock()
	return nil
}

// Readers returns the number of shared holds.
func (rw *RWMutex) Readers() int {
	return int(rw.readers.Load())
}

// Locked reports whether a writer holds the lock.
func (rw *RWMutex) Locked() bool {
	return rw.writer.Load()
}

// Close destroys the lock. It fails with busy while any hold is outstanding.
func (rw *RWMutex) Close() error {
	if rw.closed.Load() {
		return nil
	}
	if !rw.mu.TryLock() {
		return errs.New(errs.PrimitiveLock, "close", errs.KindBusy)
	}
	rw.closed.Store(true)
	rw.mu.Unlock()
	return nil
}

// readSide adapts the shared half of an RWMutex to the scoped guard.
type readSide struct{ rw *RWMutex }

func (r readSide) Lock() error { return r.rw.RLock() }
func (r readSide) TryLock() (bool, error) { return r.rw.TryRLock() }
func (r readSide) Unlock() error { return r.rw.RUnlock() }
func (r readSide) opts() options { return r.rw.opts }

// writeSide adapts the exclusive half of an RWMutex to the scoped guard.
type writeSide struct{ rw *RWMutex }

func (w writeSide) Lock() error { return w.rw.Lock() }
func (w writeSide) TryLock() (bool, error) { return w.rw.TryLock() }
func (w writeSide) Unlock() error { return w.rw.Unlock() }
func (w writeSide) opts() options { return w.rw.opts }

type side interface {
	Lock() error
	TryLock() (bool, error)
	Unlock() error
	opts() options
}

// scoped carries the owns-flag bookkeeping shared by ReadGuard and WriteGuard.
type scoped struct {
	s    side
	owns bool
}

func (g *scoped) lock() error {
	if g.owns {
		o := g.s.opts()
		return misuse(o.policy, o.name, "lock", errs.KindAlreadyLocked)
	}
	if err := g.s.Lock(); err != nil {
		return err
	}
	g.owns = true
	return nil
}

func (g *scoped) tryLock() (bool, error) {
	if g.owns {
		o := g.s.opts()
		return true, misuse(o.policy, o.name, "trylock", errs.KindAlreadyLocked)
	}
	ok, err := g.s.TryLock()
	if err != nil || !ok {
		return false, err
	}
	g.owns = true
	return true, nil
}

func (g *scoped) unlock() error {
	if !g.owns {
		o := g.s.opts()
		return misuse(o.policy, o.name, "unlock", errs.KindNotLocked)
	}
	g.owns = false
	return g.s.Unlock()
}

func (g *scoped) release() {
	if g.owns {
		g.owns = false
		_ = g.s.Unlock()
	}
}

// ReadGuard is a scoped shared hold on an RWMutex.
type ReadGuard struct{ scoped }

// NewReadGuard returns a guard holding a shared lock on rw.
func NewReadGuard(rw *RWMutex) (*ReadGuard, error) {
	g := &ReadGuard{scoped{s: readSide{rw}}}
	if err := g.Lock(); err != nil {
		return nil, err
	}
	return g, nil
}

// NewUnlockedReadGuard returns a read guard over rw that does not hold it yet.
func NewUnlockedReadGuard(rw *RWMutex) *ReadGuard {
	return &ReadGuard{scoped{s: readSide{rw}}}
}

func (g *ReadGuard) Lock() error { return g.lock() }
func (g *ReadGuard) TryLock() (bool, error) { return g.tryLock() }
func (g *ReadGuard) Unlock() error { return g.unlock() }
func (g *ReadGuard) Owns() bool { return g.owns }

// Release drops the shared hold if the guard owns it.
func (g *ReadGuard) Release() {
	if g != nil {
		g.release()
	}
}

// WriteGuard is a scoped exclusive hold on an RWMutex.
type WriteGuard struct{ scoped }

// NewWriteGuard returns a guard holding the exclusive lock on rw.
func NewWriteGuard(rw *RWMutex) (*WriteGuard, error) {
	g := &WriteGuard{scoped{s: writeSide{rw}}}
	if err := g.Lock(); err != nil {
		return nil, err
	}
	return g, nil
}

// NewUnlockedWriteGuard returns a write guard over rw that does not hold it yet.
func NewUnlockedWriteGuard(rw *RWMutex) *WriteGuard {
	return &WriteGuard{scoped{s: writeSide{rw}}}
}

func (g *WriteGuard) Lock() error { return g.lock() }
func (g *WriteGuard) TryLock() (bool, error) { return g.tryLock() }
func (g *WriteGuard) Unlock() error { return g.unlock() }
func (g *WriteGuard) Owns() bool { return g.owns }

// Release drops the exclusive hold if the guard owns it.
func (g *WriteGuard) Release() {
	if g != nil {
		g.release()
	}
}
