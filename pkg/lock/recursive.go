package lock

import (
	"math"

	"github.com/wayneeseguin/syncore/pkg/errs"
)

// RecursiveMutex is an exclusive lock that its owner may lock repeatedly.
// Ownership is carried by a RecursiveGuard: the guard that first acquired the
// mutex may lock it again, incrementing a depth counter rather than
// re-entering the underlying lock. The mutex is released when the depth
// returns to zero.
type RecursiveMutex struct {
	m Mutex
}

// NewRecursive returns a configured RecursiveMutex.
func NewRecursive(opts ...Option) *RecursiveMutex {
	return &RecursiveMutex{m: Mutex{opts: applyOptions(opts)}}
}

// Locked reports whether some guard currently holds the mutex.
func (r *RecursiveMutex) Locked() bool {
	return r.m.Locked()
}

// Close destroys the mutex. It fails with busy while the mutex is held.
func (r *RecursiveMutex) Close() error {
	return r.m.Close()
}

// RecursiveGuard is the owner of a RecursiveMutex.
type RecursiveGuard struct {
	r     *RecursiveMutex
	depth uint
}

// NewRecursiveGuard returns a guard that holds r once.
func NewRecursiveGuard(r *RecursiveMutex) (*RecursiveGuard, error) {
	g := &RecursiveGuard{r: r}
	if err := g.Lock(); err != nil {
		return nil, err
	}
	return g, nil
}

// NewUnlockedRecursiveGuard returns a guard over r that does not hold it yet.
func NewUnlockedRecursiveGuard(r *RecursiveMutex) *RecursiveGuard {
	return &RecursiveGuard{r: r}
}

// Lock acquires the mutex, or adds one level when the guard already owns it.
// Exceeding the maximum representable depth is fatal.
func (g *RecursiveGuard) Lock() error {
	if g.depth > 0 {
		g.enter()
		return nil
	}
	if err := g.r.m.Lock(); err != nil {
		return err
	}
	g.depth = 1
	return nil
}

// TryLock acquires the mutex if it is free or already owned by this guard.
func (g *RecursiveGuard) TryLock() (bool, error) {
	if g.depth > 0 {
		g.enter()
		return true, nil
	}
	ok, err := g.r.m.TryLock()
	if err != nil || !ok {
		return false, err
	}
	g.depth = 1
	return true, nil
}

func (g *RecursiveGuard) enter() {
	if g.depth == math.MaxUint {
		panic(errs.New(errs.PrimitiveLock, "lock", errs.KindRecursionLimit))
	}
	g.depth++
}

// Unlock removes one level; the underlying mutex is released at depth zero.
// Unlocking more times than locked returns a not-locked failure.
func (g *RecursiveGuard) Unlock() error {
	if g.depth == 0 {
		return fail(g.r.m.opts.policy, "unlock", errs.KindNotLocked)
	}
	g.depth--
	if g.depth == 0 {
		return g.r.m.Unlock()
	}
	return nil
}

// Owns reports whether the guard holds the mutex at any depth.
func (g *RecursiveGuard) Owns() bool {
	return g.depth > 0
}

// Depth returns the number of outstanding locks held by the guard.
func (g *RecursiveGuard) Depth() uint {
	return g.depth
}

// Release drops every level held by the guard.
func (g *RecursiveGuard) Release() {
	if g != nil && g.depth > 0 {
		g.depth = 0
		_ = g.r.m.Unlock()
	}
}
