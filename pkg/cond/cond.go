// Package cond provides a condition variable that waits on any lock.Holder and
// supports timed waits.
//
// A waiter is registered before its guard is released, so a notification
// issued after the caller released the lock is never lost. Wakeups are
// allowed to be spurious: callers always re-check their condition, either in
// their own loop around Wait or through one of the predicate forms.
package cond

import (
	"sync"
	"time"

	"github.com/wayneeseguin/syncore/pkg/chrono"
	"github.com/wayneeseguin/syncore/pkg/errs"
	"github.com/wayneeseguin/syncore/pkg/lock"
)

// Cond is a condition variable. The zero value is ready to use. A Cond must
// not be copied after first use.
type Cond struct {
	mu      sync.Mutex
	waiters []*waiter
}

type waiter struct {
	ch chan struct{}
}

// New returns a Cond.
func New() *Cond {
	return &Cond{}
}

// depther is implemented by lock.RecursiveGuard.
type depther interface {
	Depth() uint
}

func check(h lock.Holder, op string) error {
	if h == nil || !h.Owns() {
		return errs.New(errs.PrimitiveCond, op, errs.KindNotOwned)
	}
	if d, ok := h.(depther); ok && d.Depth() > 1 {
		return errs.New(errs.PrimitiveCond, op, errs.KindDeadlock)
	}
	return nil
}

func (c *Cond) enqueue() *waiter {
	w := &waiter{ch: make(chan struct{})}
	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()
	return w
}

// remove unregisters w. It returns false when w was already notified.
func (c *Cond) remove(w *waiter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, x := range c.waiters {
		if x == w {
			copy(c.waiters[i:], c.waiters[i+1:])
			c.waiters[len(c.waiters)-1] = nil
			c.waiters = c.waiters[:len(c.waiters)-1]
			return true
		}
	}
	return false
}

// park releases h, blocks until notified or until d elapses (d < 0 blocks
// without a limit) and reacquires h. It reports whether a notification was
// received.
func (c *Cond) park(h lock.Holder, d time.Duration) (bool, error) {
	w := c.enqueue()
	if err := h.Unlock(); err != nil {
		c.remove(w)
		return false, err
	}

	woke := true
	if d < 0 {
		<-w.ch
	} else {
		timer := time.NewTimer(d)
		select {
		case <-w.ch:
		case <-timer.C:
			// A notifier that raced the timer already took w off the list;
			// the signal is consumed here.
			woke = !c.remove(w)
		}
		timer.Stop()
	}

	if err := h.Lock(); err != nil {
		return woke, err
	}
	return woke, nil
}

// Wait atomically releases h, blocks until notified and reacquires h before
// returning. h must own its lock.
func (c *Cond) Wait(h lock.Holder) error {
	if err := check(h, "wait"); err != nil {
		return err
	}
	_, err := c.park(h, -1)
	return err
}

// WaitPred waits until pred reports true. pred is evaluated with h held.
func (c *Cond) WaitPred(h lock.Holder, pred func() bool) error {
	if err := check(h, "wait"); err != nil {
		return err
	}
	for !pred() {
		if _, err := c.park(h, -1); err != nil {
			return err
		}
	}
	return nil
}

// WaitFor waits for a notification for at most d. It returns false on
// timeout. A zero or negative d returns false without waiting.
func (c *Cond) WaitFor(h lock.Holder, d time.Duration) (bool, error) {
	if err := check(h, "waitfor"); err != nil {
		return false, err
	}
	if d <= 0 {
		return false, nil
	}
	return c.park(h, d)
}

// WaitForEach waits until pred reports true, allowing up to d for each
// individual wakeup. The timeout restarts after every notification, so the
// total time spent may exceed d; use WaitForBudget when the total must be
// bounded. On timeout it returns pred().
func (c *Cond) WaitForEach(h lock.Holder, d time.Duration, pred func() bool) (bool, error) {
	if err := check(h, "waitfor"); err != nil {
		return false, err
	}
	for !pred() {
		if d <= 0 {
			return false, nil
		}
		woke, err := c.park(h, d)
		if err != nil {
			return false, err
		}
		if !woke {
			return pred(), nil
		}
	}
	return true, nil
}

// WaitForBudget waits until pred reports true. After every wakeup the time
// spent waiting is subtracted from *budget, which never goes below zero, so
// the total wait never exceeds the original budget. On timeout it returns
// pred().
func (c *Cond) WaitForBudget(h lock.Holder, budget *time.Duration, pred func() bool) (bool, error) {
	if err := check(h, "waitfor"); err != nil {
		return false, err
	}
	if budget == nil {
		return false, errs.New(errs.PrimitiveCond, "waitfor", errs.KindInvalidState)
	}
	for !pred() {
		if *budget <= 0 {
			*budget = 0
			return false, nil
		}

		start := chrono.Monotonic()
		woke, err := c.park(h, *budget)
		*budget -= chrono.Monotonic() - start
		if *budget < 0 {
			*budget = 0
		}

		if err != nil {
			return false, err
		}
		if !woke {
			return pred(), nil
		}
	}
	return true, nil
}

// WaitUntil waits for a notification until deadline. The deadline may come
// from the wall clock or from chrono.FromMonotonic.
func (c *Cond) WaitUntil(h lock.Holder, deadline time.Time) (bool, error) {
	if err := check(h, "waituntil"); err != nil {
		return false, err
	}
	d := chrono.Until(deadline)
	if d <= 0 {
		return false, nil
	}
	return c.park(h, d)
}

// WaitUntilPred waits until pred reports true or deadline passes. On timeout
// it returns pred().
func (c *Cond) WaitUntilPred(h lock.Holder, deadline time.Time, pred func() bool) (bool, error) {
	if err := check(h, "waituntil"); err != nil {
		return false, err
	}
	for !pred() {
		d := chrono.Until(deadline)
		if d <= 0 {
			return false, nil
		}
		woke, err := c.park(h, d)
		if err != nil {
			return false, err
		}
		if !woke {
			return pred(), nil
		}
	}
	return true, nil
}

// NotifyOne wakes the longest-waiting waiter, if any. The caller need not
// hold the associated lock.
func (c *Cond) NotifyOne() {
	c.mu.Lock()
	if len(c.waiters) > 0 {
		w := c.waiters[0]
		c.waiters[0] = nil
		c.waiters = c.waiters[1:]
		close(w.ch)
	}
	c.mu.Unlock()
}

// NotifyAll wakes every registered waiter.
func (c *Cond) NotifyAll() {
	c.mu.Lock()
	ws := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, w := range ws {
		close(w.ch)
	}
}

// Waiters returns the number of registered waiters.
func (c *Cond) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
