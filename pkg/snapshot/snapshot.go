// Package snapshot provides a stack whose readers see consistent,
// immutable snapshots without locking.
//
// Writers copy the current contents, modify the copy and publish it with an
// atomic pointer store. A View taken by a reader keeps referring to the
// version it was taken from for as long as the reader holds it; retired
// versions are reclaimed by the garbage collector.
package snapshot

import (
	"iter"
	"sync/atomic"

	"github.com/wayneeseguin/syncore/pkg/errs"
	"github.com/wayneeseguin/syncore/pkg/lock"
)

// ErrFull is returned by Push when the stack is at capacity.
var ErrFull = errs.New(errs.PrimitiveNone, "push", errs.KindTemporarilyUnavailable)

// Stack is a copy-on-write stack. The zero value is an empty, unbounded
// stack.
type Stack[T any] struct {
	mu      lock.Mutex // serializes writers
	cur     atomic.Pointer[[]T]
	version atomic.Uint64
	max     int
}

// New returns a stack holding at most capacity elements. A capacity of zero
// or less means unbounded.
func New[T any](capacity int) *Stack[T] {
	return &Stack[T]{max: capacity}
}

func (s *Stack[T]) load() []T {
	if p := s.cur.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *Stack[T]) publish(items []T) {
	s.cur.Store(&items)
	s.version.Add(1)
}

// Push adds v on top of the stack.
func (s *Stack[T]) Push(v T) error {
	g, err := lock.NewGuard(&s.mu)
	if err != nil {
		return err
	}
	defer g.Release()

	old := s.load()
	if s.max > 0 && len(old) >= s.max {
		return ErrFull
	}
	next := make([]T, len(old), len(old)+1)
	copy(next, old)
	s.publish(append(next, v))
	return nil
}

// Pop removes and returns the top element.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T

	g, err := lock.NewGuard(&s.mu)
	if err != nil {
		return zero, false
	}
	defer g.Release()

	old := s.load()
	if len(old) == 0 {
		return zero, false
	}
	top := old[len(old)-1]
	next := make([]T, len(old)-1)
	copy(next, old)
	s.publish(next)
	return top, true
}

// Drain removes every element and returns them in push order.
func (s *Stack[T]) Drain() []T {
	g, err := lock.NewGuard(&s.mu)
	if err != nil {
		return nil
	}
	defer g.Release()

	old := s.load()
	if len(old) == 0 {
		return nil
	}
	s.publish(nil)
	out := make([]T, len(old))
	copy(out, old)
	return out
}

// Len returns the number of elements in the current version.
func (s *Stack[T]) Len() int {
	return len(s.load())
}

// Version counts published modifications.
func (s *Stack[T]) Version() uint64 {
	return s.version.Load()
}

// Snapshot returns a stable view of the current contents.
func (s *Stack[T]) Snapshot() View[T] {
	return View[T]{items: s.load()}
}

// View is an immutable snapshot of a Stack.
type View[T any] struct {
	items []T
}

// Len returns the number of elements in the view.
func (v View[T]) Len() int {
	return len(v.items)
}

// At returns the i'th element in push order. It panics when i is out of
// range.
func (v View[T]) At(i int) T {
	return v.items[i]
}

// All iterates the elements in push order.
func (v View[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range v.items {
			if !yield(i, item) {
				return
			}
		}
	}
}
