// Package mpsc implements an unbounded lock-free multi-producer,
// single-consumer queue.
//
// Producers exchange the tail pointer and then link the previous tail to the
// new node. Between those two steps the consumer may see the queue as empty
// even though a push is in progress; the element becomes visible once the
// link is stored.
package mpsc

import "sync/atomic"

type node[T any] struct {
	next atomic.Pointer[node[T]]
	val  T
}

// Queue is an MPSC queue. Push may be called from any goroutine; Pop, Drain
// and Empty must only be called by the single consumer. Use New to create a
// Queue.
type Queue[T any] struct {
	head *node[T] // consumer only; always a sentinel
	tail atomic.Pointer[node[T]]
	n    atomic.Int64
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	stub := &node[T]{}
	q := &Queue[T]{head: stub}
	q.tail.Store(stub)
	return q
}

// Push appends v.
func (q *Queue[T]) Push(v T) {
	n := &node[T]{val: v}
	prev := q.tail.Swap(n)
	prev.next.Store(n)
	q.n.Add(1)
}

// Pop removes the oldest linked element.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T

	next := q.head.next.Load()
	if next == nil {
		return zero, false
	}
	v := next.val
	next.val = zero
	q.head = next
	q.n.Add(-1)
	return v, true
}

// Drain pops every linked element and passes it to fn. It returns the number
// of elements handed to fn.
func (q *Queue[T]) Drain(fn func(T)) int {
	n := 0
	for {
		v, ok := q.Pop()
		if !ok {
			return n
		}
		fn(v)
		n++
	}
}

// Empty reports whether the consumer would find nothing to pop.
func (q *Queue[T]) Empty() bool {
	return q.head.next.Load() == nil
}

// Len returns an approximate number of queued elements. It may briefly lag
// behind concurrent pushes and pops.
func (q *Queue[T]) Len() int {
	if n := q.n.Load(); n > 0 {
		return int(n)
	}
	return 0
}
