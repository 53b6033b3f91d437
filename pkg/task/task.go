// Package task runs a function on a background thread and hands its single
// outcome, a value or a failure, to whoever holds the Task.
//
//	t, err := task.Go(func() (int, error) { return compute(), nil })
//	if err != nil {
//		return err
//	}
//	v, err := t.Get(10 * time.Millisecond)
//
// Failures never escape the background thread. Returned errors, panics and
// runtime.Goexit all become the failed outcome that Get returns.
package task

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wayneeseguin/syncore/pkg/errs"
	"github.com/wayneeseguin/syncore/pkg/thread"
)

// DefaultPoll is the poll interval used by Wait and Get when none is given.
const DefaultPoll = time.Second

// closePoll is the interval Close polls at while the task is still running.
const closePoll = 10 * time.Millisecond

// Status is the lifecycle state of a Task.
type Status uint32

const (
	StatusUninit Status = iota
	StatusRunning
	StatusFinished
	StatusFailed
	StatusJoined   // shared state released by Close or a failed Get
	StatusDetached // handle gave up interest with Detach
)

var statusNames = [...]string{
	StatusUninit:   "uninit",
	StatusRunning:  "running",
	StatusFinished: "finished",
	StatusFailed:   "failed",
	StatusJoined:   "joined",
	StatusDetached: "detached",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Terminal reports whether the background function has produced an outcome.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// outcome is either value[T] or failure[T].
type outcome[T any] interface {
	result() (T, error)
}

type value[T any] struct{ v T }

func (o value[T]) result() (T, error) { return o.v, nil }

type failure[T any] struct{ err error }

func (o failure[T]) result() (T, error) {
	var zero T
	return zero, o.err
}

// state is shared between the handle and the background thread.
type state[T any] struct {
	status  atomic.Uint32
	mailbox chan outcome[T]
}

func (st *state[T]) load() Status {
	return Status(st.status.Load())
}

// run is the trampoline executed on the background thread.
func (st *state[T]) run(fn func() (T, error)) {
	var out outcome[T] = failure[T]{errs.ErrGoexit}
	defer func() {
		if r := recover(); r != nil {
			out = failure[T]{errs.Capture(r)}
		}
		st.mailbox <- out
		if _, ok := out.(value[T]); ok {
			st.status.Store(uint32(StatusFinished))
		} else {
			st.status.Store(uint32(StatusFailed))
		}
	}()

	v, err := fn()
	if err != nil {
		out = failure[T]{err}
		return
	}
	out = value[T]{v}
}

// Task is a handle on one background computation producing a T. The zero
// value is an uninitialized handle ready for Create.
type Task[T any] struct {
	mu     sync.Mutex
	st     *state[T]
	got    outcome[T]
	status Status // reported while st is nil
}

// Go creates a Task running fn.
func Go[T any](fn func() (T, error)) (*Task[T], error) {
	t := &Task[T]{}
	if err := t.Create(fn); err != nil {
		return nil, err
	}
	return t, nil
}

// GoVoid creates a Task for a function that only reports success or failure.
func GoVoid(fn func() error) (*Task[struct{}], error) {
	return Go(func() (struct{}, error) { return struct{}{}, fn() })
}

// Create starts fn on a new detached thread. It fails with invalid-state
// while the previous computation is still running; a finished previous
// outcome is discarded.
func (t *Task[T]) Create(fn func() (T, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.st != nil && t.st.load() == StatusRunning {
		return errs.New(errs.PrimitiveTask, "create", errs.KindInvalidState)
	}
	t.st, t.got = nil, nil

	st := &state[T]{mailbox: make(chan outcome[T], 1)}
	st.status.Store(uint32(StatusRunning))

	th, err := thread.Spawn(func() { st.run(fn) })
	if err != nil {
		t.status = StatusUninit
		return err
	}
	// st is kept even if detaching fails so the outcome stays observable.
	t.st = st
	return th.Detach()
}

// Status returns the current state without blocking.
func (t *Task[T]) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st == nil {
		return t.status
	}
	return t.st.load()
}

func (t *Task[T]) shared(op string) (*state[T], error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st == nil {
		return nil, errs.New(errs.PrimitiveTask, op, errs.KindInvalidState)
	}
	return t.st, nil
}

func (st *state[T]) wait(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPoll
	}
	for !st.load().Terminal() {
		time.Sleep(interval)
	}
}

// Wait blocks until the computation has an outcome, checking every interval
// (DefaultPoll when interval is not positive).
func (t *Task[T]) Wait(interval time.Duration) error {
	st, err := t.shared("wait")
	if err != nil {
		return err
	}
	st.wait(interval)
	return nil
}

// Get waits for the outcome and returns it. A value may be read any number of
// times. A failure is returned once: the shared state is released and later
// calls fail with invalid-state.
func (t *Task[T]) Get(interval time.Duration) (T, error) {
	var zero T

	st, err := t.shared("get")
	if err != nil {
		return zero, err
	}
	st.wait(interval)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.st != st {
		return zero, errs.New(errs.PrimitiveTask, "get", errs.KindInvalidState)
	}
	if t.got == nil {
		t.got = <-st.mailbox
	}

	v, err := t.got.result()
	if err != nil {
		t.st, t.got = nil, nil
		t.status = StatusJoined
		return zero, err
	}
	return v, nil
}

// MustGet is like Get but re-raises a failure on the calling goroutine. A
// captured panic is re-raised with its original value.
func (t *Task[T]) MustGet(interval time.Duration) T {
	v, err := t.Get(interval)
	errs.Rethrow(err)
	return v
}

// Detach drops the handle's interest in the computation without waiting for
// it.
func (t *Task[T]) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st != nil {
		t.st, t.got = nil, nil
		t.status = StatusDetached
	}
}

// Close blocks until the computation has an outcome and releases the shared
// state. It returns a failure that was never retrieved with Get.
func (t *Task[T]) Close() error {
	st, err := t.shared("close")
	if err != nil {
		return nil
	}
	st.wait(closePoll)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.st != st {
		return nil
	}
	if t.got == nil {
		t.got = <-st.mailbox
	}
	_, err = t.got.result()

	t.st, t.got = nil, nil
	t.status = StatusJoined
	return err
}
