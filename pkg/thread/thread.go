// Package thread runs functions on dedicated OS threads.
//
// A Thread wires its goroutine to an OS thread for the whole life of the body
// and never unwires it, so the OS thread exits together with the body. The
// handle follows join-or-detach semantics: a started thread must be joined or
// detached exactly once.
package thread

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/wayneeseguin/syncore/internal/config"
	"github.com/wayneeseguin/syncore/internal/diag"
	"github.com/wayneeseguin/syncore/pkg/errs"
)

var (
	live  atomic.Int64
	limit atomic.Int64
)

func init() {
	limit.Store(int64(config.Load().MaxThreads))
}

// Live returns the number of threads whose body has not returned yet.
func Live() int {
	return int(live.Load())
}

// Limit returns the maximum number of live threads.
func Limit() int {
	return int(limit.Load())
}

// SetLimit changes the maximum number of live threads and returns the
// previous value. A value below one disables new threads.
func SetLimit(n int) int {
	return int(limit.Swap(int64(n)))
}

// Yield lets other goroutines run.
func Yield() {
	runtime.Gosched()
}

type state uint8

const (
	stateIdle state = iota
	stateJoinable
	stateDetached
	stateJoined
)

// run is the bookkeeping of one started body. A Thread may be restarted after
// a join or detach; every start gets its own run.
type run struct {
	id      int
	running atomic.Bool
	done    chan struct{}

	mu       sync.Mutex
	err      error
	finished bool
	detached bool
}

func (r *run) finish(err error) {
	r.mu.Lock()
	r.err = err
	r.finished = true
	detached := r.detached
	r.mu.Unlock()

	if detached {
		report(r.id, err)
	}
	close(r.done)
}

func (r *run) detach() {
	r.mu.Lock()
	r.detached = true
	finished, err := r.finished, r.err
	r.mu.Unlock()

	if finished {
		report(r.id, err)
	}
}

func report(id int, err error) {
	if err != nil {
		diag.Error("detached thread failed", "tid", id, "error", err, "stack", errs.StackOf(err))
	}
}

// Thread is a handle on a native thread. The zero value is an idle handle.
type Thread struct {
	mu sync.Mutex
	st state
	r  *run
}

// Spawn starts fn on a new thread.
func Spawn(fn func()) (*Thread, error) {
	t := &Thread{}
	if err := t.Start(fn); err != nil {
		return nil, err
	}
	return t, nil
}

// Start runs fn on a new OS thread. Starting a handle that is still joinable
// fails with invalid-state; exceeding the live thread limit fails with
// create-limit-exceeded. Start returns once the thread is running.
func (t *Thread) Start(fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.st == stateJoinable {
		return errs.New(errs.PrimitiveThread, "start", errs.KindInvalidState)
	}
	if live.Add(1) > limit.Load() {
		live.Add(-1)
		return errs.New(errs.PrimitiveThread, "start", errs.KindCreateLimit)
	}

	r := &run{done: make(chan struct{})}
	r.running.Store(true)
	ready := make(chan struct{})
	go r.exec(fn, ready)
	<-ready

	t.r = r
	t.st = stateJoinable
	return nil
}

func (r *run) exec(fn func(), ready chan<- struct{}) {
	// Never unlocked: the OS thread is torn down when the goroutine exits.
	runtime.LockOSThread()
	r.id = CurrentID()
	close(ready)

	returned := false
	defer func() {
		err := errs.Capture(recover())
		if err == nil && !returned {
			err = errs.ErrGoexit
		}
		r.running.Store(false)
		live.Add(-1)
		r.finish(err)
	}()

	fn()
	returned = true
}

// Join waits for the body to return and reports its failure, if any. Joining
// a handle that is not joinable fails with invalid-state; a thread joining
// itself fails with deadlock. Self-joins are detected through OS thread ids,
// so on platforms where CurrentID reports 0 a self-join blocks forever.
func (t *Thread) Join() error {
	return t.join(false)
}

func (t *Thread) join(quiet bool) error {
	t.mu.Lock()
	if t.st != stateJoinable {
		t.mu.Unlock()
		if quiet {
			return nil
		}
		return errs.New(errs.PrimitiveThread, "join", errs.KindInvalidState)
	}
	r := t.r
	if r.id != 0 && r.running.Load() && CurrentID() == r.id {
		t.mu.Unlock()
		return errs.New(errs.PrimitiveThread, "join", errs.KindDeadlock)
	}
	t.st = stateJoined
	t.mu.Unlock()

	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Detach lets the thread run on independently. A failure of a detached body
// is logged instead of returned.
func (t *Thread) Detach() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.st != stateJoinable {
		return errs.New(errs.PrimitiveThread, "detach", errs.KindInvalidState)
	}
	t.st = stateDetached
	t.r.detach()
	return nil
}

// Joinable reports whether the handle has a started body that was neither
// joined nor detached.
func (t *Thread) Joinable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st == stateJoinable
}

// Running reports whether the most recently started body is still running.
func (t *Thread) Running() bool {
	t.mu.Lock()
	r := t.r
	t.mu.Unlock()
	return r != nil && r.running.Load()
}

// ID returns the OS thread id of the most recently started body, or 0.
func (t *Thread) ID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.r == nil {
		return 0
	}
	return t.r.id
}

// Close joins the thread if it is still joinable and returns the body's
// failure. Closing an idle, joined or detached handle is a no-op.
func (t *Thread) Close() error {
	return t.join(true)
}
