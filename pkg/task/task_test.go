package task_test

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayneeseguin/syncore/pkg/errs"
	"github.com/wayneeseguin/syncore/pkg/task"
)

const poll = time.Millisecond

func TestGetValueIsRepeatable(t *testing.T) {
	t.Parallel()

	tk, err := task.Go(func() (int, error) { return 42, nil })
	require.NoError(t, err)

	for range 3 {
		v, err := tk.Get(poll)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, task.StatusFinished, tk.Status())
	assert.Equal(t, 42, tk.MustGet(poll))

	require.NoError(t, tk.Close())
	assert.Equal(t, task.StatusJoined, tk.Status())
}

func TestFailureKindIsPreserved(t *testing.T) {
	t.Parallel()

	want := errs.New(errs.PrimitiveTask, "compute", errs.KindBusy)
	tk, err := task.Go(func() (string, error) { return "", want })
	require.NoError(t, err)

	require.NoError(t, tk.Wait(poll))
	assert.Equal(t, task.StatusFailed, tk.Status())

	_, err = tk.Get(poll)
	assert.ErrorIs(t, err, errs.KindBusy)
	assert.Equal(t, errs.KindBusy, errs.KindOf(err))

	_, err = tk.Get(poll)
	assert.ErrorIs(t, err, errs.KindInvalidState, "shared state released after a failure")
	assert.Equal(t, task.StatusJoined, tk.Status())
}

func TestPanicIsCaptured(t *testing.T) {
	t.Parallel()

	tk, err := task.Go(func() (int, error) { panic("kaboom") })
	require.NoError(t, err)

	_, err = tk.Get(poll)
	var pe *errs.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
}

func TestGoexitIsCaptured(t *testing.T) {
	t.Parallel()

	tk, err := task.Go(func() (int, error) {
		runtime.Goexit()
		return 1, nil
	})
	require.NoError(t, err)

	_, err = tk.Get(poll)
	assert.ErrorIs(t, err, errs.ErrGoexit)
}

func TestMustGetRethrows(t *testing.T) {
	t.Parallel()

	tk, err := task.Go(func() (int, error) { panic("again") })
	require.NoError(t, err)
	assert.PanicsWithValue(t, "again", func() { tk.MustGet(poll) })

	boom := errors.New("boom")
	tk2, err := task.GoVoid(func() error { return boom })
	require.NoError(t, err)
	assert.PanicsWithError(t, "boom", func() { tk2.MustGet(poll) })
}

func TestCreateWhileRunning(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var tk task.Task[int]
	require.NoError(t, tk.Create(func() (int, error) {
		<-release
		return 1, nil
	}))
	assert.Equal(t, task.StatusRunning, tk.Status())

	err := tk.Create(func() (int, error) { return 2, nil })
	assert.ErrorIs(t, err, errs.KindInvalidState)

	close(release)
	v, err := tk.Get(poll)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, tk.Create(func() (int, error) { return 2, nil }), "finished result is discarded")
	v, err = tk.Get(poll)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestUninit(t *testing.T) {
	t.Parallel()

	var tk task.Task[int]
	assert.Equal(t, task.StatusUninit, tk.Status())
	assert.ErrorIs(t, tk.Wait(poll), errs.KindInvalidState)

	_, err := tk.Get(poll)
	assert.ErrorIs(t, err, errs.KindInvalidState)
	assert.NoError(t, tk.Close())
}

func TestCloseBlocksUntilTerminal(t *testing.T) {
	t.Parallel()

	var finished atomic.Bool
	tk, err := task.GoVoid(func() error {
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, tk.Close())
	assert.True(t, finished.Load())
	assert.Equal(t, task.StatusJoined, tk.Status())
}

func TestCloseReturnsUnretrievedFailure(t *testing.T) {
	t.Parallel()

	tk, err := task.GoVoid(func() error { return errs.New(errs.PrimitiveTask, "x", errs.KindDevice) })
	require.NoError(t, err)
	assert.ErrorIs(t, tk.Close(), errs.KindDevice)
}

func TestDetach(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	tk, err := task.Go(func() (int, error) {
		<-release
		return 0, nil
	})
	require.NoError(t, err)

	tk.Detach()
	assert.Equal(t, task.StatusDetached, tk.Status())
	_, err = tk.Get(poll)
	assert.ErrorIs(t, err, errs.KindInvalidState)

	require.NoError(t, tk.Create(func() (int, error) { return 7, nil }), "a detached handle can be reused")
	assert.Equal(t, 7, tk.MustGet(poll))
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "running", task.StatusRunning.String())
	assert.Equal(t, "unknown", task.Status(99).String())
	assert.True(t, task.StatusFailed.Terminal())
	assert.False(t, task.StatusJoined.Terminal())
}
