package lock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/wayneeseguin/syncore/pkg/errs"
	"github.com/wayneeseguin/syncore/pkg/lock"
)

// panicKind runs fn and returns the kind of the *errs.Error it panicked with.
func panicKind(t *testing.T, fn func()) (kind errs.Kind) {
	t.Helper()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		kind = errs.KindOf(err)
	}()
	fn()
	return errs.KindUnknown
}

func TestMutexMutualExclusion(t *testing.T) {
	t.Parallel()

	const (
		workers    = 16
		increments = 500
	)

	var (
		mu      lock.Mutex
		counter int
		g       errgroup.Group
	)

	for range workers {
		g.Go(func() error {
			for range increments {
				guard, err := lock.NewGuard(&mu)
				if err != nil {
					return err
				}
				counter++
				guard.Release()
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, workers*increments, counter)
	assert.False(t, mu.Locked())
}

func TestMutexTryLock(t *testing.T) {
	t.Parallel()

	mu := lock.New(lock.WithName("try"))

	ok, err := mu.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = mu.TryLock()
	require.NoError(t, err)
	assert.False(t, ok, "second TryLock must not acquire")

	require.NoError(t, mu.Unlock())

	ok, err = mu.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mu.Unlock())
}

func TestMutexClose(t *testing.T) {
	t.Parallel()

	mu := lock.New()
	require.NoError(t, mu.Lock())

	err := mu.Close()
	assert.ErrorIs(t, err, errs.KindBusy)

	require.NoError(t, mu.Unlock())
	require.NoError(t, mu.Close())
	require.NoError(t, mu.Close())

	assert.ErrorIs(t, mu.Lock(), errs.KindInvalidState)

	_, err = mu.TryLock()
	assert.ErrorIs(t, err, errs.KindInvalidState)

	_, err = lock.NewGuard(mu)
	assert.ErrorIs(t, err, errs.KindInvalidState)
}

func TestMutexMisusePolicy(t *testing.T) {
	t.Parallel()

	t.Run("lenient unlock of unlocked mutex is ignored", func(t *testing.T) {
		t.Parallel()

		mu := lock.New(lock.WithStrict(false))
		assert.NoError(t, mu.Unlock())
		assert.False(t, mu.Locked())
	})

	t.Run("strict unlock of unlocked mutex panics", func(t *testing.T) {
		t.Parallel()

		mu := lock.New(lock.WithStrict(true))
		assert.Equal(t, errs.KindNotLocked, panicKind(t, func() { _ = mu.Unlock() }))
	})
}

func TestGuard(t *testing.T) {
	t.Parallel()

	t.Run("created locked and released on scope exit", func(t *testing.T) {
		t.Parallel()

		var mu lock.Mutex

		func() {
			g, err := lock.NewGuard(&mu)
			require.NoError(t, err)
			defer g.Release()

			assert.True(t, g.Owns())
			assert.True(t, mu.Locked())
			assert.Same(t, &mu, g.Mutex())
		}()

		assert.False(t, mu.Locked())
	})

	t.Run("unlocked guard defers acquisition", func(t *testing.T) {
		t.Parallel()

		var mu lock.Mutex

		g := lock.NewUnlockedGuard(&mu)
		assert.False(t, g.Owns())
		assert.False(t, mu.Locked())

		ok, err := g.TryLock()
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, g.Unlock())
		assert.False(t, g.Owns())
		g.Release()
	})

	t.Run("lenient double lock and double unlock", func(t *testing.T) {
		t.Parallel()

		mu := lock.New(lock.WithStrict(false))
		g, err := lock.NewGuard(mu)
		require.NoError(t, err)

		assert.NoError(t, g.Lock())
		assert.True(t, g.Owns())

		ok, err := g.TryLock()
		assert.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, g.Unlock())
		assert.False(t, mu.Locked())
		assert.NoError(t, g.Unlock())
	})

	t.Run("strict double lock panics", func(t *testing.T) {
		t.Parallel()

		mu := lock.New(lock.WithStrict(true))
		g, err := lock.NewGuard(mu)
		require.NoError(t, err)
		defer g.Release()

		assert.Equal(t, errs.KindAlreadyLocked, panicKind(t, func() { _ = g.Lock() }))
	})

	t.Run("strict unlock without ownership panics", func(t *testing.T) {
		t.Parallel()

		mu := lock.New(lock.WithStrict(true))
		g := lock.NewUnlockedGuard(mu)

		assert.Equal(t, errs.KindNotLocked, panicKind(t, func() { _ = g.Unlock() }))
	})

	t.Run("release of nil guard is safe", func(t *testing.T) {
		t.Parallel()

		var g *lock.Guard
		assert.NotPanics(t, g.Release)
	})
}

func TestGuardBlocksOtherGoroutine(t *testing.T) {
	t.Parallel()

	var mu lock.Mutex

	g, err := lock.NewGuard(&mu)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		other, err := lock.NewGuard(&mu)
		if err == nil {
			close(acquired)
			other.Release()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second guard acquired a held mutex")
	default:
	}

	g.Release()
	<-acquired
}

func TestRecursiveGuard(t *testing.T) {
	t.Parallel()

	const k = 5

	rm := lock.NewRecursive(lock.WithStrict(false))

	g, err := lock.NewRecursiveGuard(rm)
	require.NoError(t, err)
	for range k - 1 {
		require.NoError(t, g.Lock())
	}
	assert.Equal(t, uint(k), g.Depth())

	other := lock.NewUnlockedRecursiveGuard(rm)

	for i := range k {
		ok, err := other.TryLock()
		require.NoError(t, err)
		require.False(t, ok, "mutex released after %d of %d unlocks", i, k)

		require.NoError(t, g.Unlock())
	}

	assert.False(t, g.Owns())
	assert.False(t, rm.Locked())

	err = g.Unlock()
	assert.ErrorIs(t, err, errs.KindNotLocked, "unlocking more than k times is reported")

	ok, err := other.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = other.TryLock()
	require.NoError(t, err)
	assert.True(t, ok, "owner TryLock re-enters")
	assert.Equal(t, uint(2), other.Depth())

	other.Release()
	assert.False(t, rm.Locked())
	require.NoError(t, rm.Close())
}

func TestRecursiveGuardStrictOverUnlock(t *testing.T) {
	t.Parallel()

	rm := lock.NewRecursive(lock.WithStrict(true))
	g := lock.NewUnlockedRecursiveGuard(rm)

	assert.Equal(t, errs.KindNotLocked, panicKind(t, func() { _ = g.Unlock() }))
}

func TestRWMutexReaders(t *testing.T) {
	t.Parallel()

	rw := lock.NewRW(lock.WithName("rw"))

	const readers = 8

	var (
		wg      sync.WaitGroup
		holding sync.WaitGroup
		release = make(chan struct{})
	)

	holding.Add(readers)
	wg.Add(readers)
	for range readers {
		go func() {
			defer wg.Done()

			g, err := lock.NewReadGuard(rw)
			if err != nil {
				holding.Done()
				return
			}
			defer g.Release()

			holding.Done()
			<-release
		}()
	}

	holding.Wait()
	assert.Equal(t, readers, rw.Readers())

	w := lock.NewUnlockedWriteGuard(rw)
	ok, err := w.TryLock()
	require.NoError(t, err)
	assert.False(t, ok, "writer must wait for readers")
	assert.ErrorIs(t, rw.Close(), errs.KindBusy)

	close(release)
	wg.Wait()

	require.NoError(t, w.Lock())
	assert.True(t, rw.Locked())

	r := lock.NewUnlockedReadGuard(rw)
	ok, err = r.TryLock()
	require.NoError(t, err)
	assert.False(t, ok, "readers must wait for the writer")

	w.Release()
	assert.False(t, rw.Locked())

	ok, err = r.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, r.Unlock())
	assert.Zero(t, rw.Readers())

	require.NoError(t, rw.Close())
	_, err = lock.NewReadGuard(rw)
	assert.ErrorIs(t, err, errs.KindInvalidState)
	_, err = lock.NewWriteGuard(rw)
	assert.ErrorIs(t, err, errs.KindInvalidState)
}

func TestRWMutexWriterExclusion(t *testing.T) {
	t.Parallel()

	var (
		rw      lock.RWMutex
		counter int
		g       errgroup.Group
	)

	for range 8 {
		g.Go(func() error {
			for range 200 {
				w, err := lock.NewWriteGuard(&rw)
				if err != nil {
					return err
				}
				counter++
				w.Release()

				r, err := lock.NewReadGuard(&rw)
				if err != nil {
					return err
				}
				_ = counter
				r.Release()
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, 8*200, counter)
}

func TestRWMutexMisuse(t *testing.T) {
	t.Parallel()

	lenient := lock.NewRW(lock.WithStrict(false))
	assert.NoError(t, lenient.RUnlock())
	assert.NoError(t, lenient.Unlock())

	strict := lock.NewRW(lock.WithStrict(true))
	assert.Equal(t, errs.KindNotLocked, panicKind(t, func() { _ = strict.RUnlock() }))

	wg, err := lock.NewWriteGuard(strict)
	require.NoError(t, err)
	assert.Equal(t, errs.KindAlreadyLocked, panicKind(t, func() { _ = wg.Lock() }))
	require.NoError(t, wg.Unlock())
	assert.Equal(t, errs.KindNotLocked, panicKind(t, func() { _ = wg.Unlock() }))

	var nilRead *lock.ReadGuard
	var nilWrite *lock.WriteGuard
	assert.NotPanics(t, nilRead.Release)
	assert.NotPanics(t, nilWrite.Release)
}
