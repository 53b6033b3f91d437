package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/wayneeseguin/syncore/pkg/snapshot"
)

func TestPushPop(t *testing.T) {
	t.Parallel()

	var s snapshot.Stack[string]

	_, ok := s.Pop()
	assert.False(t, ok)

	require.NoError(t, s.Push("a"))
	require.NoError(t, s.Push("b"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, uint64(2), s.Version())

	v, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, uint64(3), s.Version())
}

func TestCapacity(t *testing.T) {
	t.Parallel()

	s := snapshot.New[int](2)
	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	assert.ErrorIs(t, s.Push(3), snapshot.ErrFull)
	assert.Equal(t, 2, s.Len())

	_, _ = s.Pop()
	assert.NoError(t, s.Push(3))
}

func TestSnapshotIsStable(t *testing.T) {
	t.Parallel()

	s := snapshot.New[int](0)
	for i := range 3 {
		require.NoError(t, s.Push(i))
	}

	view := s.Snapshot()

	require.NoError(t, s.Push(3))
	_, _ = s.Pop()
	_, _ = s.Pop()
	s.Drain()

	assert.Zero(t, s.Len())
	require.Equal(t, 3, view.Len())
	for i, v := range view.All() {
		assert.Equal(t, i, v, "view keeps push order")
	}
	assert.Equal(t, 2, view.At(2))
}

func TestDrain(t *testing.T) {
	t.Parallel()

	var s snapshot.Stack[int]
	assert.Nil(t, s.Drain())

	for i := range 4 {
		require.NoError(t, s.Push(i))
	}
	view := s.Snapshot()

	got := s.Drain()
	assert.Equal(t, []int{0, 1, 2, 3}, got)
	assert.Zero(t, s.Len())

	got[0] = 99
	assert.Equal(t, 0, view.At(0), "drained slice does not alias published versions")
}

func TestAllStopsEarly(t *testing.T) {
	t.Parallel()

	var s snapshot.Stack[int]
	for i := range 5 {
		require.NoError(t, s.Push(i))
	}

	var seen []int
	for _, v := range s.Snapshot().All() {
		if v == 2 {
			break
		}
		seen = append(seen, v)
	}
	assert.Equal(t, []int{0, 1}, seen)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	t.Parallel()

	var (
		s snapshot.Stack[int]
		g errgroup.Group
	)

	const writers, pushes = 4, 200

	for w := range writers {
		g.Go(func() error {
			for i := range pushes {
				if err := s.Push(w*pushes + i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for range 4 {
		g.Go(func() error {
			for range 200 {
				view := s.Snapshot()
				n := 0
				for range view.All() {
					n++
				}
				if n != view.Len() {
					t.Errorf("view changed while iterating: %d != %d", n, view.Len())
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, writers*pushes, s.Len())
	assert.Equal(t, uint64(writers*pushes), s.Version())
}
