package mpsc_test

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/wayneeseguin/syncore/pkg/mpsc"
)

func TestFIFO(t *testing.T) {
	t.Parallel()

	q := mpsc.New[int]()
	assert.True(t, q.Empty())

	_, ok := q.Pop()
	assert.False(t, ok)

	for i := range 5 {
		q.Push(i)
	}
	assert.False(t, q.Empty())
	assert.Equal(t, 5, q.Len())

	for i := range 5 {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.Empty())
	assert.Zero(t, q.Len())
}

func TestDrain(t *testing.T) {
	t.Parallel()

	q := mpsc.New[string]()
	q.Push("a")
	q.Push("b")

	var got []string
	n := q.Drain(func(s string) { got = append(got, s) })
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Zero(t, q.Drain(func(string) {}))
}

type item struct {
	producer int
	seq      int
}

func TestConcurrentProducers(t *testing.T) {
	t.Parallel()

	const (
		producers = 8
		perProd   = 5000
		total     = producers * perProd
	)

	q := mpsc.New[item]()

	var (
		g    errgroup.Group
		done atomic.Bool
	)
	for p := range producers {
		g.Go(func() error {
			for i := range perProd {
				q.Push(item{producer: p, seq: i})
			}
			return nil
		})
	}

	consumed := make(chan []item, 1)
	go func() {
		var got []item
		for len(got) < total {
			if v, ok := q.Pop(); ok {
				got = append(got, v)
				continue
			}
			if done.Load() && q.Empty() {
				break
			}
			runtime.Gosched()
		}
		consumed <- got
	}()

	require.NoError(t, g.Wait())
	done.Store(true)
	got := <-consumed

	require.Len(t, got, total, "every pushed element is consumed exactly once")

	next := make([]int, producers)
	for _, it := range got {
		require.Equal(t, next[it.producer], it.seq, "producer %d out of order", it.producer)
		next[it.producer]++
	}
	for p, n := range next {
		assert.Equal(t, perProd, n, "producer %d", p)
	}
	assert.True(t, q.Empty())
}
