package rtqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCapacityIsExact(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 3, 256, 300, 1000} {
		t.Run("", func(t *testing.T) {
			t.Parallel()

			r := New[int](n)
			assert.Equal(t, n, r.Cap())
			for i := range n {
				require.True(t, r.TryPush(i), "push %d of %d", i, n)
			}
			assert.False(t, r.TryPush(n))
			assert.Equal(t, n, r.Len())
			assert.Equal(t, uint64(1), r.Dropped())

			// wrap around the masked storage and fill again
			for range n / 2 {
				_, ok := r.TryPop()
				require.True(t, ok)
			}
			for i := range n / 2 {
				require.True(t, r.TryPush(i))
			}
			assert.False(t, r.TryPush(-1))
		})
	}
	assert.Panics(t, func() { New[int](0) })
}

func TestFullRingRejectsAndPreservesOrder(t *testing.T) {
	t.Parallel()

	const n = 256
	r := New[int](n)
	for i := range n {
		require.True(t, r.TryPush(i))
	}
	assert.False(t, r.TryPush(n))
	assert.Equal(t, uint64(1), r.Dropped())
	assert.Equal(t, n, r.Len())

	for i := range n {
		v, ok := r.TryPop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := r.TryPop()
	assert.False(t, ok)
}

func TestDrain(t *testing.T) {
	t.Parallel()

	r := New[string](4)
	assert.Zero(t, r.Drain(func(string) { t.Fatal("drained empty ring") }))

	r.TryPush("a")
	r.TryPush("b")
	r.TryPush("c")

	var got []string
	assert.Equal(t, 3, r.Drain(func(s string) { got = append(got, s) }))
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Zero(t, r.Len())

	// wraps around the end of the slot array
	for i := range 4 {
		require.True(t, r.TryPush(string(rune('w'+i))))
	}
	got = got[:0]
	r.Drain(func(s string) { got = append(got, s) })
	assert.Equal(t, []string{"w", "x", "y", "z"}, got)
}

func TestConcurrentProducerConsumer(t *testing.T) {
	t.Parallel()

	const total = 100_000
	r := New[int](64)

	var wg sync.WaitGroup
	wg.Go(func() {
		for i := 0; i < total; {
			if r.TryPush(i) {
				i++
			}
		}
	})

	next := 0
	for next < total {
		if v, ok := r.TryPop(); ok {
			require.Equal(t, next, v)
			next++
		}
	}
	wg.Wait()
}

func TestOperationsDoNotAllocate(t *testing.T) {
	r := New[int](8)
	allocs := testing.AllocsPerRun(100, func() {
		r.TryPush(1)
		r.TryPush(2)
		r.TryPop()
		r.Drain(func(int) {})
	})
	assert.Zero(t, allocs)
}
