package audiocore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, capacity int) *BufferPool {
	t.Helper()
	pool, err := NewBufferPool(capacity, 1, 64)
	require.NoError(t, err)
	return pool
}

func TestNewBufferPoolRejectsBadShape(t *testing.T) {
	t.Parallel()

	_, err := NewBufferPool(0, 1, 64)
	require.Error(t, err)
	_, err = NewBufferPool(4, 0, 64)
	require.Error(t, err)
}

func TestBufferPoolAcquireUntilExhausted(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 3)
	var held []*AudioBuffer
	for range 3 {
		buf, err := pool.Acquire()
		require.NoError(t, err)
		held = append(held, buf)
	}
	assert.Zero(t, pool.Available())

	_, err := pool.Acquire()
	require.ErrorIs(t, err, ErrPoolExhausted)

	for _, buf := range held {
		require.NoError(t, pool.Release(buf))
	}
	assert.Equal(t, pool.Capacity(), pool.Available())

	stats := pool.Stats()
	assert.Equal(t, uint64(3), stats.Acquired)
	assert.Equal(t, uint64(3), stats.Released)
	assert.Equal(t, uint64(1), stats.Exhausted)
}

func TestBufferPoolReleaseClears(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 1)
	buf, err := pool.Acquire()
	require.NoError(t, err)
	buf.Samples()[10] = 0.9
	require.NoError(t, pool.Release(buf))

	again, err := pool.Acquire()
	require.NoError(t, err)
	assert.Zero(t, again.Peak())
}

func TestBufferPoolRejectsInvalidRelease(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 2)
	other := newTestPool(t, 2)

	require.ErrorIs(t, pool.Release(NewAudioBuffer(1, 64)), ErrForeignBuffer)
	require.ErrorIs(t, pool.Release(nil), ErrForeignBuffer)

	foreign, err := other.Acquire()
	require.NoError(t, err)
	require.ErrorIs(t, pool.Release(foreign), ErrForeignBuffer)

	buf, err := pool.Acquire()
	require.NoError(t, err)
	require.NoError(t, pool.Release(buf))
	require.ErrorIs(t, pool.Release(buf), ErrDoubleRelease)
	assert.Equal(t, 2, pool.Available())
	assert.Equal(t, uint64(4), pool.Stats().Rejected)
}

func TestAcquireScopedReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 1)
	func() {
		guard, err := pool.AcquireScoped()
		require.NoError(t, err)
		defer guard.Release()
		require.NotNil(t, guard.Buffer())
		assert.Zero(t, pool.Available())
		guard.Release()
		assert.Nil(t, guard.Buffer())
	}()
	assert.Equal(t, 1, pool.Available())

	guard, err := pool.AcquireScoped()
	require.NoError(t, err)
	assert.NotNil(t, guard.Buffer())
	guard.Release()
}

func TestStaleScopedHandleDoesNotReleaseNextOwner(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 1)

	first, err := pool.AcquireScoped()
	require.NoError(t, err)
	stale := first
	first.Release()

	second, err := pool.AcquireScoped()
	require.NoError(t, err)

	first.Release()
	stale.Release()
	assert.Nil(t, first.Buffer())
	assert.Nil(t, stale.Buffer())

	require.NotNil(t, second.Buffer())
	assert.Zero(t, pool.Available())
	assert.Zero(t, pool.Stats().Rejected)

	second.Release()
	assert.Equal(t, 1, pool.Available())
}

func TestLeaseReleasesOnPanic(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 4)
	lease := pool.NewLease()

	assert.Panics(t, func() {
		defer lease.Close()
		for range 3 {
			_, err := lease.Acquire()
			require.NoError(t, err)
		}
		panic("node failure")
	})
	assert.Equal(t, 4, pool.Available())
	assert.Zero(t, lease.Held())

	func() {
		defer lease.Close()
		for range 4 {
			_, err := lease.Acquire()
			require.NoError(t, err)
		}
		_, err := lease.Acquire()
		require.ErrorIs(t, err, ErrPoolExhausted)
		assert.Equal(t, 4, lease.Held())
	}()
	assert.Equal(t, 4, pool.Available())
}

func TestPoolOperationsDoNotAllocate(t *testing.T) {
	pool := newTestPool(t, 8)
	lease := pool.NewLease()

	allocs := testing.AllocsPerRun(100, func() {
		for range 8 {
			_, _ = lease.Acquire()
		}
		lease.Close()
		g, _ := pool.AcquireScoped()
		g.Release()
	})
	assert.Zero(t, allocs)
}
