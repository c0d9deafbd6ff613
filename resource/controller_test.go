package resource

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Would exceed the limit.
	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(ctx, 20), context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_MemoryLargerThanBudget(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	assert.ErrorIs(t, c.AcquireMemory(context.Background(), 101), ErrBudgetExceeded)
	assert.Zero(t, c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())
	assert.True(t, c.TryAcquireMemory(1<<40))

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500+1<<40), c.MemoryUsage())
}

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})

	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireWorker(context.Background()))
	assert.False(t, c.TryAcquireWorker())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireWorker(ctx), context.DeadlineExceeded)

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())
}

func TestController_DefaultWorkers(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, int64(1), c.Config().MaxWorkers)
	assert.True(t, c.TryAcquireWorker())
	assert.False(t, c.TryAcquireWorker())
}

func TestController_WaitOps(t *testing.T) {
	c := NewController(Config{OpsPerSec: 1000})

	// Larger than the burst: waited for in pieces instead of rejected.
	require.NoError(t, c.WaitOps(context.Background(), 1500))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.WaitOps(ctx, 10))

	unlimited := NewController(Config{})
	require.NoError(t, unlimited.WaitOps(context.Background(), 1<<20))
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireMemory(context.Background(), 1<<40))
	assert.True(t, c.TryAcquireMemory(1))
	c.ReleaseMemory(1)
	assert.Zero(t, c.MemoryUsage())

	require.NoError(t, c.AcquireWorker(context.Background()))
	assert.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()

	require.NoError(t, c.WaitOps(context.Background(), 1))
	require.NoError(t, c.AcquireIO(context.Background(), 1))
	assert.Equal(t, Config{}, c.Config())
}

func TestController_Writer(t *testing.T) {
	var buf bytes.Buffer

	unlimited := NewController(Config{})
	assert.Same(t, &buf, unlimited.Writer(context.Background(), &buf))

	c := NewController(Config{IOBytesPerSec: 64 << 10})
	w := c.Writer(context.Background(), &buf)

	data := bytes.Repeat([]byte("slab"), 20<<10) // 80 KiB, above the burst
	n, err := w.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, buf.Bytes())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err = c.Writer(ctx, &buf).Write(data)
	assert.Error(t, err)
	assert.Zero(t, n)
}
