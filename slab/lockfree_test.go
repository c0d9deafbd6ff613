package slab

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/slabkit/region"
)

func newLockFree(t testing.TB, n int, opts ...Option) *LockFree[elem16] {
	t.Helper()
	a, err := NewLockFree[elem16](region.Alloc(16*n), opts...)
	require.NoError(t, err)
	require.Equal(t, n, a.Cap())
	return a
}

func TestLockFree_Scenario(t *testing.T) {
	a := newLockFree(t, 3)

	p1, err := a.Alloc()
	require.NoError(t, err)
	p2, err := a.Alloc()
	require.NoError(t, err)
	p3, err := a.Alloc()
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
	assert.NotSame(t, p2, p3)

	_, err = a.Alloc()
	assert.ErrorIs(t, err, ErrExhausted)

	require.NoError(t, a.Free(p2))
	p4, err := a.Alloc()
	require.NoError(t, err)
	assert.Same(t, p2, p4)
}

func TestLockFree_ReuseIsLIFO(t *testing.T) {
	a := newLockFree(t, 4)

	ps := make([]*elem16, 4)
	for i := range ps {
		var err error
		ps[i], err = a.Alloc()
		require.NoError(t, err)
	}
	require.NoError(t, a.Free(ps[0]))
	require.NoError(t, a.Free(ps[3]))

	got, err := a.Alloc()
	require.NoError(t, err)
	assert.Same(t, ps[3], got)
	got, err = a.Alloc()
	require.NoError(t, err)
	assert.Same(t, ps[0], got)
}

func TestLockFree_DoubleFree(t *testing.T) {
	a := newLockFree(t, 2)

	p, err := a.Alloc()
	require.NoError(t, err)
	require.NoError(t, a.Free(p))

	err = a.Free(p)
	var dfe *DoubleFreeError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, uint32(0), dfe.Slot)

	assert.Equal(t, uint64(1), a.Stats().FreeSlots, "rejected free leaves the chain intact")
}

func TestLockFree_Misuse(t *testing.T) {
	a := newLockFree(t, 2)

	assert.NoError(t, a.Free(nil))

	var outside elem16
	assert.ErrorIs(t, a.Free(&outside), ErrForeignAddress)
	assert.ErrorIs(t, a.Free(&a.slots[0]), ErrForeignAddress, "slot never handed out")
}

func TestLockFree_Live(t *testing.T) {
	a := newLockFree(t, 4)
	p0, _ := a.Alloc()
	_, _ = a.Alloc()
	_, _ = a.Alloc()
	require.NoError(t, a.Free(p0))

	assert.Equal(t, []uint32{1, 2}, a.Live().ToArray())

	b := newLockFree(t, 4, WithDoubleFreeCheck(false))
	assert.Nil(t, b.Live())
}

func TestLockFree_SlotOf(t *testing.T) {
	a := newLockFree(t, 4)
	_, _ = a.Alloc()
	p1, _ := a.Alloc()

	i, ok := a.SlotOf(p1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), i)

	_, ok = a.SlotOf(&elem16{})
	assert.False(t, ok)
	_, ok = a.SlotOf(&a.slots[3]) // not bumped yet
	assert.False(t, ok)
}

// Two workers cycle alloc/free against a 16-slot allocator; afterwards every
// slot must be free exactly once.
func TestLockFree_ConcurrentCycles(t *testing.T) {
	const (
		slots  = 16
		cycles = 10_000
	)
	a := newLockFree(t, slots)

	var g errgroup.Group
	for w := 0; w < 2; w++ {
		g.Go(func() error {
			for i := 0; i < cycles; i++ {
				p, err := a.Alloc()
				if err != nil {
					return err
				}
				if err := a.Free(p); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[*elem16]bool)
	for i := 0; i < slots; i++ {
		p, err := a.Alloc()
		require.NoError(t, err, "allocation %d", i)
		require.False(t, seen[p], "slot handed out twice")
		seen[p] = true
	}
	_, err := a.Alloc()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestLockFree_NoAliasing(t *testing.T) {
	const (
		slots   = 32
		workers = 8
		ops     = 2000
	)
	a := newLockFree(t, slots)

	var g errgroup.Group
	for w := 1; w <= workers; w++ {
		token := uint64(w)
		g.Go(func() error {
			held := make([]*elem16, 0, 4)
			for i := 0; i < ops; i++ {
				if p, err := a.Alloc(); err == nil {
					p.A = token
					held = append(held, p)
				}
				runtime.Gosched()
				if len(held) == cap(held) || i == ops-1 {
					for _, p := range held {
						if p.A != token {
							t.Errorf("slot %p aliased: owner %d, found %d", p, token, p.A)
						}
						if err := a.Free(p); err != nil {
							return err
						}
					}
					held = held[:0]
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, uint64(0), a.Stats().InUse)
}

func TestLockFree_ConcurrentCapacity(t *testing.T) {
	const n = 1000
	a := newLockFree(t, n)

	counts := make([]int, 8)
	var g errgroup.Group
	for w := range counts {
		g.Go(func() error {
			for {
				if _, err := a.Alloc(); err != nil {
					return nil
				}
				counts[w]++
			}
		})
	}
	require.NoError(t, g.Wait())

	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, n, total)
	assert.Equal(t, uint64(n), a.Stats().Bumped)
}

func BenchmarkLockFree_AllocFree(b *testing.B) {
	a := newLockFree(b, 1024)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p, err := a.Alloc()
			if err == nil {
				_ = a.Free(p)
			}
		}
	})
}
