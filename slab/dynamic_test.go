package slab

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/slabkit/region"
)

func addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

func newDynamic(t testing.TB, n, elemSize int, opts ...Option) *Dynamic {
	t.Helper()
	d, err := NewDynamic(region.Alloc(DataSize(n, elemSize)), elemSize, opts...)
	require.NoError(t, err)
	require.Equal(t, n, d.Cap())
	return d
}

func TestAlignSize(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{1, 8}, {7, 8}, {8, 8}, {9, 16}, {12, 16}, {16, 16}, {17, 24}, {128, 128},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlignSize(tt.in), "AlignSize(%d)", tt.in)
	}
	assert.Equal(t, 48, DataSize(3, 16))
	assert.Equal(t, 48, DataSize(3, 12))
	assert.Equal(t, 24, MetaDataSize(3))
}

func TestDynamic_Scenario(t *testing.T) {
	d := newDynamic(t, 3, 16)

	a, err := d.Alloc()
	require.NoError(t, err)
	b, err := d.Alloc()
	require.NoError(t, err)
	c, err := d.Alloc()
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, addr(a), addr(b))
	assert.NotEqual(t, addr(b), addr(c))
	assert.NotEqual(t, addr(a), addr(c))

	_, err = d.Alloc()
	assert.ErrorIs(t, err, ErrExhausted)

	require.NoError(t, d.Free(b))
	e, err := d.Alloc()
	require.NoError(t, err)
	assert.Equal(t, addr(b), addr(e))
}

func TestDynamic_RoundsElementSize(t *testing.T) {
	d := newDynamic(t, 4, 12)
	assert.Equal(t, 16, d.ElemSize())

	p, err := d.Alloc()
	require.NoError(t, err)
	assert.Len(t, p, 16)
	assert.Equal(t, 16, cap(p), "payload cannot be appended into the next slot")

	q, err := d.Alloc()
	require.NoError(t, err)
	assert.Equal(t, uintptr(16), addr(q)-addr(p))
	assert.Zero(t, addr(p)%SizeAlign)
}

func TestDynamic_SkipsMisalignedPrefix(t *testing.T) {
	r := region.Alloc(64 + 3)
	sub, err := r.Sub(3, 64)
	require.NoError(t, err)

	d, err := NewDynamic(sub, 8)
	require.NoError(t, err)
	assert.Equal(t, 7, d.Cap(), "5 padding bytes cost one slot")

	p, err := d.Alloc()
	require.NoError(t, err)
	assert.Zero(t, addr(p)%SizeAlign)
}

func TestDynamic_InvalidConstruction(t *testing.T) {
	_, err := NewDynamic(region.Alloc(64), 0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewDynamic(region.Alloc(64), -8)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewDynamic(region.Alloc(8), 16)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewDynamic(region.Region{}, 8)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestDynamic_Free(t *testing.T) {
	t.Run("nil is a no-op", func(t *testing.T) {
		d := newDynamic(t, 2, 8)
		assert.NoError(t, d.Free(nil))
		assert.NoError(t, d.Free([]byte{}))
		assert.Equal(t, uint64(0), d.Stats().Frees)
	})

	t.Run("foreign address", func(t *testing.T) {
		d := newDynamic(t, 2, 16)
		p, err := d.Alloc()
		require.NoError(t, err)

		assert.ErrorIs(t, d.Free(make([]byte, 16)), ErrForeignAddress)
		assert.ErrorIs(t, d.Free(p[4:]), ErrForeignAddress, "interior pointer")
		assert.ErrorIs(t, d.Free(d.Slot(1)), ErrForeignAddress, "slot never handed out")
	})

	t.Run("double free detected", func(t *testing.T) {
		d := newDynamic(t, 2, 16)
		p, err := d.Alloc()
		require.NoError(t, err)
		require.NoError(t, d.Free(p))

		err = d.Free(p)
		var dfe *DoubleFreeError
		require.ErrorAs(t, err, &dfe)
		assert.ErrorIs(t, err, ErrDoubleFree)
		assert.Equal(t, uint32(0), dfe.Slot)
		assert.Equal(t, uint64(1), d.Stats().FreeSlots)
	})

	t.Run("double free with zero on free", func(t *testing.T) {
		d := newDynamic(t, 2, 16, WithZeroOnFree(true))
		p, err := d.Alloc()
		require.NoError(t, err)
		copy(p, "payload")
		require.NoError(t, d.Free(p))
		assert.Equal(t, make([]byte, 16), d.Slot(0))

		assert.ErrorIs(t, d.Free(p), ErrDoubleFree)
	})
}

func TestDynamic_OwnsAndSlotOf(t *testing.T) {
	d := newDynamic(t, 4, 32)
	_, _ = d.Alloc()
	p, err := d.Alloc()
	require.NoError(t, err)

	assert.True(t, d.Owns(p))
	assert.True(t, d.Owns(p[5:]))
	assert.False(t, d.Owns(make([]byte, 1)))
	assert.False(t, d.Owns(nil))

	i, ok := d.SlotOf(p)
	require.True(t, ok)
	assert.Equal(t, uint32(1), i)
	assert.Nil(t, d.Slot(4))
	assert.Len(t, d.Bytes(), 4*32)
}

func TestDynamic_LiveAndStats(t *testing.T) {
	d := newDynamic(t, 8, 24)
	var held [][]byte
	for i := 0; i < 5; i++ {
		p, err := d.Alloc()
		require.NoError(t, err)
		held = append(held, p)
	}
	require.NoError(t, d.Free(held[1]))
	require.NoError(t, d.Free(held[3]))

	assert.Equal(t, []uint32{0, 2, 4}, d.Live().ToArray())

	stats := d.Stats()
	assert.Equal(t, 24, stats.ElemSize)
	assert.Equal(t, uint64(8), stats.Capacity)
	assert.Equal(t, uint64(5), stats.Bumped)
	assert.Equal(t, uint64(2), stats.FreeSlots)
	assert.Equal(t, uint64(3), stats.InUse)
	assert.Contains(t, stats.String(), "in-use: 3")
}

func TestDynamic_Concurrent(t *testing.T) {
	const (
		slots   = 64
		workers = 8
		ops     = 5000
	)
	d := newDynamic(t, slots, 40)

	var g errgroup.Group
	for w := 1; w <= workers; w++ {
		token := byte(w)
		g.Go(func() error {
			for i := 0; i < ops; i++ {
				p, err := d.Alloc()
				if err != nil {
					continue
				}
				for j := range p {
					p[j] = token
				}
				for j := range p {
					if p[j] != token {
						t.Errorf("slot %#x aliased by worker %d", addr(p), p[j])
						break
					}
				}
				if err := d.Free(p); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	stats := d.Stats()
	assert.Equal(t, uint64(0), stats.InUse)
	assert.Equal(t, stats.Allocs, stats.Frees)
	assert.Equal(t, uint64(0), d.Live().GetCardinality())
}

func BenchmarkDynamic_AllocFree(b *testing.B) {
	for _, check := range []bool{true, false} {
		name := "check=off"
		if check {
			name = "check=on"
		}
		b.Run(name, func(b *testing.B) {
			d := newDynamic(b, 1024, 64, WithDoubleFreeCheck(check))
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					p, err := d.Alloc()
					if err == nil {
						_ = d.Free(p)
					}
				}
			})
		})
	}
}
