package slab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoped_ReleaseReturnsSlot(t *testing.T) {
	d := newDynamic(t, 1, 16)
	s := NewScoped[[]byte](d)

	h, err := s.Alloc()
	require.NoError(t, err)
	first := addr(h.Value())

	_, err = s.Alloc()
	assert.ErrorIs(t, err, ErrExhausted)

	require.NoError(t, h.Release())
	assert.True(t, h.Released())
	assert.Nil(t, h.Value())

	h2, err := s.Alloc()
	require.NoError(t, err)
	assert.Equal(t, first, addr(h2.Value()))
	require.NoError(t, s.Free(h2))
}

func TestScoped_ReleaseExactlyOnce(t *testing.T) {
	d := newDynamic(t, 2, 16)
	s := NewScoped[[]byte](d)

	h, err := s.Alloc()
	require.NoError(t, err)
	require.NoError(t, h.Release())
	assert.ErrorIs(t, h.Release(), ErrReleased)
	assert.ErrorIs(t, s.Free(h), ErrReleased)

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Frees)
	assert.Equal(t, uint64(1), stats.FreeSlots)
}

func TestScoped_DeferRelease(t *testing.T) {
	a := newLockFree(t, 1)
	s := NewScoped[*elem16](a)

	func() {
		h, err := s.Alloc()
		require.NoError(t, err)
		defer h.Release()
		h.Value().A = 42
	}()

	p, err := a.Alloc()
	require.NoError(t, err, "slot released at end of scope")
	assert.Equal(t, elem16{}, *p)
}

func TestScoped_WrapsLocked(t *testing.T) {
	l := newLocked(t, 2)
	s := NewScoped[*elem16](l)
	assert.Same(t, l, s.Unwrap())

	h, err := s.Alloc()
	require.NoError(t, err)
	require.NoError(t, h.Release())
	assert.Equal(t, uint64(1), l.Stats().Frees)
}

func TestHandle_Nil(t *testing.T) {
	var h *Handle[[]byte]
	assert.NoError(t, h.Release())
	assert.Nil(t, h.Value())
	assert.False(t, h.Released())
}

func TestHandle_DeleterError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	h := NewHandle(7, func(v int) error {
		calls++
		assert.Equal(t, 7, v)
		return boom
	})

	assert.Equal(t, 7, h.Value())
	assert.ErrorIs(t, h.Release(), boom)
	assert.ErrorIs(t, h.Release(), ErrReleased)
	assert.Equal(t, 1, calls)
}

func TestHandle_NoDeleter(t *testing.T) {
	h := NewHandle[int](1, nil)
	assert.NoError(t, h.Release())
	assert.True(t, h.Released())
}
