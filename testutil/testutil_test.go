package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNG_Deterministic(t *testing.T) {
	a, b := NewRNG(7), NewRNG(7)
	assert.Equal(t, a.Sizes(16, 1, 512), b.Sizes(16, 1, 512))

	first := a.Uint64()
	a.Reset()
	a.Sizes(16, 1, 512)
	assert.Equal(t, first, a.Uint64())
	assert.Equal(t, int64(7), a.Seed())
}

func TestRNG_SizeBounds(t *testing.T) {
	rng := NewRNG(1)
	for range 1000 {
		s := rng.Size(8, 16)
		assert.GreaterOrEqual(t, s, 8)
		assert.LessOrEqual(t, s, 16)
	}
}

func TestRNG_Fill(t *testing.T) {
	b := make([]byte, 64)
	NewRNG(3).Fill(b)
	assert.NotEqual(t, make([]byte, 64), b)
}

func TestRegions(t *testing.T) {
	r := Region(t, 256)
	assert.Zero(t, r.Start()%64)

	s := SkewedRegion(t, 100, 3)
	assert.Equal(t, 100, s.Len())
	assert.Equal(t, uintptr(3), s.Start()%8)
}

func TestRequireDisjoint(t *testing.T) {
	buf := make([]byte, 32)
	RequireDisjoint(t, [][]byte{buf[:8], buf[8:16], nil, buf[24:]})
}
