package sizeclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []int{8, 16, 32, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384}, cfg.Classes)
	assert.Equal(t, DefaultCapacity, cfg.Capacity)
	assert.True(t, cfg.DoubleFreeCheck)
	assert.Equal(t, (2*16384-8)*DefaultCapacity, cfg.RegionSize())
}

func TestPowersOfTwo(t *testing.T) {
	assert.Equal(t, []int{8, 16, 32}, PowersOfTwo(8, 32))
	assert.Equal(t, []int{16, 32}, PowersOfTwo(9, 63))
	assert.Empty(t, PowersOfTwo(64, 32))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		err  error
	}{
		{"valid", Config{Classes: []int{8, 16}, Capacity: 4}, nil},
		{"unsorted is accepted", Config{Classes: []int{32, 8}, Capacity: 4}, nil},
		{"no classes", Config{Capacity: 4}, ErrInvalidConfig},
		{"zero capacity", Config{Classes: []int{8}}, ErrInvalidConfig},
		{"non-positive class", Config{Classes: []int{8, 0}, Capacity: 1}, ErrInvalidConfig},
		{"duplicate", Config{Classes: []int{8, 8}, Capacity: 1}, ErrDuplicateClass},
		{"duplicate after rounding", Config{Classes: []int{12, 16}, Capacity: 1}, ErrDuplicateClass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_RegionSize(t *testing.T) {
	cfg := Config{Classes: []int{8, 12, 32}, Capacity: 3}
	assert.Equal(t, 3*8+3*16+3*32, cfg.RegionSize())
}
