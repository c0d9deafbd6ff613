package sizeclass

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/slabkit/internal/conv"
	"github.com/hupe1980/slabkit/region"
	"github.com/hupe1980/slabkit/slab"
)

const (
	// DefaultMinClass is the smallest class of DefaultConfig.
	DefaultMinClass = 8
	// DefaultMaxClass is the largest class of DefaultConfig.
	DefaultMaxClass = 16384
	// DefaultCapacity is the per-class slot count of DefaultConfig.
	DefaultCapacity = 10000
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("sizeclass: invalid config")

// Config describes the size-class table.
type Config struct {
	// Classes lists the element sizes, one bucket each. Sizes are rounded up
	// to a multiple of 8; two sizes that round to the same class are rejected.
	Classes []int

	// Capacity is the number of slots per class.
	Capacity int

	// DoubleFreeCheck enables the per-slot double-free detector in every bucket.
	DoubleFreeCheck bool
}

// DefaultConfig returns powers of two from 8 to 16384 bytes with 10000 slots
// per class and the double-free detector enabled.
func DefaultConfig() Config {
	return Config{
		Classes:         PowersOfTwo(DefaultMinClass, DefaultMaxClass),
		Capacity:        DefaultCapacity,
		DoubleFreeCheck: true,
	}
}

// PowersOfTwo returns the powers of two in [lo, hi].
func PowersOfTwo(lo, hi int) []int {
	var out []int
	for c := 1; c > 0 && c <= hi; c <<= 1 {
		if c >= lo {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks the config.
func (c Config) Validate() error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidConfig)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity %d", ErrInvalidConfig, c.Capacity)
	}
	for _, size := range c.Classes {
		if size <= 0 {
			return fmt.Errorf("%w: class size %d", ErrInvalidConfig, size)
		}
	}
	classes := c.normalized()
	for i := 1; i < len(classes); i++ {
		if classes[i] == classes[i-1] {
			return fmt.Errorf("%w: %w: class %d", ErrInvalidConfig, ErrDuplicateClass, classes[i])
		}
	}
	if _, err := c.regionSize(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// RegionSize returns the bytes of backing memory New needs for this config,
// assuming the region starts on an 8-byte boundary.
func (c Config) RegionSize() int {
	size, _ := c.regionSize()
	return size
}

func (c Config) regionSize() (int, error) {
	sizes, err := c.bucketSizes()
	if err != nil {
		return 0, err
	}
	return region.SplitSize(sizes...), nil
}

func (c Config) bucketSizes() ([]int, error) {
	classes := c.normalized()
	sizes := make([]int, len(classes))
	for i, class := range classes {
		n, err := conv.MulInt(c.Capacity, class)
		if err != nil {
			return nil, err
		}
		sizes[i] = n
	}
	return sizes, nil
}

// normalized returns the padded classes in ascending order.
func (c Config) normalized() []int {
	out := make([]int, len(c.Classes))
	for i, size := range c.Classes {
		out[i] = slab.AlignSize(size)
	}
	slices.Sort(out)
	return out
}
