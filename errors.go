package slabkit

import (
	"errors"

	"github.com/hupe1980/slabkit/resource"
	"github.com/hupe1980/slabkit/sizeclass"
	"github.com/hupe1980/slabkit/slab"
)

var (
	// ErrExhausted is returned when a class has no free slot.
	ErrExhausted = slab.ErrExhausted
	// ErrDoubleFree is returned when a slot is released twice.
	ErrDoubleFree = slab.ErrDoubleFree
	// ErrForeignAddress is returned for buffers the pool did not hand out.
	ErrForeignAddress = slab.ErrForeignAddress
	// ErrNoSizeClass is returned when a request exceeds the largest class.
	ErrNoSizeClass = sizeclass.ErrNoSizeClass
	// ErrBudgetExceeded is returned when the region does not fit the memory budget.
	ErrBudgetExceeded = resource.ErrBudgetExceeded
	// ErrClosed is returned by operations on a closed pool.
	ErrClosed = errors.New("slabkit: pool is closed")
)

// DoubleFreeError reports the slot of a repeated free.
//
// The underlying error can be accessed via errors.Unwrap.
type DoubleFreeError = slab.DoubleFreeError
