package slab

import (
	"fmt"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/slabkit/internal/conv"
	"github.com/hupe1980/slabkit/internal/freelist"
	"github.com/hupe1980/slabkit/region"
)

// LockFree is a fixed-size slab allocator without locks.
//
// Virgin slots come from a wait-free atomic bump cursor; recycled slots from a
// Treiber stack updated by compare-and-swap.
type LockFree[T any] struct {
	slots  []T
	cursor *freelist.Cursor
	free   *freelist.Stack
	stats  atomicStats
}

// NewLockFree creates a LockFree allocator over r. Slots are zeroed on Alloc,
// so WithZeroOnFree has no effect here.
func NewLockFree[T any](r region.Region, opts ...Option) (*LockFree[T], error) {
	o := applyOptions(opts)

	slots, err := region.View[T](r)
	if err != nil {
		return nil, err
	}
	n := conv.ClampSlots(len(slots))
	if n == 0 {
		return nil, fmt.Errorf("%w: region of %d bytes holds no element", ErrInvalidSize, r.Len())
	}
	return &LockFree[T]{
		slots:  slots[:n:n],
		cursor: freelist.NewCursor(n),
		free:   freelist.NewStack(n, o.doubleFreeCheck),
	}, nil
}

// Alloc returns a zeroed slot, or ErrExhausted.
func (a *LockFree[T]) Alloc() (*T, error) {
	i, ok := a.free.Pop()
	if !ok {
		i, ok = a.cursor.Next()
		if !ok {
			a.stats.failures.Add(1)
			return nil, ErrExhausted
		}
	}

	var zero T
	a.slots[i] = zero
	a.stats.allocs.Add(1)
	return &a.slots[i], nil
}

// Free returns p to the allocator. Freeing nil is a no-op.
func (a *LockFree[T]) Free(p *T) error {
	if p == nil {
		return nil
	}
	i, ok := a.SlotOf(p)
	if !ok {
		return ErrForeignAddress
	}
	if err := a.free.Push(i); err != nil {
		return &DoubleFreeError{Slot: i}
	}
	a.stats.frees.Add(1)
	return nil
}

// SlotOf returns the index of the slot p points to.
func (a *LockFree[T]) SlotOf(p *T) (uint32, bool) {
	i, ok := slotOf(a.slots, p)
	if !ok || i >= a.cursor.Bumped() {
		return 0, false
	}
	return i, true
}

// Cap returns the number of slots.
func (a *LockFree[T]) Cap() int {
	return len(a.slots)
}

// Live returns the slots currently handed out, or nil without the double-free detector.
func (a *LockFree[T]) Live() *roaring.Bitmap {
	return a.free.LiveSet(a.cursor.Bumped())
}

// Stats returns a snapshot of the allocator counters.
func (a *LockFree[T]) Stats() Stats {
	var zero T
	return a.stats.snapshot(sizeOf(zero), uint64(len(a.slots)), uint64(a.cursor.Bumped()), a.free.Len())
}

func sizeOf[T any](v T) int {
	return int(unsafe.Sizeof(v))
}
