package slab

import (
	"fmt"
	"sync"

	"github.com/hupe1980/slabkit/internal/conv"
	"github.com/hupe1980/slabkit/region"
)

// Locked is a fixed-size slab allocator serialized by a single mutex.
//
// Allocation pops the explicit free stack first and falls back to the bump
// cursor; both operations are O(1).
type Locked[T any] struct {
	mu     sync.Mutex
	slots  []T
	cursor uint32
	stack  []uint32 // recycled slot indices, stack[:pos] is live
	pos    int
	stats  atomicStats
}

// NewLocked creates a Locked allocator over r. The capacity is the number of
// whole T values that fit in r.
func NewLocked[T any](r region.Region) (*Locked[T], error) {
	slots, err := region.View[T](r)
	if err != nil {
		return nil, err
	}
	n := conv.ClampSlots(len(slots))
	if n == 0 {
		return nil, fmt.Errorf("%w: region of %d bytes holds no element", ErrInvalidSize, r.Len())
	}
	return &Locked[T]{
		slots: slots[:n:n],
		stack: make([]uint32, n),
	}, nil
}

// Alloc returns a zeroed slot, or ErrExhausted.
func (l *Locked[T]) Alloc() (*T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var i uint32
	switch {
	case l.pos > 0:
		l.pos--
		i = l.stack[l.pos]
	case int(l.cursor) < len(l.slots):
		i = l.cursor
		l.cursor++
	default:
		l.stats.failures.Add(1)
		return nil, ErrExhausted
	}

	var zero T
	l.slots[i] = zero
	l.stats.allocs.Add(1)
	return &l.slots[i], nil
}

// Free returns p to the allocator. Freeing nil is a no-op.
func (l *Locked[T]) Free(p *T) error {
	if p == nil {
		return nil
	}
	i, ok := slotOf(l.slots, p)
	if !ok {
		return ErrForeignAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if i >= l.cursor {
		return ErrForeignAddress
	}
	// More frees than slots can only come from a double free.
	if l.pos == len(l.stack) {
		return &DoubleFreeError{Slot: i}
	}
	l.stack[l.pos] = i
	l.pos++
	l.stats.frees.Add(1)
	return nil
}

// Cap returns the number of slots.
func (l *Locked[T]) Cap() int {
	return len(l.slots)
}

// Stats returns a snapshot of the allocator counters.
func (l *Locked[T]) Stats() Stats {
	l.mu.Lock()
	bumped, free := uint64(l.cursor), l.pos
	l.mu.Unlock()

	var zero T
	return l.stats.snapshot(sizeOf(zero), uint64(len(l.slots)), bumped, free)
}
