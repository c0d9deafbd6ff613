package slab

import (
	"fmt"
	"sync/atomic"
)

// Stats is a snapshot of allocator counters.
//
// Note on semantics:
//   - Capacity: slots the region can hold
//   - Bumped: slots ever handed out by the bump cursor
//   - FreeSlots: slots currently on the free stack
//   - InUse: Bumped - FreeSlots
//   - Allocs/Frees/Failures: cumulative operation counts
//
// Under concurrent use the fields are read independently and may not add up.
type Stats struct {
	ElemSize  int
	Capacity  uint64
	Bumped    uint64
	FreeSlots uint64
	InUse     uint64
	Allocs    uint64
	Frees     uint64
	Failures  uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("Slab{elem: %d, cap: %d, in-use: %d, free: %d, allocs: %d, frees: %d, failures: %d}",
		s.ElemSize, s.Capacity, s.InUse, s.FreeSlots, s.Allocs, s.Frees, s.Failures)
}

type atomicStats struct {
	allocs   atomic.Uint64
	frees    atomic.Uint64
	failures atomic.Uint64
}

func (a *atomicStats) snapshot(elemSize int, capacity, bumped uint64, free int) Stats {
	freeSlots := uint64(max(free, 0))
	inUse := uint64(0)
	if bumped > freeSlots {
		inUse = bumped - freeSlots
	}
	return Stats{
		ElemSize:  elemSize,
		Capacity:  capacity,
		Bumped:    bumped,
		FreeSlots: freeSlots,
		InUse:     inUse,
		Allocs:    a.allocs.Load(),
		Frees:     a.frees.Load(),
		Failures:  a.failures.Load(),
	}
}
