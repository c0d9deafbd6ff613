package sizeclass

import (
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/slabkit/slab"
)

// ClassStats pairs a class with its bucket's counters.
type ClassStats struct {
	Class int
	slab.Stats
}

// Stats is a snapshot of the dispatcher's counters.
//
// Byte counters are advisory: they are updated next to, not atomically with,
// the bucket operations, and count whole class sizes rather than request sizes.
//   - CurrentBytes: class bytes currently handed out
//   - PeakBytes: highest CurrentBytes observed
//   - TotalBytes: class bytes ever handed out
type Stats struct {
	CurrentBytes uint64
	PeakBytes    uint64
	TotalBytes   uint64
	Allocs       uint64
	Frees        uint64
	Failures     uint64
	Classes      []ClassStats
}

func (s Stats) String() string {
	return fmt.Sprintf("SizeClass{classes: %d, current: %.2f KB, peak: %.2f KB, total: %.2f KB, allocs: %d, frees: %d, failures: %d}",
		len(s.Classes),
		float64(s.CurrentBytes)/1024,
		float64(s.PeakBytes)/1024,
		float64(s.TotalBytes)/1024,
		s.Allocs, s.Frees, s.Failures,
	)
}

type atomicStats struct {
	current  atomic.Int64
	peak     atomic.Int64
	total    atomic.Uint64
	allocs   atomic.Uint64
	frees    atomic.Uint64
	failures atomic.Uint64
}

func (a *atomicStats) recordAlloc(class int) {
	cur := a.current.Add(int64(class))
	a.total.Add(uint64(class))
	a.allocs.Add(1)
	for {
		peak := a.peak.Load()
		if cur <= peak || a.peak.CompareAndSwap(peak, cur) {
			return
		}
	}
}

func (a *atomicStats) recordFree(class int) {
	a.current.Add(-int64(class))
	a.frees.Add(1)
}

func nonNegative(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}
