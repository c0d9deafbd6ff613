package sizeclass

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/slabkit/region"
	"github.com/hupe1980/slabkit/slab"
)

// table is immutable once published.
type table struct {
	classes []int           // ascending, parallel to buckets
	buckets []*slab.Dynamic // ordered by class
	byAddr  []*slab.Dynamic // ordered by region start
	closed  bool
}

func (t *table) lookup(size int) (*slab.Dynamic, bool) {
	if t.closed || size < 0 {
		return nil, false
	}
	i := sort.SearchInts(t.classes, size)
	if i == len(t.classes) {
		return nil, false
	}
	return t.buckets[i], true
}

func (t *table) owner(b []byte) (*slab.Dynamic, bool) {
	if t.closed || len(b) == 0 {
		return nil, false
	}
	p := uintptr(unsafe.Pointer(&b[0])) //nolint:gosec // address routing
	i := sort.Search(len(t.byAddr), func(i int) bool { return start(t.byAddr[i]) > p })
	if i == 0 {
		return nil, false
	}
	d := t.byAddr[i-1]
	if !d.Owns(b) {
		return nil, false
	}
	return d, true
}

func (t *table) with(d *slab.Dynamic) (*table, error) {
	if t.closed {
		return nil, ErrClosed
	}
	class := d.ElemSize()
	i := sort.SearchInts(t.classes, class)
	if i < len(t.classes) && t.classes[i] == class {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateClass, class)
	}

	next := &table{
		classes: make([]int, 0, len(t.classes)+1),
		buckets: make([]*slab.Dynamic, 0, len(t.buckets)+1),
		byAddr:  make([]*slab.Dynamic, 0, len(t.byAddr)+1),
	}
	next.classes = append(append(append(next.classes, t.classes[:i]...), class), t.classes[i:]...)
	next.buckets = append(append(append(next.buckets, t.buckets[:i]...), d), t.buckets[i:]...)

	j := sort.Search(len(t.byAddr), func(j int) bool { return start(t.byAddr[j]) > start(d) })
	next.byAddr = append(append(append(next.byAddr, t.byAddr[:j]...), d), t.byAddr[j:]...)
	return next, nil
}

func start(d *slab.Dynamic) uintptr {
	return uintptr(unsafe.Pointer(&d.Bytes()[0])) //nolint:gosec // address routing
}

// Allocator dispatches requests to per-class slab.Dynamic buckets.
type Allocator struct {
	mu     sync.Mutex // serializes Add
	tbl    atomic.Pointer[table]
	stats  atomicStats
	opts   options
	logger *slog.Logger
}

// NewEmpty creates an Allocator without buckets. Add them with Add.
func NewEmpty(opts ...Option) *Allocator {
	o := applyOptions(opts)
	a := &Allocator{opts: o, logger: o.logger}
	a.tbl.Store(&table{})
	return a
}

// New carves r into one bucket per configured class.
func New(r region.Region, cfg Config, opts ...Option) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := NewEmpty(opts...)

	sizes, err := cfg.bucketSizes()
	if err != nil {
		return nil, err
	}
	parts, err := r.Split(sizes...)
	if err != nil {
		return nil, fmt.Errorf("sizeclass: region of %d bytes, need %d: %w", r.Len(), cfg.RegionSize(), err)
	}

	slabOpts := append([]slab.Option{slab.WithDoubleFreeCheck(cfg.DoubleFreeCheck)}, a.opts.slabOpts...)
	for i, class := range cfg.normalized() {
		d, err := slab.NewDynamic(parts[i], class, slabOpts...)
		if err != nil {
			return nil, fmt.Errorf("sizeclass: class %d: %w", class, err)
		}
		if err := a.Add(d); err != nil {
			return nil, err
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "size class table built",
		slog.Int("classes", len(sizes)),
		slog.Int("capacity", cfg.Capacity),
		slog.Int("region_bytes", r.Len()),
		slog.Bool("double_free_check", cfg.DoubleFreeCheck),
	)
	return a, nil
}

// Add inserts a bucket keyed by its element size.
func (a *Allocator) Add(d *slab.Dynamic) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.tbl.Load().with(d)
	if err != nil {
		return err
	}
	a.tbl.Store(next)
	return nil
}

// Close retires the table. Afterwards Alloc, Free, Create and handle
// releases fail with ErrClosed and Lookup, Owner and Buckets find nothing;
// Stats keeps reporting the final counters. Close must be called before the
// memory behind the buckets is released. It is idempotent.
func (a *Allocator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := a.tbl.Load()
	if t.closed {
		return
	}
	a.tbl.Store(&table{classes: t.classes, buckets: t.buckets, closed: true})
	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "size class table closed",
		slog.Int("classes", len(t.classes)),
	)
}

// Closed reports whether Close has been called.
func (a *Allocator) Closed() bool {
	return a.tbl.Load().closed
}

// Lookup returns the bucket of the smallest class >= size.
func (a *Allocator) Lookup(size int) (*slab.Dynamic, bool) {
	return a.tbl.Load().lookup(size)
}

// Owner returns the bucket whose region contains b.
func (a *Allocator) Owner(b []byte) (*slab.Dynamic, bool) {
	return a.tbl.Load().owner(b)
}

// Classes returns the configured classes in ascending order.
func (a *Allocator) Classes() []int {
	return append([]int(nil), a.tbl.Load().classes...)
}

// Alloc returns size bytes (rounded up to the serving class) and the bucket
// that served them.
func (a *Allocator) Alloc(size int) ([]byte, *slab.Dynamic, error) {
	t := a.tbl.Load()
	if t.closed {
		return nil, nil, ErrClosed
	}
	d, ok := t.lookup(size)
	if !ok {
		a.recordFailure()
		a.logger.Debug("no size class", "size", size)
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrNoSizeClass, size)
	}
	buf, err := d.Alloc()
	if err != nil {
		a.recordFailure()
		a.logger.Debug("size class exhausted", "size", size, "class", d.ElemSize())
		return nil, nil, fmt.Errorf("sizeclass: class %d: %w", d.ElemSize(), err)
	}
	if a.opts.stats {
		a.stats.recordAlloc(d.ElemSize())
	}
	return buf, d, nil
}

// Free returns b to the bucket whose region contains it.
func (a *Allocator) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	t := a.tbl.Load()
	if t.closed {
		return ErrClosed
	}
	d, ok := t.owner(b)
	if !ok {
		return slab.ErrForeignAddress
	}
	return a.freeIn(d, b)
}

func (a *Allocator) freeIn(d *slab.Dynamic, b []byte) error {
	if a.Closed() {
		return ErrClosed
	}
	if err := d.Free(b); err != nil {
		return err
	}
	if a.opts.stats {
		a.stats.recordFree(d.ElemSize())
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (a *Allocator) Stats() Stats {
	t := a.tbl.Load()
	classes := make([]ClassStats, len(t.buckets))
	for i, d := range t.buckets {
		classes[i] = ClassStats{Class: t.classes[i], Stats: d.Stats()}
	}
	return Stats{
		CurrentBytes: nonNegative(a.stats.current.Load()),
		PeakBytes:    nonNegative(a.stats.peak.Load()),
		TotalBytes:   a.stats.total.Load(),
		Allocs:       a.stats.allocs.Load(),
		Frees:        a.stats.frees.Load(),
		Failures:     a.stats.failures.Load(),
		Classes:      classes,
	}
}

// Buckets returns the buckets ordered by class, or nil once closed.
func (a *Allocator) Buckets() []*slab.Dynamic {
	t := a.tbl.Load()
	if t.closed {
		return nil
	}
	return append([]*slab.Dynamic(nil), t.buckets...)
}

func (a *Allocator) recordFailure() {
	if a.opts.stats {
		a.stats.failures.Add(1)
	}
}
