package slabkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/slabkit/internal/mmap"
	"github.com/hupe1980/slabkit/region"
	"github.com/hupe1980/slabkit/sizeclass"
	"github.com/hupe1980/slabkit/snapshot"
)

// Pool is a size-class allocator over anonymous mapped memory.
//
// Alloc and Free are safe for concurrent use. Buffers handed out by a pool
// must not be touched after Close.
type Pool struct {
	mu     sync.RWMutex // Close excludes in-flight operations
	closed bool

	cfg      sizeclass.Config
	mapping  *mmap.Mapping
	alloc    *sizeclass.Allocator
	spans    map[int]mmap.Span // keyed by class
	reserved int64

	opts    options
	logger  *Logger
	metrics MetricsCollector
}

// Open maps cfg.RegionSize() bytes and builds a size-class allocator over them.
// With a resource controller, the bytes are reserved from its memory budget
// first; Open blocks until they are available or ctx is done.
func Open(ctx context.Context, cfg sizeclass.Config, optFns ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)
	logger := o.logger
	if o.name != "" {
		logger = logger.WithPool(o.name)
	}

	size := cfg.RegionSize()
	if !o.resources.TryAcquireMemory(int64(size)) {
		logger.InfoContext(ctx, "waiting for memory budget",
			"bytes", size,
			"reserved", o.resources.MemoryUsage(),
		)
		if err := o.resources.AcquireMemory(ctx, int64(size)); err != nil {
			return nil, fmt.Errorf("slabkit: reserve %d bytes: %w", size, err)
		}
	}

	m, err := mmap.MapAnon(size)
	if err != nil {
		o.resources.ReleaseMemory(int64(size))
		return nil, err
	}
	if o.advice != AccessDefault {
		if err := m.Advise(o.advice); err != nil {
			logger.WarnContext(ctx, "madvise failed", "error", err)
		}
	}

	a, err := sizeclass.New(region.New(m.Bytes()), cfg,
		sizeclass.WithLogger(logger.Logger),
		sizeclass.WithSlabOptions(o.slabOpts...),
	)
	var spans map[int]mmap.Span
	if err == nil {
		spans, err = bucketSpans(m, a)
	}
	if err != nil {
		_ = m.Close()
		o.resources.ReleaseMemory(int64(size))
		return nil, err
	}

	logger.LogRegion(ctx, size, len(cfg.Classes), cfg.Capacity)

	return &Pool{
		cfg:      cfg,
		mapping:  m,
		alloc:    a,
		spans:    spans,
		reserved: int64(size),
		opts:     o,
		logger:   logger,
		metrics:  o.metricsCollector,
	}, nil
}

// Alloc returns a buffer of at least size bytes from the smallest fitting class.
// The buffer length is the class size.
func (p *Pool) Alloc(size int) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	buf, d, err := p.alloc.Alloc(size)
	class := 0
	if d != nil {
		class = d.ElemSize()
	} else if bucket, ok := p.alloc.Lookup(size); ok {
		class = bucket.ElemSize()
	}

	if errors.Is(err, ErrExhausted) {
		p.metrics.RecordExhausted(class)
		p.logger.LogExhausted(context.Background(), size, class)
	}
	p.metrics.RecordAlloc(class, time.Since(start), err)
	p.logger.LogAlloc(context.Background(), size, class, err)

	return buf, err
}

// Free returns b to the class it was allocated from. Freeing an empty slice
// is a no-op.
func (p *Pool) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	class := 0
	if d, ok := p.alloc.Owner(b); ok {
		class = d.ElemSize()
	}
	err := p.alloc.Free(b)

	p.metrics.RecordFree(class, err)
	p.logger.LogFree(context.Background(), class, err)
	return err
}

func bucketSpans(m *mmap.Mapping, a *sizeclass.Allocator) (map[int]mmap.Span, error) {
	spans := make(map[int]mmap.Span)
	for _, d := range a.Buckets() {
		s, err := m.SpanOf(d.Bytes())
		if err != nil {
			return nil, fmt.Errorf("slabkit: class %d: %w", d.ElemSize(), err)
		}
		spans[d.ElemSize()] = s
	}
	return spans, nil
}

// Allocator returns the underlying size-class allocator, for typed
// allocation with sizeclass.Create. Close retires it together with the pool:
// afterwards its operations fail with sizeclass.ErrClosed.
func (p *Pool) Allocator() *sizeclass.Allocator {
	return p.alloc
}

// Config returns the configuration the pool was opened with.
func (p *Pool) Config() sizeclass.Config {
	return p.cfg
}

// Stats returns the allocator counters.
func (p *Pool) Stats() sizeclass.Stats {
	return p.alloc.Stats()
}

// Leaks returns the live slots of every class that has any, keyed by class.
// Classes without the double-free detector are not tracked.
func (p *Pool) Leaks() map[int]*roaring.Bitmap {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[int]*roaring.Bitmap)
	if p.closed {
		return out
	}
	for _, d := range p.alloc.Buckets() {
		if live := d.Live(); live != nil && !live.IsEmpty() {
			out[d.ElemSize()] = live
		}
	}
	return out
}

// Snapshot writes an image of the region, its layout and counters to w.
// Output is paced by the resource controller's IO limit, if any.
func (p *Pool) Snapshot(ctx context.Context, w io.Writer, c snapshot.Codec) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	cw := &countingWriter{w: p.opts.resources.Writer(ctx, w)}
	data := p.mapping.Bytes()
	err := snapshot.Write(cw, snapshot.Describe(p.alloc, data), data, c)
	p.logger.LogSnapshot(ctx, c.String(), cw.n, err)
	return err
}

// SnapshotFile writes a snapshot to path, replacing any existing file only
// once the image is complete. Output is paced like Snapshot's.
func (p *Pool) SnapshotFile(ctx context.Context, path string, c snapshot.Codec) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	data := p.mapping.Bytes()
	n, err := snapshot.WriteFile(nil, path, snapshot.Describe(p.alloc, data), data, c,
		func(w io.Writer) io.Writer { return p.opts.resources.Writer(ctx, w) },
	)
	p.logger.LogSnapshot(ctx, c.String(), n, err)
	return err
}

// Reclaim returns the pages of every class without live slots to the kernel
// and reports how many bytes that covered. Their slots stay valid and read as
// zero when handed out again. Reclaim excludes the pool's own operations; it
// must not race with allocations made directly through Allocator.
func (p *Pool) Reclaim(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}

	total := 0
	for _, cs := range p.alloc.Stats().Classes {
		span, ok := p.spans[cs.Class]
		if !ok || cs.InUse != 0 || cs.Bumped == 0 {
			continue
		}
		n, err := span.Reclaim()
		if err != nil {
			return total, fmt.Errorf("slabkit: reclaim class %d: %w", cs.Class, err)
		}
		total += n
	}
	p.logger.DebugContext(ctx, "pages reclaimed", "bytes", total)
	return total, nil
}

// Close retires the allocator, unmaps the region and returns its bytes to the
// memory budget. It is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var live uint64
	for _, c := range p.alloc.Stats().Classes {
		live += c.InUse
	}

	p.alloc.Close()
	err := p.mapping.Close()
	p.opts.resources.ReleaseMemory(p.reserved)
	p.logger.LogClose(context.Background(), live, err)
	return err
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += n
	return n, err
}
