package slab

import (
	"fmt"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/slabkit/internal/conv"
	"github.com/hupe1980/slabkit/internal/freelist"
	"github.com/hupe1980/slabkit/region"
)

// SizeAlign is the granularity element sizes are rounded up to.
const SizeAlign = 8

// metaBytesPerSlot is the side metadata kept per slot: a 4-byte link and a
// 4-byte detector state.
const metaBytesPerSlot = 8

// AlignSize rounds size up to the next multiple of SizeAlign.
func AlignSize(size int) int {
	return (size + SizeAlign - 1) &^ (SizeAlign - 1)
}

// DataSize returns the region bytes needed for n elements of elemSize bytes,
// assuming the region starts on a SizeAlign boundary.
func DataSize(n, elemSize int) int {
	return n * AlignSize(elemSize)
}

// MetaDataSize returns the bookkeeping bytes an allocator of n slots keeps on
// the Go heap next to its region.
func MetaDataSize(n int) int {
	return n * metaBytesPerSlot
}

// Dynamic is a lock-free slab allocator whose element size is chosen at runtime.
//
// Each slot is AlignSize(elemSize) bytes of payload. Slot metadata (the free
// link and the double-free state) is stored next to the region, not inside it.
type Dynamic struct {
	buf        []byte
	base       uintptr
	elemSize   int
	cursor     *freelist.Cursor
	free       *freelist.Stack
	zeroOnFree bool
	stats      atomicStats
}

// NewDynamic creates a Dynamic allocator over r for elements of elemSize bytes.
// Leading bytes up to the first SizeAlign boundary are skipped.
func NewDynamic(r region.Region, elemSize int, opts ...Option) (*Dynamic, error) {
	if elemSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, elemSize)
	}
	o := applyOptions(opts)

	padded := AlignSize(elemSize)
	skip := min(r.AlignUp(SizeAlign), r.Len())
	buf := r.Bytes()[skip:]

	n := conv.ClampSlots(len(buf) / padded)
	if n == 0 {
		return nil, fmt.Errorf("%w: region of %d bytes holds no %d-byte element", ErrInvalidSize, r.Len(), padded)
	}
	buf = buf[: int(n)*padded : int(n)*padded]

	return &Dynamic{
		buf:        buf,
		base:       uintptr(unsafe.Pointer(&buf[0])), //nolint:gosec // slot address arithmetic
		elemSize:   padded,
		cursor:     freelist.NewCursor(n),
		free:       freelist.NewStack(n, o.doubleFreeCheck),
		zeroOnFree: o.zeroOnFree,
	}, nil
}

// Alloc returns the payload bytes of a free slot, or ErrExhausted.
// The contents of a recycled slot are whatever its previous owner left unless
// WithZeroOnFree is set.
func (d *Dynamic) Alloc() ([]byte, error) {
	i, ok := d.free.Pop()
	if !ok {
		i, ok = d.cursor.Next()
		if !ok {
			d.stats.failures.Add(1)
			return nil, ErrExhausted
		}
	}
	d.stats.allocs.Add(1)
	return d.slot(i), nil
}

// Free returns the slot whose payload starts at b[0]. Freeing an empty slice is a no-op.
func (d *Dynamic) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	i, ok := d.SlotOf(b)
	if !ok {
		return ErrForeignAddress
	}
	if d.zeroOnFree {
		if d.free.IsFree(i) {
			return &DoubleFreeError{Slot: i}
		}
		clear(d.slot(i))
	}
	if err := d.free.Push(i); err != nil {
		return &DoubleFreeError{Slot: i}
	}
	d.stats.frees.Add(1)
	return nil
}

// SlotOf maps a payload returned by Alloc back to its slot index.
func (d *Dynamic) SlotOf(b []byte) (uint32, bool) {
	if len(b) == 0 {
		return 0, false
	}
	addr := uintptr(unsafe.Pointer(&b[0])) //nolint:gosec // slot address arithmetic
	if addr < d.base {
		return 0, false
	}
	off := addr - d.base
	if off%uintptr(d.elemSize) != 0 {
		return 0, false
	}
	i, err := conv.IntToUint32(int(off / uintptr(d.elemSize))) //nolint:gosec // checked by IntToUint32
	if err != nil || i >= d.cursor.Bumped() {
		return 0, false
	}
	return i, true
}

// Owns reports whether b points into this allocator's region.
func (d *Dynamic) Owns(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	addr := uintptr(unsafe.Pointer(&b[0])) //nolint:gosec // slot address arithmetic
	return addr >= d.base && addr < d.base+uintptr(len(d.buf))
}

// Slot returns the payload of slot i regardless of its state.
func (d *Dynamic) Slot(i uint32) []byte {
	if int(i) >= d.Cap() {
		return nil
	}
	return d.slot(i)
}

func (d *Dynamic) slot(i uint32) []byte {
	off := int(i) * d.elemSize
	return d.buf[off : off+d.elemSize : off+d.elemSize]
}

// ElemSize returns the padded element size.
func (d *Dynamic) ElemSize() int {
	return d.elemSize
}

// Cap returns the number of slots.
func (d *Dynamic) Cap() int {
	return int(d.cursor.Limit())
}

// Bytes returns the slot area of the region.
func (d *Dynamic) Bytes() []byte {
	return d.buf
}

// Live returns the slots currently handed out, or nil without the double-free detector.
func (d *Dynamic) Live() *roaring.Bitmap {
	return d.free.LiveSet(d.cursor.Bumped())
}

// Stats returns a snapshot of the allocator counters.
func (d *Dynamic) Stats() Stats {
	return d.stats.snapshot(d.elemSize, uint64(d.Cap()), uint64(d.cursor.Bumped()), d.free.Len())
}
