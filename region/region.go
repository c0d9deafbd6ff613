package region

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/hupe1980/slabkit/internal/mem"
)

// Align is the alignment Split applies to the start of every sub-range.
const Align = 8

var (
	// ErrOutOfBounds is returned when a sub-range does not lie within the region.
	ErrOutOfBounds = errors.New("region: out of bounds")
	// ErrTooSmall is returned when the requested layout does not fit the region.
	ErrTooSmall = errors.New("region: too small")
	// ErrMisaligned is returned when the region start does not satisfy a type's alignment.
	ErrMisaligned = errors.New("region: misaligned")
	// ErrUnsupportedType is returned for element types that contain pointers or have zero size.
	ErrUnsupportedType = errors.New("region: unsupported element type")
)

// Region is a fixed contiguous byte range.
type Region struct {
	buf []byte
}

// New wraps buf as a region. The capacity beyond len(buf) is not part of the region.
func New(buf []byte) Region {
	return Region{buf: buf[:len(buf):len(buf)]}
}

// Alloc returns a heap-backed region of size bytes aligned to a cache line.
func Alloc(size int) Region {
	return New(mem.AllocAligned(size))
}

// Bytes returns the bytes of the region.
func (r Region) Bytes() []byte {
	return r.buf
}

// Len returns the size of the region in bytes.
func (r Region) Len() int {
	return len(r.buf)
}

// IsZero reports whether the region is empty.
func (r Region) IsZero() bool {
	return len(r.buf) == 0
}

// Start returns the address of the first byte, or 0 for an empty region.
func (r Region) Start() uintptr {
	if len(r.buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.buf[0])) //nolint:gosec // region bounds are addresses
}

// End returns the address one past the last byte.
func (r Region) End() uintptr {
	return r.Start() + uintptr(len(r.buf))
}

// Contains reports whether p lies in [Start, End).
func (r Region) Contains(p uintptr) bool {
	return len(r.buf) > 0 && p >= r.Start() && p < r.End()
}

// Offset returns the offset of p from Start if p lies within the region.
func (r Region) Offset(p uintptr) (int, bool) {
	if !r.Contains(p) {
		return 0, false
	}
	return int(p - r.Start()), true
}

// Sub returns the sub-range [offset, offset+size).
func (r Region) Sub(offset, size int) (Region, error) {
	if offset < 0 || size < 0 || offset > len(r.buf)-size {
		return Region{}, fmt.Errorf("%w: [%d, %d) of %d bytes", ErrOutOfBounds, offset, offset+size, len(r.buf))
	}
	return New(r.buf[offset : offset+size]), nil
}

// Split carves consecutive, non-overlapping sub-ranges of the given sizes.
// Every sub-range starts on an Align boundary; the padding is skipped.
func (r Region) Split(sizes ...int) ([]Region, error) {
	out := make([]Region, 0, len(sizes))
	start := r.Start()
	off := 0
	for _, size := range sizes {
		if size < 0 {
			return nil, fmt.Errorf("%w: negative size %d", ErrOutOfBounds, size)
		}
		off += padding(start+uintptr(off), Align)
		if off > len(r.buf)-size {
			return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTooSmall, size, off, len(r.buf))
		}
		out = append(out, New(r.buf[off:off+size]))
		off += size
	}
	return out, nil
}

// AlignUp returns the offset of the first Align boundary at or after the region start.
func (r Region) AlignUp(align int) int {
	return padding(r.Start(), align)
}

// SplitSize returns the number of bytes Split needs for sizes, assuming the
// region itself starts on an Align boundary.
func SplitSize(sizes ...int) int {
	total := 0
	for _, size := range sizes {
		total = int(alignUp(uintptr(total), Align)) + size
	}
	return total
}

func padding(addr uintptr, align int) int {
	return int(alignUp(addr, align) - addr)
}

func alignUp(v uintptr, align int) uintptr {
	mask := uintptr(align - 1)
	return (v + mask) &^ mask
}
