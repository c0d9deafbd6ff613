package mmap

import (
	"fmt"
	"os"
	"unsafe"
)

// Span is a window [Offset, Offset+Len) of a Mapping. It does not own the
// memory and becomes unusable once the mapping is closed.
type Span struct {
	m   *Mapping
	off int
	n   int
}

// Span returns the window of n bytes at off.
func (m *Mapping) Span(off, n int) (Span, error) {
	if m.closed.Load() {
		return Span{}, ErrClosed
	}
	if off < 0 || n < 0 || off > m.size-n {
		return Span{}, fmt.Errorf("%w: [%d, %d) of %d bytes", ErrOutOfBounds, off, off+n, m.size)
	}
	return Span{m: m, off: off, n: n}, nil
}

// SpanOf returns the window b occupies. b must be a subslice of Bytes.
func (m *Mapping) SpanOf(b []byte) (Span, error) {
	if m.closed.Load() {
		return Span{}, ErrClosed
	}
	if len(b) == 0 || m.size == 0 {
		return Span{}, fmt.Errorf("%w: empty slice", ErrOutOfBounds)
	}
	base := uintptr(unsafe.Pointer(&m.data[0])) //nolint:gosec // offset within the mapping
	addr := uintptr(unsafe.Pointer(&b[0]))      //nolint:gosec // offset within the mapping
	if addr < base || addr-base > uintptr(m.size) {
		return Span{}, fmt.Errorf("%w: slice outside the mapping", ErrOutOfBounds)
	}
	return m.Span(int(addr-base), len(b)) //nolint:gosec // bounded by m.size
}

// Offset returns the start of the span within the mapping.
func (s Span) Offset() int { return s.off }

// Len returns the span length in bytes.
func (s Span) Len() int { return s.n }

// Bytes returns the span's memory, or nil once the mapping is closed.
func (s Span) Bytes() []byte {
	if s.m == nil || s.m.closed.Load() {
		return nil
	}
	return s.m.data[s.off : s.off+s.n : s.off+s.n]
}

// Advise passes an access pattern hint for the span to the kernel.
func (s Span) Advise(pattern AccessPattern) error {
	if s.m == nil || s.m.closed.Load() {
		return ErrClosed
	}
	return osAdvise(s.m.data[s.off:s.off+s.n], pattern)
}

// Reclaim hands the whole pages inside the span back to the kernel and returns
// how many bytes that covers. The pages read as zero on their next access.
// Partial pages at either end are left alone since they may be shared with a
// neighbouring span.
func (s Span) Reclaim() (int, error) {
	if s.m == nil || s.m.closed.Load() {
		return 0, ErrClosed
	}
	page := os.Getpagesize()
	lo := (s.off + page - 1) / page * page
	hi := (s.off + s.n) / page * page
	if hi <= lo {
		return 0, nil
	}
	if err := osAdvise(s.m.data[lo:hi], AccessDontNeed); err != nil {
		return 0, err
	}
	return hi - lo, nil
}
