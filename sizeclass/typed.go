package sizeclass

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/slabkit/internal/mem"
	"github.com/hupe1980/slabkit/region"
	"github.com/hupe1980/slabkit/slab"
)

// Destroyer is implemented by types that need cleanup before their slot is reused.
type Destroyer interface {
	Destroy()
}

// Create allocates a T from the smallest fitting class, zeroes it, runs init on
// it and returns a handle bound to the serving bucket. Releasing the handle
// after a.Close returns ErrClosed without touching the object.
//
// T must not contain Go pointers: region memory is not scanned by the garbage
// collector.
func Create[T any](a *Allocator, init func(*T)) (*slab.Handle[*T], error) {
	var zero T
	if !region.PointerFree[T]() {
		return nil, fmt.Errorf("%w: %T", ErrPointerType, zero)
	}

	buf, d, err := a.Alloc(sizeFor[T]())
	if err != nil {
		return nil, err
	}
	if !mem.IsAligned(buf, int(unsafe.Alignof(zero))) {
		_ = a.freeIn(d, buf)
		return nil, fmt.Errorf("%w: %T", ErrMisaligned, zero)
	}

	p := (*T)(unsafe.Pointer(&buf[0])) //nolint:gosec // in-place construction
	*p = zero
	if init != nil {
		init(p)
	}

	return slab.NewHandle(p, func(p *T) error {
		if a.Closed() {
			return ErrClosed
		}
		destroy(p)
		return a.freeIn(d, payload(p, d))
	}), nil
}

// Release releases h. It is equivalent to h.Release().
func Release[T any](h *slab.Handle[*T]) error {
	return h.Release()
}

// Dealloc destroys *p and returns its slot to the bucket chosen by the size of
// T. It is only correct if the table has not changed since p was allocated;
// prefer the handle returned by Create.
func Dealloc[T any](a *Allocator, p *T) error {
	if p == nil {
		return nil
	}
	if a.Closed() {
		return ErrClosed
	}
	d, ok := a.Lookup(sizeFor[T]())
	if !ok {
		return fmt.Errorf("%w: %d bytes", ErrNoSizeClass, sizeFor[T]())
	}
	buf := payload(p, d)
	if !d.Owns(buf) {
		return slab.ErrForeignAddress
	}
	destroy(p)
	return a.freeIn(d, buf)
}

func sizeFor[T any]() int {
	var zero T
	return max(int(unsafe.Sizeof(zero)), 1)
}

func payload[T any](p *T, d *slab.Dynamic) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), d.ElemSize()) //nolint:gosec // slot bytes
}

func destroy[T any](p *T) {
	if v, ok := any(p).(Destroyer); ok {
		v.Destroy()
	}
}
