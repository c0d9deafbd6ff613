package slab

import "sync/atomic"

// Allocator is the contract shared by every allocator in this package:
// *Locked[T] and *LockFree[T] with P = *T, *Dynamic with P = []byte.
type Allocator[P any] interface {
	Alloc() (P, error)
	Free(P) error
}

var (
	_ Allocator[*int]   = (*Locked[int])(nil)
	_ Allocator[*int]   = (*LockFree[int])(nil)
	_ Allocator[[]byte] = (*Dynamic)(nil)
)

// noCopy makes go vet's copylocks check flag handles passed by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle is an exclusive-ownership reference to one allocation. Releasing it
// runs its deleter exactly once; handles are passed by pointer and never copied.
type Handle[P any] struct {
	noCopy   noCopy
	value    P
	release  func(P) error
	released atomic.Bool
}

// NewHandle binds v to release, the deleter that returns it to its owner.
func NewHandle[P any](v P, release func(P) error) *Handle[P] {
	return &Handle[P]{value: v, release: release}
}

// Value returns the owned allocation, or the zero value after Release.
func (h *Handle[P]) Value() P {
	if h == nil || h.released.Load() {
		var zero P
		return zero
	}
	return h.value
}

// Release returns the allocation to its owner. A second call returns
// ErrReleased without touching the allocator; a nil handle is a no-op.
func (h *Handle[P]) Release() error {
	if h == nil {
		return nil
	}
	if h.released.Swap(true) {
		return ErrReleased
	}
	v := h.value
	var zero P
	h.value = zero
	if h.release == nil {
		return nil
	}
	return h.release(v)
}

// Released reports whether Release has been called.
func (h *Handle[P]) Released() bool {
	return h != nil && h.released.Load()
}

// Scoped adapts an Allocator so that every allocation is returned as a Handle
// bound to that allocator instance.
type Scoped[P any] struct {
	alloc Allocator[P]
}

// NewScoped wraps a.
func NewScoped[P any](a Allocator[P]) *Scoped[P] {
	return &Scoped[P]{alloc: a}
}

// Alloc allocates from the wrapped allocator.
func (s *Scoped[P]) Alloc() (*Handle[P], error) {
	v, err := s.alloc.Alloc()
	if err != nil {
		return nil, err
	}
	return NewHandle(v, s.alloc.Free), nil
}

// Free releases h. It is equivalent to h.Release().
func (s *Scoped[P]) Free(h *Handle[P]) error {
	return h.Release()
}

// Unwrap returns the wrapped allocator.
func (s *Scoped[P]) Unwrap() Allocator[P] {
	return s.alloc
}
