package freelist

import (
	"errors"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrDoubleFree is returned by Push when the double-free detector finds the slot
// already on the stack.
var ErrDoubleFree = errors.New("freelist: slot already free")

const (
	stateLive uint32 = iota
	stateFree
)

// Stack is a lock-free LIFO of slot indices.
type Stack struct {
	head  atomic.Uint64
	links []atomic.Uint32 // index+1 of the next free slot, 0 terminates
	state []atomic.Uint32 // nil unless the double-free detector is enabled
	size  atomic.Int64    // advisory
}

// NewStack creates an empty stack for n slots.
func NewStack(n uint32, detectDoubleFree bool) *Stack {
	s := &Stack{
		links: make([]atomic.Uint32, n),
	}
	if detectDoubleFree {
		s.state = make([]atomic.Uint32, n)
	}
	return s
}

func pack(tag, ref uint32) uint64 {
	return uint64(tag)<<32 | uint64(ref)
}

func unpack(v uint64) (tag, ref uint32) {
	return uint32(v >> 32), uint32(v)
}

// Push returns slot i to the stack. The caller must own i.
func (s *Stack) Push(i uint32) error {
	if s.state != nil && !s.state[i].CompareAndSwap(stateLive, stateFree) {
		return ErrDoubleFree
	}
	for {
		old := s.head.Load()
		tag, ref := unpack(old)
		s.links[i].Store(ref)
		if s.head.CompareAndSwap(old, pack(tag+1, i+1)) {
			s.size.Add(1)
			return nil
		}
	}
}

// Pop removes the most recently pushed slot. It returns false when the stack is empty.
func (s *Stack) Pop() (uint32, bool) {
	for {
		old := s.head.Load()
		tag, ref := unpack(old)
		if ref == 0 {
			return 0, false
		}
		next := s.links[ref-1].Load()
		if s.head.CompareAndSwap(old, pack(tag+1, next)) {
			i := ref - 1
			if s.state != nil {
				s.state[i].Store(stateLive)
			}
			s.size.Add(-1)
			return i, true
		}
	}
}

// Len returns the number of slots on the stack. Under concurrent use the value
// is only a snapshot.
func (s *Stack) Len() int {
	return int(s.size.Load())
}

// Detecting reports whether the double-free detector is enabled.
func (s *Stack) Detecting() bool {
	return s.state != nil
}

// IsFree reports whether slot i is currently on the stack. It always returns
// false when the detector is disabled.
func (s *Stack) IsFree(i uint32) bool {
	return s.state != nil && s.state[i].Load() == stateFree
}

// LiveSet returns the slots below bumped that are not on the stack, or nil when
// the detector is disabled.
func (s *Stack) LiveSet(bumped uint32) *roaring.Bitmap {
	if s.state == nil {
		return nil
	}
	live := roaring.New()
	for i := uint32(0); i < bumped; i++ {
		if s.state[i].Load() == stateLive {
			live.Add(i)
		}
	}
	return live
}
