package slab

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is returned when the region has no free slot left.
	ErrExhausted = errors.New("slab: region exhausted")
	// ErrDoubleFree is returned when a slot is freed while already free.
	ErrDoubleFree = errors.New("slab: double free")
	// ErrForeignAddress is returned when freeing memory that was not handed out by the allocator.
	ErrForeignAddress = errors.New("slab: address not owned by allocator")
	// ErrInvalidSize is returned when an element size or region cannot hold a single slot.
	ErrInvalidSize = errors.New("slab: invalid element size")
	// ErrReleased is returned when releasing a handle a second time.
	ErrReleased = errors.New("slab: handle already released")
)

// DoubleFreeError reports the slot a double free was detected on.
//
// It unwraps to ErrDoubleFree.
type DoubleFreeError struct {
	Slot uint32
}

func (e *DoubleFreeError) Error() string {
	return fmt.Sprintf("slab: double free of slot %d", e.Slot)
}

func (e *DoubleFreeError) Unwrap() error { return ErrDoubleFree }
