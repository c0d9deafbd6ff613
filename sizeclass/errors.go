package sizeclass

import "errors"

var (
	// ErrNoSizeClass is returned when a request exceeds every configured class.
	ErrNoSizeClass = errors.New("sizeclass: no size class fits request")
	// ErrDuplicateClass is returned when two buckets share a class.
	ErrDuplicateClass = errors.New("sizeclass: duplicate size class")
	// ErrPointerType is returned by Create for types that contain Go pointers.
	ErrPointerType = errors.New("sizeclass: type contains pointers")
	// ErrClosed is returned by operations on a closed Allocator.
	ErrClosed = errors.New("sizeclass: allocator is closed")
	// ErrMisaligned is returned when a slot does not satisfy a type's alignment.
	ErrMisaligned = errors.New("sizeclass: slot misaligned for type")
)
