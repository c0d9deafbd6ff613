// Package region describes the contiguous byte ranges that back every allocator.
//
// A Region is borrowed, never owned: whoever obtained the memory (an anonymous
// mapping, a heap buffer) keeps it alive for as long as any allocator built over
// it is in use. Allocators only ever address memory in [Start, End).
//
// Typed allocators see a region through View, which reinterprets the bytes as a
// []T. Because region memory may live outside the Go heap, and because the
// garbage collector never scans []byte contents, only pointer-free element types
// are accepted.
package region
