// Package mmap provides anonymous memory mappings used as allocator backing regions.
//
// # Overview
//
// The allocators never reserve memory themselves; they are handed a contiguous
// [start, end) range. This package is the collaborator that obtains such ranges
// from the operating system, outside the Go garbage collector's control.
//
// # Usage
//
//	m, err := mmap.MapAnon(1 << 20)
//	if err != nil { ... }
//	defer m.Close()
//
//	buf := m.Bytes()
//
//	// A window onto part of the mapping, e.g. one size class
//	s, _ := m.Span(offset, size)
//	reclaimed, _ := s.Reclaim() // drop its whole pages
//
//	// Provide kernel hints for access patterns
//	m.Advise(mmap.AccessWillNeed)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE, madvise(2) for hints
//   - Windows: VirtualAlloc with MEM_RESERVE|MEM_COMMIT (advice and Reclaim
//     are no-ops, although Reclaim still reports the page bytes it covers)
//
// # Thread Safety
//
// Mapping and Span are safe for concurrent access. Close is idempotent and
// protected by an atomic flag, but callers must ensure no goroutine touches
// Bytes() after Close() returns.
package mmap
