// Package slab provides fixed-region slab allocators.
//
// Three allocators share one contract: Alloc hands out a slot or reports
// ErrExhausted, Free returns a slot. None of them grows its region.
//
//   - Locked[T]: a mutex guards a bump cursor and an explicit free stack. The
//     baseline that the lock-free variants are measured against.
//   - LockFree[T]: a wait-free atomic bump cursor for virgin slots plus a
//     Treiber stack for recycled ones.
//   - Dynamic: LockFree generalized to an element size chosen at runtime,
//     rounded up to a multiple of 8 bytes, with an optional double-free detector.
//
// # Concurrency Model
//
// The allocators are passive; they start no goroutines. Locked may block briefly
// on its mutex. LockFree and Dynamic never block but may retry a failed
// compare-and-swap under contention (lock-free, not wait-free). The free stack is
// LIFO; allocation order across goroutines carries no meaning.
//
// # Ownership
//
// Scoped wraps any Allocator so that every allocation comes back as a Handle
// whose Release returns the slot to the allocator that served it, exactly once:
//
//	s := slab.NewScoped[[]byte](d)
//	h, err := s.Alloc()
//	if err != nil { ... }
//	defer h.Release()
//
// # Misuse
//
// Freeing an address outside the region, or one not on a slot boundary, returns
// ErrForeignAddress. Freeing a slot twice returns a *DoubleFreeError when the
// detector is enabled; with it disabled the free chain is silently corrupted.
// Using a slot after freeing it is not detected.
package slab
