// Package freelist provides the lock-free slot bookkeeping shared by the slab
// allocators: a Treiber stack of recycled slot indices and a wait-free bump cursor
// over never-used slots.
//
// # Layout
//
// Slots are identified by a uint32 index into the allocator's region. The stack
// never writes into slot memory: each slot's forward link lives in a side array
// owned by the Stack, and the optional double-free detector keeps one state word
// per slot next to it.
//
// # ABA
//
// The stack head packs a 32-bit modification tag with index+1 (0 means empty)
// into a single uint64, so a pop that raced with a pop-push of the same slot
// fails its compare-and-swap instead of installing a stale link.
//
// # Memory Ordering
//
// sync/atomic operations are sequentially consistent. A successful pop therefore
// observes every write that preceded the matching push, which is stronger than
// a release-only pop.
package freelist
