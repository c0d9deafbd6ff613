// Package sizeclass routes variable-size requests to a table of slab.Dynamic
// buckets, one per size class.
//
// A request of s bytes is served by the smallest class >= s; a request larger
// than every class fails with ErrNoSizeClass. Buckets never lend slots to one
// another, so an exhausted class fails even if a larger class has room.
//
// # Typed Allocation
//
// Create constructs a value of a pointer-free type in place and returns a
// handle whose deleter is bound to the bucket that served it:
//
//	h, err := sizeclass.Create(a, func(s *Session) { s.ID = id })
//	if err != nil { ... }
//	defer h.Release()
//
// Releasing the handle runs Destroy (when *T implements Destroyer) and returns
// the slot to that bucket. Dealloc is the handle-less path; it recomputes the
// bucket from the size of T and is only correct while the table is unchanged.
//
// # Configuration
//
// The table is built from an explicit Config, usually DefaultConfig (powers of
// two from 8 to 16384 bytes). Add inserts further buckets; it is safe to call
// concurrently with allocation because the table is replaced copy-on-write.
package sizeclass
