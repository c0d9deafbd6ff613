// Package slabkit provides fixed-region allocators for fixed-size objects.
//
// All allocators hand out slots from a contiguous memory region supplied by
// the caller. They never grow it and never return it to the operating system.
// A request that finds no free slot fails with ErrExhausted.
//
// # Allocators
//
// The slab package provides the building blocks:
//
//	slab.Locked[T]   mutex-protected bump cursor and LIFO free stack
//	slab.LockFree[T] tagged Treiber stack plus an atomic bump cursor
//	slab.Dynamic     lock-free, element size chosen at runtime
//	slab.Scoped[P]   handles that release their slot exactly once
//
// The sizeclass package routes variable-size requests to the smallest
// configured class that fits them.
//
// # Pools
//
// Pool bundles a size-class allocator with anonymous mapped memory, an
// optional resource budget, logging and metrics:
//
//	ctx := context.Background()
//	pool, _ := slabkit.Open(ctx, sizeclass.DefaultConfig())
//	defer pool.Close()
//
//	buf, _ := pool.Alloc(100) // served by the 128-byte class
//	_ = pool.Free(buf)
//
// Typed objects go through sizeclass.Create, which returns a handle bound to
// the serving class:
//
//	h, _ := sizeclass.Create(pool.Allocator(), func(r *Record) { r.ID = 1 })
//	defer h.Release()
//
// # Safety
//
// Region memory is not scanned by the garbage collector. Typed allocators
// reject element types that contain Go pointers.
//
// Close retires the pool's allocator before unmapping, so later calls through
// Allocator fail with sizeclass.ErrClosed. Buffers obtained earlier must not
// be touched after Close.
package slabkit
