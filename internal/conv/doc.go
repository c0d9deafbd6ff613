// Package conv provides checked integer conversions.
//
// Slot counts and offsets cross between int, uint32 and uint64 at every layer of
// the allocators. These helpers reject values that would wrap instead of silently
// truncating them.
//
// Conversions that are bounded by construction (for example a slot index that was
// produced by a cursor with a uint32 limit) use direct casts instead.
package conv
