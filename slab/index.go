package slab

import "unsafe"

// slotOf maps p back to its index in slots. It fails for addresses outside
// slots or not on an element boundary.
func slotOf[T any](slots []T, p *T) (uint32, bool) {
	if len(slots) == 0 || p == nil {
		return 0, false
	}
	size := unsafe.Sizeof(slots[0])
	base := uintptr(unsafe.Pointer(&slots[0])) //nolint:gosec // address arithmetic on region memory
	addr := uintptr(unsafe.Pointer(p))         //nolint:gosec // address arithmetic on region memory
	if addr < base {
		return 0, false
	}
	off := addr - base
	if off%size != 0 || off/size >= uintptr(len(slots)) {
		return 0, false
	}
	return uint32(off / size), true
}
