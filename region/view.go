package region

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

var pointerFreeCache sync.Map // reflect.Type -> bool

// View reinterprets r as a slice of T holding as many whole elements as fit.
//
// T must be pointer-free and have a non-zero size, and r must start on an
// address aligned for T.
func View[T any](r Region) ([]T, error) {
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 || !PointerFree[T]() {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, zero)
	}
	if r.IsZero() {
		return []T{}, nil
	}
	if align := unsafe.Alignof(zero); r.Start()%align != 0 {
		return nil, fmt.Errorf("%w: start %#x is not %d-byte aligned for %T", ErrMisaligned, r.Start(), align, zero)
	}
	n := uintptr(r.Len()) / size
	if n == 0 {
		return []T{}, nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&r.buf[0])), n), nil //nolint:gosec // typed view over caller memory
}

// PointerFree reports whether values of T contain no Go pointers and can
// therefore live in memory the garbage collector does not scan.
func PointerFree[T any]() bool {
	t := reflect.TypeFor[T]()
	if v, ok := pointerFreeCache.Load(t); ok {
		return v.(bool)
	}
	free := !hasPointers(t)
	pointerFreeCache.Store(t, free)
	return free
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan, reflect.Func,
		reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
