package common

import "unsafe"

// Coalesce returns the first of values that is not the zero value of T.
// Config fields left empty fall back to their defaults this way.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// SliceToBytes reinterprets a slice of plain values (float32, uint32, mgl32.Mat4) as bytes for
// buffer uploads. The result aliases data and must not outlive or modify it.
//
// Parameters:
//   - data: the source slice
//
// Returns:
//   - []byte: the byte view, or nil for an empty slice
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(unsafe.Sizeof(zero))*len(data))
}
