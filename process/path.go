package process

import (
	"fmt"
	"unsafe"
)

// ReadPath reads a value of type T at the end of a pointer path.
// It starts at base, adds the first offset, reads a 4-byte pointer, adds the next offset, reads a pointer, etc.
// The last offset is added to the final pointer, and then T is read from that address.
// If offsets is empty, it reads T from base.
func ReadPath[T any](proc MemoryReader, base ProcessMemoryAddress, offsets ...uint32) (T, error) {
	currentAddr := base

	for i := 0; i < len(offsets)-1; i++ {
		ptrAddr := currentAddr.Offset(offsets[i])

		ptrVal, err := Read[uint32](proc, ptrAddr)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("failed to read pointer at offset %d (addr 0x%x): %w", i, ptrAddr, err)
		}

		if ptrVal == 0 {
			var zero T
			return zero, fmt.Errorf("pointer at offset %d (addr 0x%x) is null: %w", i, ptrAddr, ErrInvalidPointer)
		}

		currentAddr = ProcessMemoryAddress(ptrVal)
	}

	var finalOffset uint32
	if len(offsets) > 0 {
		finalOffset = offsets[len(offsets)-1]
	}

	finalAddr := currentAddr.Offset(finalOffset)

	val, err := Read[T](proc, finalAddr)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to read final value at 0x%x: %w", finalAddr, err)
	}

	return val, nil
}

// Read reads a single fixed-size value of type T from memory. T must be a
// plain value type; the target is little-endian like the host.
func Read[T any](proc MemoryReader, addr ProcessMemoryAddress) (T, error) {
	var t T
	size := ProcessMemorySize(unsafe.Sizeof(t))
	if size == 0 {
		return t, nil
	}

	if err := CheckRange(addr, size); err != nil {
		return t, err
	}

	data, err := proc.ReadMemory(addr, size)
	if err != nil {
		return t, err
	}
	if len(data) < int(size) {
		return t, fmt.Errorf("short read at %s: %d of %d bytes", addr.ToString(), len(data), size)
	}

	copyTo(&t, data)
	return t, nil
}

// copyTo copies bytes to *T
func copyTo[T any](dst *T, src []byte) {
	size := int(unsafe.Sizeof(*dst))
	if len(src) < size {
		return
	}

	dstBytes := unsafe.Slice((*byte)(unsafe.Pointer(dst)), size)
	copy(dstBytes, src)
}
