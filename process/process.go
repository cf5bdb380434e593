// Package process provides interfaces and types for reading a foreign process
package process

import "errors"

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrAddressOutOfRange is returned for reads that do not fit the 32-bit target address space.
	ErrAddressOutOfRange = errors.New("address out of range")

	ErrInvalidPointer = errors.New("invalid pointer read")
)
