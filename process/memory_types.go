package process

import (
	"fmt"
)

// AddressSpaceLimit is the first address past the 32-bit target address space.
const AddressSpaceLimit = ProcessMemoryAddress(1) << 32

// PointerSize is the width of a pointer inside the target.
const PointerSize = ProcessMemorySize(4)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// Offset returns the address displaced by off bytes.
func (pma ProcessMemoryAddress) Offset(off uint32) ProcessMemoryAddress {
	return pma + ProcessMemoryAddress(off)
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// CheckRange rejects the null page, empty reads and reads that wrap or cross
// the end of the 32-bit address space.
func CheckRange(addr ProcessMemoryAddress, size ProcessMemorySize) error {
	if addr == 0 {
		return ErrInvalidPointer
	}
	if size == 0 {
		return fmt.Errorf("%w: zero length read at %s", ErrAddressOutOfRange, addr.ToString())
	}
	end := addr + ProcessMemoryAddress(size)
	if end < addr || end > AddressSpaceLimit {
		return fmt.Errorf("%w: %s+%d", ErrAddressOutOfRange, addr.ToString(), size)
	}
	return nil
}
