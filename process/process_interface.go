package process

// MemoryReader is the single primitive every target exposes: a bounded
// read of size bytes at addr.
type MemoryReader interface {
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)
}

// Process is the interface that defines operations for interacting with a system process.
// It is read-only; there is no write path.
type Process interface {
	// Open opens a process with the given PID for memory operations
	Open(pid ProcessID) error

	// Close closes the process and releases resources
	Close() error

	// GetPID returns the process ID
	GetPID() ProcessID

	// ReadMemory reads memory from the process at the specified address
	MemoryReader
}
