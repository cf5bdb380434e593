package process

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessInfo contains basic information about a process
type ProcessInfo struct {
	PID     ProcessID // Process ID
	PPID    ProcessID // Parent Process ID
	Name    string    // Image name as reported by the OS
	Exe     string    // Path to the executable
	Cmdline []string  // Command line arguments
	Threads int       // Number of threads
}
