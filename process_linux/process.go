//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"sync"
	"time"

	"ra2ob/process"
	"ra2ob/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// mapRefreshInterval bounds how often a miss against the cached memory map
// triggers a re-read of /proc/pid/maps. The target allocates continuously.
const mapRefreshInterval = 250 * time.Millisecond

// LinuxProcess implements the process.Process interface for Linux systems.
// Under Wine the 32-bit game is an ordinary process and can be read with
// process_vm_readv.
type LinuxProcess struct {
	pid         process.ProcessID
	log         *logger.Logger
	mm          []memory_map.MemoryMapItem
	mmRefreshed time.Time
	mu          sync.Mutex
}

// New creates a new LinuxProcess instance
func New() process.Process {
	return &LinuxProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
}

// NewWithPID creates a new LinuxProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (process.Process, error) {
	p := &LinuxProcess{}
	err := p.Open(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *LinuxProcess) Open(pid process.ProcessID) error {
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return fmt.Errorf("process with PID %d does not exist", pid)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pid = pid
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))

	if err := p.updateMemoryMapLocked(); err != nil {
		p.pid = 0
		return fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.log.Infoln("Process opened")

	return nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil
	}

	p.pid = 0
	p.mm = nil

	p.log.Infoln("Process closed")
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *LinuxProcess) updateMemoryMapLocked() error {
	if p.pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.ReadLinuxMemoryMap(int(p.pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	p.mm = mm
	p.mmRefreshed = time.Now()
	return nil
}

// isReadableLocked checks the cached map first and re-reads it at most once
// per mapRefreshInterval when the range is not covered.
func (p *LinuxProcess) isReadableLocked(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) bool {
	if p.covers(addr, size) {
		return true
	}

	if time.Since(p.mmRefreshed) < mapRefreshInterval {
		return false
	}

	if err := p.updateMemoryMapLocked(); err != nil {
		p.log.Debugln("memory map refresh failed:", err)
		return false
	}

	return p.covers(addr, size)
}

func (p *LinuxProcess) covers(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) bool {
	item := memory_map.Find(uint64(addr), p.mm)
	if item == nil || !item.IsReadable() {
		return false
	}
	return item.Contains(uint64(addr), uint(size))
}
