// Package process_finder enumerates running processes through gopsutil so
// the same lookup works on Windows and under Wine on Linux.
package process_finder

import (
	"fmt"
	"strings"

	"ra2ob/process"

	ps "github.com/shirou/gopsutil/v3/process"
)

// Finder implements process.ProcessFinder on top of gopsutil.
type Finder struct{}

// New creates a new Finder
func New() process.ProcessFinder {
	return &Finder{}
}

// FindProcessByPID finds a process by its PID
func (f *Finder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	exists, err := ps.PidExists(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("pid lookup %d: %w", pid, err)
	}
	if !exists {
		return nil, fmt.Errorf("process with PID %d does not exist", pid)
	}

	p, err := ps.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", pid, err)
	}

	info := describe(p)
	return &info, nil
}

// FindProcessByName finds processes whose image name matches name exactly,
// ignoring case. Wine truncates comm to 15 bytes, so argv[0] and the
// executable path are consulted as well.
func (f *Finder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	var result []process.ProcessInfo
	for _, p := range procs {
		comm, err := p.Name()
		if err != nil {
			continue
		}
		if !strings.EqualFold(comm, name) && !isTruncatedPrefix(comm, name) {
			continue
		}

		info := describe(p)
		if MatchesImage(info, name) {
			result = append(result, info)
		}
	}

	return result, nil
}

// FindAllProcesses returns information about all running processes
func (f *Finder) FindAllProcesses() ([]process.ProcessInfo, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	result := make([]process.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		result = append(result, describe(p))
	}
	return result, nil
}

// describe collects what gopsutil can tell about p. Individual failures
// leave the field empty; a process may exit while being inspected.
func describe(p *ps.Process) process.ProcessInfo {
	info := process.ProcessInfo{PID: process.ProcessID(p.Pid)}

	if name, err := p.Name(); err == nil {
		info.Name = name
	}
	if ppid, err := p.Ppid(); err == nil {
		info.PPID = process.ProcessID(ppid)
	}
	if exe, err := p.Exe(); err == nil {
		info.Exe = exe
	}
	if cmdline, err := p.CmdlineSlice(); err == nil {
		info.Cmdline = cmdline
	}
	if threads, err := p.NumThreads(); err == nil {
		info.Threads = int(threads)
	}

	return info
}

// MatchesImage reports whether info describes an instance of the image name.
func MatchesImage(info process.ProcessInfo, name string) bool {
	if strings.EqualFold(info.Name, name) {
		return true
	}
	if !isTruncatedPrefix(info.Name, name) {
		return false
	}
	if len(info.Cmdline) > 0 && strings.EqualFold(baseName(info.Cmdline[0]), name) {
		return true
	}
	return strings.EqualFold(baseName(info.Exe), name)
}

// isTruncatedPrefix matches the 15-byte comm the Linux kernel keeps.
func isTruncatedPrefix(comm, name string) bool {
	const commLen = 15
	return len(comm) == commLen && len(name) > commLen && strings.EqualFold(comm, name[:commLen])
}

// baseName strips both Windows and Unix directory separators.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}
