// Package attach finds the game process, opens a read-only handle to it
// and loads the installation settings beside its executable.
package attach

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"ra2ob/install"
	"ra2ob/process"
	"ra2ob/process_blob"
	"ra2ob/process_finder"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// DefaultProcessName is the image the observer attaches to.
const DefaultProcessName = "gamemd-spawn.exe"

var ErrNotAttached = errors.New("not attached")

// Result is one successful attachment. It stays valid until Detach.
type Result struct {
	Info     process.ProcessInfo
	Process  process.Process
	Settings install.Settings
}

// Manager owns the process handle. Attach and Detach are safe to call
// repeatedly; at most one handle is open at a time.
type Manager struct {
	finder     process.ProcessFinder
	opener     process.ProcessOpener
	name       string
	installDir string
	record     *process_blob.ProcessDump
	recordPID  process.ProcessID // first recorded process; 0 until then

	mu      sync.Mutex
	current *Result
	log     *logger.Logger
}

// NewManager creates a manager for the image name. installDir overrides
// the directory derived from the executable path when not empty.
func NewManager(finder process.ProcessFinder, opener process.ProcessOpener, name, installDir string) *Manager {
	if name == "" {
		name = DefaultProcessName
	}
	return &Manager{
		finder:     finder,
		opener:     opener,
		name:       name,
		installDir: installDir,
		log:        logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.Red, "attach")),
	}
}

// Record copies what is read from the next attached process into dump.
// A dump holds one process: attachments to any other PID are not recorded.
func (m *Manager) Record(dump *process_blob.ProcessDump) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = dump
	m.recordPID = 0
}

// Attach returns the current attachment when one is alive, otherwise it
// finds and opens the target.
func (m *Manager) Attach() (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		if m.aliveLocked() {
			return m.current, nil
		}
		m.detachLocked()
	}

	procs, err := m.finder.FindProcessByName(m.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAttached, err)
	}

	var target *process.ProcessInfo
	for i := range procs {
		if procs[i].Threads > 0 {
			target = &procs[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s not running", ErrNotAttached, m.name)
	}

	proc, err := m.opener.OpenProcess(target.PID)
	if err != nil {
		return nil, fmt.Errorf("%w: open pid %d: %v", ErrNotAttached, target.PID, err)
	}

	dir := m.installDir
	if dir == "" {
		dir = install.DirFromExe(imagePath(*target, m.name))
	}
	settings := install.Load(dir)

	if m.record != nil {
		if m.recordPID == 0 {
			m.recordPID = target.PID
			m.record.PID = target.PID
			m.record.Name = target.Name
			m.record.Attributes = settings.Attributes()
		}
		if m.recordPID == target.PID {
			proc = process_blob.NewRecorder(proc, m.record)
		} else {
			m.log.Warn("not recording pid", target.PID, "recording holds pid", m.recordPID)
		}
	}

	m.current = &Result{Info: *target, Process: proc, Settings: settings}
	m.log.Infoln("attached to", m.name, "pid", target.PID, "version", settings.Version, "dir", dir)
	return m.current, nil
}

// Alive reports whether the attached process still exists with at least
// one thread.
func (m *Manager) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aliveLocked()
}

func (m *Manager) aliveLocked() bool {
	if m.current == nil {
		return false
	}
	info, err := m.finder.FindProcessByPID(m.current.Info.PID)
	if err != nil || info == nil {
		return false
	}
	// a reused pid belongs to some other image
	return info.Threads > 0 && process_finder.MatchesImage(*info, m.name)
}

// Detach closes the handle. It does nothing when not attached.
func (m *Manager) Detach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detachLocked()
}

func (m *Manager) detachLocked() error {
	if m.current == nil {
		return nil
	}
	cur := m.current
	m.current = nil
	m.log.Infoln("detached from pid", cur.Info.PID)
	return cur.Process.Close()
}

// imagePath picks the path that names the image itself. Under Wine the
// executable is the loader and argv[0] holds the game path.
func imagePath(info process.ProcessInfo, name string) string {
	if strings.EqualFold(baseName(info.Exe), name) {
		return info.Exe
	}
	if len(info.Cmdline) > 0 && strings.EqualFold(baseName(info.Cmdline[0]), name) {
		return info.Cmdline[0]
	}
	return info.Exe
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}
