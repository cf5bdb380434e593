package attach

import (
	"fmt"
	"sync"

	"ra2ob/install"
	"ra2ob/process"
	"ra2ob/process_blob"
)

// Replay attaches to a recorded dump instead of a live process. The dump
// never exits, so Alive holds for as long as the replay is attached.
type Replay struct {
	dump *process_blob.ProcessDump

	mu       sync.Mutex
	attached *Result
}

func NewReplay(dump *process_blob.ProcessDump) *Replay {
	return &Replay{dump: dump}
}

// LoadReplay reads a dump written with Save.
func LoadReplay(filename string) (*Replay, error) {
	dump := process_blob.NewProcessDump()
	if err := dump.Load(filename); err != nil {
		return nil, err
	}
	return NewReplay(dump), nil
}

func (r *Replay) Attach() (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.attached != nil {
		return r.attached, nil
	}
	if err := r.dump.Open(r.dump.PID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAttached, err)
	}
	r.attached = &Result{
		Info:     process.ProcessInfo{PID: r.dump.PID, Name: r.dump.Name, Threads: 1},
		Process:  r.dump,
		Settings: install.FromAttributes(r.dump.Attributes),
	}
	return r.attached, nil
}

func (r *Replay) Alive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached != nil && r.dump.IsOpen()
}

func (r *Replay) Detach() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attached == nil {
		return nil
	}
	r.attached = nil
	return r.dump.Close()
}
