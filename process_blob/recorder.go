package process_blob

import (
	"ra2ob/process"
)

// Recorder is a process.Process that forwards to a live target and copies
// every successful read into a ProcessDump, so a session can be replayed
// offline through the same engine.
type Recorder struct {
	process.Process
	dump *ProcessDump
}

// NewRecorder wraps target. Reads are captured into dump.
func NewRecorder(target process.Process, dump *ProcessDump) *Recorder {
	return &Recorder{Process: target, dump: dump}
}

func (r *Recorder) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	data, err := r.Process.ReadMemory(addr, size)
	if err != nil {
		return nil, err
	}
	r.dump.Poke(addr, data)
	return data, nil
}

// Dump returns the dump the recorder writes into.
func (r *Recorder) Dump() *ProcessDump {
	return r.dump
}
