package process

// ProcessOpener creates and opens a Process for a PID. Each platform
// backend provides one.
type ProcessOpener interface {
	OpenProcess(pid ProcessID) (Process, error)
}

// OpenerFunc adapts a function to ProcessOpener.
type OpenerFunc func(pid ProcessID) (Process, error)

func (f OpenerFunc) OpenProcess(pid ProcessID) (Process, error) {
	return f(pid)
}
