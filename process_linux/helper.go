//go:build linux

package process_linux

import (
	"ra2ob/process"
)

// Opener returns the Linux process opener used by the attachment manager.
func Opener() process.ProcessOpener {
	return process.OpenerFunc(NewWithPID)
}
