//go:build linux

package attach

import (
	"ra2ob/process"
	"ra2ob/process_linux"
)

// DefaultOpener opens targets with process_vm_readv.
func DefaultOpener() process.ProcessOpener {
	return process_linux.Opener()
}
