//go:build windows

package attach

import (
	"ra2ob/process"
	"ra2ob/process_windows"
)

// DefaultOpener opens targets with query and read rights.
func DefaultOpener() process.ProcessOpener {
	return process_windows.Opener()
}
