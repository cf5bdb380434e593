//go:build !linux && !windows

package attach

import (
	"fmt"
	"runtime"

	"ra2ob/process"
)

// DefaultOpener fails on platforms without a memory reader; replay still works.
func DefaultOpener() process.ProcessOpener {
	return process.OpenerFunc(func(pid process.ProcessID) (process.Process, error) {
		return nil, fmt.Errorf("reading process memory is not supported on %s", runtime.GOOS)
	})
}
