//go:build darwin || linux

package preflight

import (
	"fmt"
	"syscall"
)

// MinFileDescriptors is the open file limit a default worker pool needs,
// counting the index, history database and log file.
const MinFileDescriptors = 256

// CheckFileDescriptors checks the soft limit on open files.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{Name: "file_descriptors"}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d (minimum: %d)", rLimit.Cur, MinFileDescriptors)
	if rLimit.Cur < MinFileDescriptors {
		result.Status = StatusWarn
		result.Details = "Run 'ulimit -n 1024' or lower --workers"
		return result
	}
	result.Status = StatusPass
	return result
}
