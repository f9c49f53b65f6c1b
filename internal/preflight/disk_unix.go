//go:build darwin || linux

package preflight

import (
	"fmt"
	"syscall"
)

// MinDiskSpaceBytes is the free space below which saving the index is
// likely to fail.
const MinDiskSpaceBytes = 10 * 1024 * 1024

// CheckDiskSpace checks the free space on the filesystem holding path.
func (c *Checker) CheckDiskSpace(path string) CheckResult {
	result := CheckResult{Name: "disk_space"}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	available := stat.Bavail * uint64(stat.Bsize)
	result.Message = fmt.Sprintf("%s free (minimum: %s)", formatBytes(available), formatBytes(MinDiskSpaceBytes))
	if available < MinDiskSpaceBytes {
		result.Status = StatusFail
		return result
	}
	result.Status = StatusPass
	return result
}
