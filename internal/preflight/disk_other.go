//go:build !(darwin || linux)

package preflight

// MinDiskSpaceBytes is the free space below which saving the index is
// likely to fail.
const MinDiskSpaceBytes = 10 * 1024 * 1024

// CheckDiskSpace is not implemented on this platform.
func (c *Checker) CheckDiskSpace(_ string) CheckResult {
	return CheckResult{Name: "disk_space", Status: StatusSkip, Message: "not supported on this platform"}
}
