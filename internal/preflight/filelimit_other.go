//go:build !(darwin || linux)

package preflight

// MinFileDescriptors is the open file limit a default worker pool needs.
const MinFileDescriptors = 256

// CheckFileDescriptors is not implemented on this platform.
func (c *Checker) CheckFileDescriptors() CheckResult {
	return CheckResult{Name: "file_descriptors", Status: StatusSkip, Message: "not supported on this platform"}
}
