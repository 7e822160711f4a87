//go:build !linux

package executor

// applyCPULimit is a no-op off Linux; the parent's wall-clock timeout still
// applies.
func applyCPULimit(int) error { return nil }

// applyMemoryLimit is a no-op off Linux. debug.SetMemoryLimit still applies.
func applyMemoryLimit(int64) error { return nil }
