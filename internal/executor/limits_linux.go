//go:build linux

package executor

import "golang.org/x/sys/unix"

// addressSpaceHeadroom is added on top of the heap limit for RLIMIT_AS. The
// Go runtime and yaegi reserve address space they never touch.
const addressSpaceHeadroom = 1 << 30

// applyCPULimit sets RLIMIT_CPU for the current process. The kernel sends
// SIGXCPU at the soft limit and SIGKILL one second later.
func applyCPULimit(seconds int) error {
	if seconds <= 0 {
		return nil
	}
	lim := &unix.Rlimit{Cur: uint64(seconds), Max: uint64(seconds) + 1}
	return unix.Setrlimit(unix.RLIMIT_CPU, lim)
}

// applyMemoryLimit caps the address space at heap+addressSpaceHeadroom.
// Allocations past it fail and the runtime aborts the child.
func applyMemoryLimit(heapBytes int64) error {
	if heapBytes <= 0 {
		return nil
	}
	return unix.Setrlimit(unix.RLIMIT_AS, addressSpaceLimit(heapBytes))
}

func addressSpaceLimit(heapBytes int64) *unix.Rlimit {
	n := uint64(heapBytes) + addressSpaceHeadroom
	return &unix.Rlimit{Cur: n, Max: n}
}
