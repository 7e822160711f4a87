package executor

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingEntryPoint is returned when a candidate loads but defines no
// top-level parse function or variable. The text is shown to users and fed back to the
// oracle verbatim.
var ErrMissingEntryPoint = errors.New("Parser missing `parse` function.") //nolint:staticcheck // user-facing text

// LoadError means the candidate could not be loaded: a syntax error, a
// forbidden import, an interpreter compile error or a wrong signature.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return "load candidate: " + e.Err.Error()
	}
	return fmt.Sprintf("load candidate %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// InvocationError means parse was called and returned an error or panicked.
type InvocationError struct {
	Err   error
	Panic bool
}

func (e *InvocationError) Error() string {
	if e.Panic {
		return "parse panicked: " + e.Err.Error()
	}
	return "parse failed: " + e.Err.Error()
}

func (e *InvocationError) Unwrap() error { return e.Err }

// TimeoutError means the candidate did not finish within the wall-clock limit.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("candidate timed out after %s", e.Timeout)
}

// BoundaryError means the sandbox child misbehaved: it crashed, was killed by
// a resource limit, exited non-zero or wrote an unreadable response.
type BoundaryError struct {
	Err    error
	Stderr string
}

func (e *BoundaryError) Error() string {
	if e.Stderr == "" {
		return "sandbox: " + e.Err.Error()
	}
	return fmt.Sprintf("sandbox: %v: %s", e.Err, e.Stderr)
}

func (e *BoundaryError) Unwrap() error { return e.Err }
