// ABOUTME: Classified error kinds returned by prompt invocations
// ABOUTME: LaunchError for spawn failures, ToolError for opaque non-zero exits, ErrQuotaExceeded for quota 429s

package invoke

import (
	"errors"
	"fmt"
)

var (
	// ErrLaunchFailed matches any *LaunchError.
	ErrLaunchFailed = errors.New("launch failed")

	// ErrToolFailed matches every failure of a process that did start:
	// ErrQuotaExceeded and any *ToolError.
	ErrToolFailed = errors.New("tool exited with failure")

	// ErrQuotaExceeded is returned when the tool reports a 429 whose message
	// contains "Quota exceeded".
	ErrQuotaExceeded = fmt.Errorf("%w: quota exceeded", ErrToolFailed)
)

// LaunchError reports that the OS could not start the process.
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching %s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrLaunchFailed) match.
func (e *LaunchError) Is(target error) bool { return target == ErrLaunchFailed }

// ToolError carries the raw stderr of a process that exited unsuccessfully.
type ToolError struct {
	ExitCode int
	Stderr   string
}

// Error returns the raw stderr text unmodified.
func (e *ToolError) Error() string { return e.Stderr }

// Is lets errors.Is(err, ErrToolFailed) match.
func (e *ToolError) Is(target error) bool { return target == ErrToolFailed }
