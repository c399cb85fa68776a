// ABOUTME: Runs an invocation plan and captures stdout, stderr and the exit status
// ABOUTME: Output is buffered in full and decoded permissively; spawn failures are LaunchErrors

package invoke

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// Outcome is the captured result of a process that started.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the process exited with status zero.
func (o *Outcome) Success() bool {
	return o.ExitCode == 0
}

// Runner executes a plan.
type Runner interface {
	Run(ctx context.Context, plan Plan) (*Outcome, error)
}

// ProcessRunner runs plans as child processes of the current process.
type ProcessRunner struct {
	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

// Run starts the process and waits for it to exit. The calling goroutine is
// parked while the child runs; other goroutines are unaffected.
//
// A process that cannot be started yields a *LaunchError. A process that
// starts and exits non-zero yields an Outcome and a nil error.
func (r *ProcessRunner) Run(ctx context.Context, plan Plan) (*Outcome, error) {
	cmd := exec.CommandContext(ctx, plan.Program, plan.Args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Program: plan.Program, Err: err}
	}

	err := cmd.Wait()
	out := &Outcome{
		Stdout:   decode(stdout.Bytes()),
		Stderr:   decode(stderr.Bytes()),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &LaunchError{Program: plan.Program, Err: err}
		}
		out.ExitCode = exitErr.ExitCode()
		if out.ExitCode == 0 {
			// Killed by a signal; ExitCode reports -1 there, but guard anyway.
			out.ExitCode = -1
		}
	}
	return out, nil
}

// decode replaces invalid UTF-8 sequences instead of failing.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
