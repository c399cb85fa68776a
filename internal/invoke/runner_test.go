// ABOUTME: Tests for ProcessRunner against real child processes
// ABOUTME: Uses throwaway shell scripts, so these are skipped on Windows

package invoke

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript creates an executable sh script in a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "gemini")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestProcessRunner_Success(t *testing.T) {
	exe := writeScript(t, `printf '%s|' "$@"; echo "warn" >&2`+"\n")

	out, err := (&ProcessRunner{}).Run(context.Background(), Plan{Program: exe, Args: []string{"-y", "--prompt", "hello world"}})

	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, "-y|--prompt|hello world|", out.Stdout)
	assert.Equal(t, "warn\n", out.Stderr)
}

func TestProcessRunner_NonZeroExitIsNotAnError(t *testing.T) {
	exe := writeScript(t, "echo partial; echo boom >&2; exit 3\n")

	out, err := (&ProcessRunner{}).Run(context.Background(), Plan{Program: exe})

	require.NoError(t, err)
	assert.False(t, out.Success())
	assert.Equal(t, 3, out.ExitCode)
	assert.Equal(t, "partial\n", out.Stdout)
	assert.Equal(t, "boom\n", out.Stderr)
}

func TestProcessRunner_InvalidUTF8IsReplaced(t *testing.T) {
	exe := writeScript(t, `printf 'ok \377\376 end'`+"\n")

	out, err := (&ProcessRunner{}).Run(context.Background(), Plan{Program: exe})

	require.NoError(t, err)
	assert.Equal(t, "ok � end", out.Stdout)
}

func TestProcessRunner_MissingExecutableIsLaunchError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "definitely-not-here")

	out, err := (&ProcessRunner{}).Run(context.Background(), Plan{Program: missing})

	assert.Nil(t, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLaunchFailed)
	assert.NotErrorIs(t, err, ErrToolFailed)

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, missing, launchErr.Program)
	assert.Contains(t, err.Error(), missing)
}

func TestProcessRunner_Env(t *testing.T) {
	exe := writeScript(t, `printf '%s' "$BRIDGE_TEST_VALUE"`+"\n")

	r := &ProcessRunner{Env: []string{"BRIDGE_TEST_VALUE=from-runner"}}
	out, err := r.Run(context.Background(), Plan{Program: exe})

	require.NoError(t, err)
	assert.Equal(t, "from-runner", out.Stdout)
}
