// ABOUTME: Entry point for gemini-bridge, the local bridge between a chat UI and the gemini CLI
// ABOUTME: Runs cobra commands under a signal-aware context and prints classified errors

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/gemini-bridge/internal/invoke"
)

// Version is set by goreleaser at build time.
var version = "dev"

// quotaHint is shown when the tool reports an exhausted quota.
const quotaHint = "Quota exceeded for Gemini API. Would you like to switch to gemini-2.5-flash and resend the request?"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err for a human. Quota errors get the model-switch hint
// and tool errors print the tool's stderr unmodified.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	var toolErr *invoke.ToolError
	switch {
	case errors.Is(err, invoke.ErrQuotaExceeded):
		yellow.Fprintln(w, quotaHint)
		fmt.Fprintln(w, "Hint: gemini-bridge config add-arg -- --model gemini-2.5-flash")
	case errors.As(err, &toolErr):
		red.Fprintf(w, "gemini exited with status %d:\n", toolErr.ExitCode)
		fmt.Fprint(w, toolErr.Stderr)
		if n := len(toolErr.Stderr); n > 0 && toolErr.Stderr[n-1] != '\n' {
			fmt.Fprintln(w)
		}
	default:
		red.Fprint(w, "Error: ")
		fmt.Fprintln(w, err)
	}
}
