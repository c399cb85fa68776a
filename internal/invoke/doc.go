// Package invoke runs prompts through the externally installed gemini CLI.
//
// # Pipeline
//
// A prompt flows through four pieces, leaf-first:
//
//   - Resolver: finds the executable when none is configured
//   - Strategy: turns (executable, extra args, prompt) into a Plan
//   - Runner: starts the Plan and captures stdout/stderr/exit status
//   - Classify: maps the Outcome to a response or a typed error
//
// Invoker.RunPrompt strings them together.
//
// # Platforms
//
// Platform-specific behaviour is selected from a Platform tag rather than
// build tags, so every branch is testable on any host:
//
//	inv := invoke.NewInvoker(holder, invoke.HostPlatform(), logger)
//
// On Windows, .ps1 scripts run under powershell with an execution-policy
// bypass and .bat/.cmd scripts run under cmd /C. Everywhere else the path is
// executed directly. The tool always receives its configured extra arguments
// followed by "--prompt <text>" as the final two arguments.
//
// # Errors
//
//   - *LaunchError: the OS could not start the process (errors.Is ErrLaunchFailed)
//   - ErrQuotaExceeded: stderr held [{"error":{"code":429,"message":"...Quota exceeded..."}}]
//   - *ToolError: any other non-zero exit; Error() is the raw stderr
//
// ErrQuotaExceeded and *ToolError both match errors.Is(err, ErrToolFailed).
//
// Nothing is retried, streamed, queued or timed out. A hung tool hangs the
// caller until the context passed to RunPrompt is cancelled.
package invoke
