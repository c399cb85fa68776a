// ABOUTME: run_prompt entry point: config snapshot, resolve, build plan, run, classify
// ABOUTME: The config lock is held only while cloning, never across the subprocess run

package invoke

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/2389/gemini-bridge/internal/config"
)

// ToolSource supplies the current tool configuration.
type ToolSource interface {
	Snapshot() config.Tool
}

// Invoker runs prompts through the external tool.
type Invoker struct {
	tool     ToolSource
	resolver *Resolver
	strategy Strategy
	runner   Runner
	logger   *slog.Logger
}

// NewInvoker wires an Invoker for the given platform using the real process
// runner and resolver.
func NewInvoker(tool ToolSource, platform Platform, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{
		tool:     tool,
		resolver: NewResolver(platform, logger),
		strategy: StrategyFor(platform),
		runner:   &ProcessRunner{},
		logger:   logger.With("component", "invoker"),
	}
}

// WithRunner replaces the process runner. Used by tests.
func (i *Invoker) WithRunner(r Runner) *Invoker {
	i.runner = r
	return i
}

// WithResolver replaces the executable resolver.
func (i *Invoker) WithResolver(r *Resolver) *Invoker {
	i.resolver = r
	return i
}

// Executable returns the configured path, else the resolved one, else
// FallbackCommand.
func (i *Invoker) Executable(ctx context.Context, tool config.Tool) string {
	if tool.ExecutablePath != nil && *tool.ExecutablePath != "" {
		return *tool.ExecutablePath
	}
	if i.resolver != nil {
		if p, ok := i.resolver.Resolve(ctx); ok {
			return p
		}
	}
	return FallbackCommand
}

// RunPrompt sends prompt to the tool and returns its stdout. Errors are
// *LaunchError, ErrQuotaExceeded or *ToolError.
func (i *Invoker) RunPrompt(ctx context.Context, prompt string) (string, error) {
	tool := i.tool.Snapshot()
	exe := i.Executable(ctx, tool)
	plan := i.strategy.Build(exe, tool.ExtraArgs, prompt)

	log := i.logger.With("request_id", uuid.New().String())
	log.Debug("running tool", "program", plan.Program, "args", len(plan.Args))

	out, err := i.runner.Run(ctx, plan)
	if err != nil {
		log.Error("tool launch failed", "program", plan.Program, "error", err)
		return "", err
	}

	resp, err := Classify(out)
	if err != nil {
		log.Warn("tool run failed",
			"exit_code", out.ExitCode,
			"duration", out.Duration,
			"quota", errors.Is(err, ErrQuotaExceeded))
		return "", err
	}

	log.Info("tool run completed", "duration", out.Duration, "bytes", len(resp))
	return resp, nil
}
