// ABOUTME: Maps an executable path to a concrete launch recipe for the host platform
// ABOUTME: Windows scripts go through powershell or cmd; everything else runs directly

package invoke

import "strings"

// PromptFlag precedes the prompt text; together they are always the last two
// arguments handed to the tool.
const PromptFlag = "--prompt"

// Plan is a ready-to-run process recipe.
type Plan struct {
	Program string
	Args    []string
}

// String renders the plan for logs. The prompt is not quoted or escaped.
func (p Plan) String() string {
	return strings.Join(append([]string{p.Program}, p.Args...), " ")
}

// Strategy builds a Plan from an executable path, configured extra arguments
// and the prompt. Implementations perform no I/O.
type Strategy interface {
	Build(executable string, baseArgs []string, prompt string) Plan
}

// StrategyFor returns the launch strategy for a platform.
func StrategyFor(p Platform) Strategy {
	if p.IsWindows() {
		return windowsStrategy{}
	}
	return directStrategy{}
}

// toolArgs returns extra arguments followed by --prompt <prompt> in a fresh slice.
func toolArgs(baseArgs []string, prompt string) []string {
	args := make([]string, 0, len(baseArgs)+2)
	args = append(args, baseArgs...)
	return append(args, PromptFlag, prompt)
}

// directStrategy execs the path as a binary.
type directStrategy struct{}

func (directStrategy) Build(executable string, baseArgs []string, prompt string) Plan {
	return Plan{Program: executable, Args: toolArgs(baseArgs, prompt)}
}

// windowsStrategy routes scripts through their interpreter.
type windowsStrategy struct{}

func (windowsStrategy) Build(executable string, baseArgs []string, prompt string) Plan {
	tail := toolArgs(baseArgs, prompt)
	lower := strings.ToLower(executable)

	switch {
	case strings.HasSuffix(lower, ".ps1"):
		args := append([]string{"-NoProfile", "-ExecutionPolicy", "Bypass", "-File", executable}, tail...)
		return Plan{Program: "powershell", Args: args}
	case strings.HasSuffix(lower, ".bat"), strings.HasSuffix(lower, ".cmd"):
		args := append([]string{"/C", executable}, tail...)
		return Plan{Program: "cmd", Args: args}
	default:
		return Plan{Program: executable, Args: tail}
	}
}
