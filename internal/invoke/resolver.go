// ABOUTME: Locates the gemini executable when no explicit path is configured
// ABOUTME: Probes a platform-specific ordered candidate list; first hit wins

package invoke

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// FallbackCommand is the bare command name used when resolution finds nothing.
const FallbackCommand = "gemini"

// QueryFunc runs a read-only platform utility and returns its standard output.
type QueryFunc func(ctx context.Context, name string, args ...string) (string, error)

// StatFunc reports whether a file exists at path.
type StatFunc func(path string) bool

// Resolver searches well-known locations for the external tool's executable.
type Resolver struct {
	Platform Platform
	Query    QueryFunc
	Stat     StatFunc
	Getenv   func(string) string
	Logger   *slog.Logger
}

// NewResolver returns a Resolver for the given platform backed by the real
// process table, filesystem and environment.
func NewResolver(platform Platform, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		Platform: platform,
		Query:    runQuery,
		Stat:     fileExists,
		Getenv:   os.Getenv,
		Logger:   logger.With("component", "resolver"),
	}
}

// candidate is one probe in the ordered search. Exactly one of query or path
// is set.
type candidate struct {
	query []string
	// queryBin is appended to a query's trimmed output (e.g. a package prefix).
	queryBin []string
	path     []string
}

// Resolve returns the first candidate that exists. Absence is not an error:
// ok is false and the caller falls back to FallbackCommand.
func (r *Resolver) Resolve(ctx context.Context) (string, bool) {
	for _, c := range r.candidates() {
		if p, ok := r.probe(ctx, c); ok {
			r.logger().Debug("resolved executable", "path", p)
			return p, true
		}
	}
	r.logger().Debug("executable not found in any candidate location")
	return "", false
}

func (r *Resolver) probe(ctx context.Context, c candidate) (string, bool) {
	if len(c.query) > 0 {
		if r.Query == nil {
			return "", false
		}
		out, err := r.Query(ctx, c.query[0], c.query[1:]...)
		if err != nil {
			r.logger().Debug("query failed", "command", c.query[0], "error", err)
			return "", false
		}
		out = firstLine(out)
		if out == "" {
			return "", false
		}
		if len(c.queryBin) == 0 {
			return out, true
		}
		p := r.Platform.pathJoin(append([]string{out}, c.queryBin...)...)
		return p, r.exists(p)
	}

	for _, part := range c.path {
		if part == "" {
			// Built from an unset environment variable.
			return "", false
		}
	}
	p := r.Platform.pathJoin(c.path...)
	r.logger().Debug("probing", "path", p)
	return p, r.exists(p)
}

func (r *Resolver) exists(p string) bool {
	return r.Stat != nil && r.Stat(p)
}

// candidates returns the ordered search list: package manager or shell lookup
// first, then system install directories, then per-user directories.
func (r *Resolver) candidates() []candidate {
	env := r.getenv
	switch r.Platform {
	case PlatformWindows:
		return []candidate{
			{query: []string{"powershell", "-NoProfile", "-Command",
				"Get-Command gemini | Select-Object -ExpandProperty Source"}},
			{path: []string{env("ProgramFiles"), "Google", "Gemini", "gemini.exe"}},
			{path: []string{env("ProgramFiles(x86)"), "Google", "Gemini", "gemini.exe"}},
			{path: []string{env("LOCALAPPDATA"), "Google", "Gemini", "gemini.exe"}},
		}
	case PlatformDarwin:
		return []candidate{
			{query: []string{"brew", "--prefix"}, queryBin: []string{"bin", "gemini"}},
			{path: []string{"/opt/homebrew/bin/gemini"}},
			{path: []string{"/usr/local/bin/gemini"}},
			{path: []string{"/usr/bin/gemini"}},
			{path: []string{env("HOME"), ".local", "bin", "gemini"}},
		}
	default:
		return []candidate{
			{query: []string{"npm", "prefix", "-g"}, queryBin: []string{"bin", "gemini"}},
			{path: []string{"/usr/local/bin/gemini"}},
			{path: []string{"/usr/bin/gemini"}},
			{path: []string{env("HOME"), ".local", "bin", "gemini"}},
		}
	}
}

func (r *Resolver) getenv(key string) string {
	if r.Getenv == nil {
		return ""
	}
	return r.Getenv(key)
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// runQuery is the default QueryFunc. A missing utility surfaces as an error
// and the candidate is skipped.
func runQuery(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
