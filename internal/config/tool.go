// ABOUTME: JSON-persisted settings for the gemini CLI (executable path, extra arguments)
// ABOUTME: ToolHolder guards the in-memory copy; Set persists before swapping

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Tool is the persisted gemini CLI configuration.
type Tool struct {
	// ExecutablePath overrides executable resolution when set and non-empty.
	ExecutablePath *string `json:"executable_path"`
	// ExtraArgs are passed to every invocation ahead of --prompt.
	ExtraArgs []string `json:"extra_args"`
}

// Clone returns a deep copy.
func (t Tool) Clone() Tool {
	out := Tool{ExtraArgs: slices.Clone(t.ExtraArgs)}
	if t.ExecutablePath != nil {
		p := *t.ExecutablePath
		out.ExecutablePath = &p
	}
	if out.ExtraArgs == nil {
		out.ExtraArgs = []string{}
	}
	return out
}

// LoadTool reads the tool config at path. A missing file yields the defaults:
// no executable path and no extra arguments.
func LoadTool(path string) (Tool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Tool{ExtraArgs: []string{}}, nil
	}
	if err != nil {
		return Tool{}, fmt.Errorf("reading tool config: %w", err)
	}

	var t Tool
	if err := json.Unmarshal(data, &t); err != nil {
		return Tool{}, fmt.Errorf("parsing tool config %s: %w", path, err)
	}
	return t.Clone(), nil
}

// SaveTool writes t to path as indented JSON, creating parent directories.
func SaveTool(path string, t Tool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(t.Clone(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tool config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing tool config: %w", err)
	}
	return nil
}

// ToolHolder is the process-wide tool config. The lock covers only reads and
// swaps of the in-memory value.
type ToolHolder struct {
	mu   sync.RWMutex
	path string
	tool Tool
}

// NewToolHolder loads path and returns a holder for it.
func NewToolHolder(path string) (*ToolHolder, error) {
	t, err := LoadTool(path)
	if err != nil {
		return nil, err
	}
	return &ToolHolder{path: path, tool: t}, nil
}

// Snapshot returns a copy of the current config.
func (h *ToolHolder) Snapshot() Tool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tool.Clone()
}

// Set persists t and then replaces the in-memory value. On a write error the
// in-memory value is left unchanged.
func (h *ToolHolder) Set(t Tool) error {
	t = t.Clone()
	if t.ExecutablePath != nil && *t.ExecutablePath == "" {
		t.ExecutablePath = nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := SaveTool(h.path, t); err != nil {
		return err
	}
	h.tool = t
	return nil
}

// Path returns the file the holder persists to.
func (h *ToolHolder) Path() string {
	return h.path
}
