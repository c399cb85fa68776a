// ABOUTME: Host platform tag used to pick resolver candidates and launch strategies
// ABOUTME: Derived from runtime.GOOS once at wiring time so tests can inject any platform

package invoke

import (
	"runtime"
	"strings"
)

// Platform identifies the host operating system family.
type Platform string

// Known platforms. Anything else is treated as a generic Unix host.
const (
	PlatformWindows Platform = "windows"
	PlatformDarwin  Platform = "darwin"
	PlatformLinux   Platform = "linux"
)

// HostPlatform returns the platform the binary is running on.
func HostPlatform() Platform {
	return Platform(runtime.GOOS)
}

// IsWindows reports whether the platform's native shell is cmd/PowerShell.
func (p Platform) IsWindows() bool {
	return p == PlatformWindows
}

// pathJoin joins path elements with the platform's separator. filepath.Join
// uses the host separator, which is wrong when a test injects another platform.
func (p Platform) pathJoin(elem ...string) string {
	sep := "/"
	if p.IsWindows() {
		sep = `\`
	}
	var parts []string
	for i, e := range elem {
		if e == "" {
			continue
		}
		if i > 0 {
			e = strings.TrimLeft(e, sep)
		}
		if i < len(elem)-1 {
			e = strings.TrimRight(e, sep)
		}
		parts = append(parts, e)
	}
	return strings.Join(parts, sep)
}
