// Package config handles configuration loading for gemini-bridge.
//
// # Overview
//
// Two files are involved:
//
//   - the service config (YAML or TOML): HTTP address, database path,
//     logging, optional API auth, dedupe window
//   - the tool config (JSON): the gemini CLI executable path and the extra
//     arguments passed to every prompt
//
// # Service Config File
//
// Default locations (in order):
//
//  1. --config flag
//  2. Path from GEMINI_BRIDGE_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/gemini-bridge/bridge.yaml
//  4. ~/.config/gemini-bridge/bridge.yaml
//
// A missing file is not an error; defaults apply. Files with a .toml
// extension are decoded as TOML, anything else as YAML:
//
//	server:
//	  http_addr: "127.0.0.1:8765"
//	database:
//	  path: "~/.local/share/gemini-bridge/gemini_ui.db"
//	tool:
//	  config_path: "~/.config/gemini-bridge/config.json"
//	auth:
//	  jwt_secret: "${GEMINI_BRIDGE_JWT_SECRET}"
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	dedupe:
//	  window: "10s"
//
// Values can reference environment variables with ${VAR_NAME}.
//
// # Tool Config File
//
//	{
//	  "executable_path": null,
//	  "extra_args": ["--model", "gemini-2.5-pro"]
//	}
//
// ToolHolder keeps the loaded value behind a mutex. Readers take a Snapshot
// (a deep copy) and release the lock immediately; Set writes the file first
// and swaps the in-memory value only if the write succeeded.
package config
