// ABOUTME: Configuration loading and parsing for gemini-bridge
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// MinSecretLength is the minimum accepted length of auth.jwt_secret.
const MinSecretLength = 32

// Defaults applied when a field is absent.
const (
	DefaultHTTPAddr     = "127.0.0.1:8765"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultDedupeWindow = 10 * time.Second
	appDirName          = "gemini-bridge"
	dbFileName          = "gemini_ui.db"
	toolFileName        = "config.json"
)

// Config represents the complete gemini-bridge service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Tool     ToolConfig     `yaml:"tool" toml:"tool"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Dedupe   DedupeConfig   `yaml:"dedupe" toml:"dedupe"`
}

// ServerConfig holds the local HTTP API address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// ToolConfig points at the JSON file holding the gemini CLI settings
type ToolConfig struct {
	ConfigPath string `yaml:"config_path" toml:"config_path"`
}

// AuthConfig holds optional bearer-token protection for the HTTP API
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// DedupeConfig controls duplicate-submission suppression on the send endpoint
type DedupeConfig struct {
	Window time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	WindowRaw string `yaml:"window" toml:"window"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A missing file yields the defaults. Files ending in .toml are decoded as TOML,
// everything else as YAML. Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Tool.ConfigPath == "" {
		return fmt.Errorf("tool.config_path is required")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < MinSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinSecretLength)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}
	if c.Dedupe.Window < 0 {
		return fmt.Errorf("dedupe.window must not be negative")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Dedupe.WindowRaw != "" {
		d, err := time.ParseDuration(cfg.Dedupe.WindowRaw)
		if err != nil {
			return fmt.Errorf("parsing dedupe.window %q: %w", cfg.Dedupe.WindowRaw, err)
		}
		cfg.Dedupe.Window = d
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDBPath()
	}
	if cfg.Tool.ConfigPath == "" {
		cfg.Tool.ConfigPath = filepath.Join(ConfigDir(), toolFileName)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Dedupe.WindowRaw == "" {
		cfg.Dedupe.Window = DefaultDedupeWindow
	}
}

// Path returns the config file to load.
// Priority: explicit flag > GEMINI_BRIDGE_CONFIG env var > XDG_CONFIG_HOME/gemini-bridge/bridge.yaml > ~/.config/gemini-bridge/bridge.yaml
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv("GEMINI_BRIDGE_CONFIG"); envPath != "" {
		return envPath
	}
	return filepath.Join(ConfigDir(), "bridge.yaml")
}

// ConfigDir returns XDG_CONFIG_HOME/gemini-bridge, falling back to ~/.config/gemini-bridge.
func ConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return appDirName // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, appDirName)
}

// DefaultDBPath returns XDG_DATA_HOME/gemini-bridge/gemini_ui.db, falling back
// to ~/.local/share/gemini-bridge/gemini_ui.db.
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return dbFileName // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, appDirName, dbFileName)
}
